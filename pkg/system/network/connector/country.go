package network_connector

import (
	"regexp"
	"strings"
)

var (
	localePattern  = regexp.MustCompile(`^[a-zA-Z]{2,3}_([a-zA-Z]{2})(\.[^ ]*)?$`)
	countryPattern = regexp.MustCompile(`^[a-zA-Z]{2}$`)
)

// ResolveCountry picks the regulatory domain for wpa_supplicant from a
// configured value, falling back to a locale such as "es_ES.UTF-8".
// Malformed values give no country, and US is the driver default so it
// is never written out.
func ResolveCountry(configured, lang string) string {
	value := configured
	if value == "" {
		value = lang
	}

	var cc string
	if m := localePattern.FindStringSubmatch(value); m != nil {
		cc = m[1]
	} else if configured != "" && countryPattern.MatchString(configured) {
		cc = configured
	} else {
		return ""
	}

	cc = strings.ToUpper(cc)
	if cc == "US" {
		return ""
	}
	return cc
}
