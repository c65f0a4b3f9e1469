package network_connector

import (
	"fmt"
	"slices"
	"strings"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
)

var (
	wepASCIILengths     = []int{5, 13, 58}
	wepHexLengths       = []int{10, 26, 116}
	wepPrefixedLengths  = []int{13, 29, 119}
	wpaPassphraseMinLen = 8
	wpaPassphraseMaxLen = 63
)

// NormaliseWEPKey checks a WEP key length and marks bare hex keys with
// the "hex" prefix. Keys already carrying the prefix are checked with it.
func NormaliseWEPKey(key string) (string, error) {
	n := len(key)
	switch {
	case strings.HasPrefix(key, "hex"):
		if slices.Contains(wepPrefixedLengths, n) {
			return key, nil
		}
	case slices.Contains(wepASCIILengths, n):
		return key, nil
	case slices.Contains(wepHexLengths, n):
		return "hex" + key, nil
	}
	return "", fmt.Errorf("%w: WEP key of length %d, expected %v characters or %v hex digits",
		dogewifi.ErrInvalidSecret, n, wepASCIILengths, wepHexLengths)
}

// ValidateWPAPassphrase accepts 8 to 63 characters. A "hex" prefixed key
// is passed through as a raw PSK.
func ValidateWPAPassphrase(passphrase string) error {
	if strings.HasPrefix(passphrase, "hex") {
		return nil
	}
	if n := len(passphrase); n < wpaPassphraseMinLen || n > wpaPassphraseMaxLen {
		return fmt.Errorf("%w: WPA passphrase of length %d, expected %d to %d characters",
			dogewifi.ErrInvalidSecret, n, wpaPassphraseMinLen, wpaPassphraseMaxLen)
	}
	return nil
}
