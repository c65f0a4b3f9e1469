package network_connector

import (
	"bytes"
	"context"
	"crypto/sha1"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"text/template"
	"unicode"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/metrics"
	"golang.org/x/crypto/pbkdf2"
)

//go:embed templates/wep.conf
var rawWEPTemplate []byte

//go:embed templates/wpa.conf
var rawWPATemplate []byte

type SupplicantNetwork struct {
	ESSID      string
	Encryption dogewifi.Encryption
	// Key is a WEP key as returned by NormaliseWEPKey or a WPA
	// passphrase, possibly "hex" prefixed.
	Key     string
	CtrlDir string
	Country string
}

type supplicantTemplateValues struct {
	COUNTRY  string
	CTRL_DIR string
	SSID     string
	KEY      string
	PSK      string
}

// RenderSupplicantConfig produces a wpa_supplicant.conf for a single network.
func RenderSupplicantConfig(n SupplicantNetwork) ([]byte, error) {
	values := supplicantTemplateValues{
		COUNTRY:  n.Country,
		CTRL_DIR: n.CtrlDir,
		SSID:     quoteOrHex(n.ESSID),
	}

	var raw []byte
	switch n.Encryption {
	case dogewifi.EncryptionWEP:
		raw = rawWEPTemplate
		if k, ok := strings.CutPrefix(n.Key, "hex"); ok {
			values.KEY = k
		} else {
			values.KEY = quoteOrHex(n.Key)
		}
	case dogewifi.EncryptionWPA:
		raw = rawWPATemplate
		if k, ok := strings.CutPrefix(n.Key, "hex"); ok {
			values.PSK = k
		} else {
			values.PSK = DerivePSK(n.Key, n.ESSID)
		}
	default:
		return nil, fmt.Errorf("%w: no configuration for encryption %q", dogewifi.ErrSupplicantConfig, n.Encryption)
	}

	tmpl, err := template.New(string(n.Encryption)).Parse(string(raw))
	if err != nil {
		return nil, err
	}

	var contents bytes.Buffer
	if err := tmpl.Execute(&contents, values); err != nil {
		return nil, fmt.Errorf("%w: %w", dogewifi.ErrSupplicantConfig, err)
	}
	return contents.Bytes(), nil
}

// WriteSupplicantConfig renders n and writes it to path, readable by root only.
func WriteSupplicantConfig(path string, n SupplicantNetwork) error {
	contents, err := RenderSupplicantConfig(n)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, contents, 0600); err != nil {
		return fmt.Errorf("%w: %w", dogewifi.ErrSupplicantConfig, err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("%w: %w", dogewifi.ErrSupplicantConfig, err)
	}
	return nil
}

// DerivePSK computes the 256-bit WPA pre-shared key, the same value
// wpa_passphrase prints.
func DerivePSK(passphrase, essid string) string {
	key := pbkdf2.Key([]byte(passphrase), []byte(essid), 4096, 32, sha1.New)
	return hex.EncodeToString(key)
}

// quoteOrHex returns a quoted wpa_supplicant string, or bare hex when the
// value cannot be expressed between double quotes.
func quoteOrHex(s string) string {
	for _, r := range s {
		if r == '"' || r == '\\' || r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return hex.EncodeToString([]byte(s))
		}
	}
	return `"` + s + `"`
}

func (s *Sequencer) waitAssociated(ctx context.Context) (bool, error) {
	polls, done, err := s.opts.AssocBudget.Poll(ctx, func(ctx context.Context) (bool, error) {
		res, err := s.runner.Run(ctx, "wpa_cli", "-p", s.opts.CtrlDir, "status")
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			// control socket may not be up yet
			return false, nil
		}
		return supplicantState(res.Stdout) == "COMPLETED", nil
	})
	metrics.ObserveAssociation(polls)

	s.log.WithField("polls", polls).Debugf("Association finished, completed=%t", done)
	return done, err
}

func supplicantState(status string) string {
	for _, line := range strings.Split(status, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "wpa_state="); ok {
			return v
		}
	}
	return ""
}
