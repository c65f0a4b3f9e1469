package dogewifi

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  ConnectionRequest
		ok   bool
		msg  string
	}{
		{"minimal", ConnectionRequest{Interface: "wlan0", ESSID: "HomeNet"}, true, ""},
		{"custom config only", ConnectionRequest{Interface: "wlan0", CustomConfigPath: "/etc/x.conf"}, true, ""},
		{"missing interface", ConnectionRequest{ESSID: "HomeNet"}, false, "Interface: is required"},
		{"missing essid", ConnectionRequest{Interface: "wlan0"}, false, "ESSID: is required without CustomConfigPath"},
		{"bad encryption", ConnectionRequest{Interface: "wlan0", ESSID: "x", Encryption: "wpa3"}, false, "Encryption: must be one of [off wep wpa]"},
		{"essid too long", ConnectionRequest{Interface: "wlan0", ESSID: strings.Repeat("x", 33)}, false, "ESSID: must be at most 32 bytes"},
		{"essid at 32 bytes", ConnectionRequest{Interface: "wlan0", ESSID: strings.Repeat("x", 32)}, true, ""},
		{"essid counted in bytes", ConnectionRequest{Interface: "wlan0", ESSID: strings.Repeat("é", 17)}, false, "ESSID: must be at most 32 bytes"},
		{"interface too long", ConnectionRequest{Interface: strings.Repeat("w", 16), ESSID: "x"}, false, "Interface: must be at most 15 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseEncryption(t *testing.T) {
	for in, want := range map[string]Encryption{"": EncryptionOff, "OFF": EncryptionOff, "wep": EncryptionWEP, "WPA2": EncryptionWPA} {
		got, err := ParseEncryption(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEncryption("wpa3-enterprise")
	assert.Error(t, err)
}

func TestCacheEntryConnectionRequest(t *testing.T) {
	conf := "/etc/custom.conf"
	req := CacheEntry{ESSID: "HomeNet", Encryption: EncryptionWPA, Secret: "s3cretpass", Conf: &conf}.ConnectionRequest("wlan1")

	assert.Equal(t, ConnectionRequest{
		Interface:        "wlan1",
		ESSID:            "HomeNet",
		Encryption:       EncryptionWPA,
		Secret:           "s3cretpass",
		CustomConfigPath: conf,
	}, req)
}

func TestAttemptID(t *testing.T) {
	assert.Equal(t, "", AttemptID(context.Background()))
	assert.Equal(t, "abc", AttemptID(WithAttemptID(context.Background(), "abc")))
}
