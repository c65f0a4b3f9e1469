package dogewifi

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// see ./system/network/ for implementations

type Encryption string

const (
	EncryptionOff Encryption = "off"
	EncryptionWEP Encryption = "wep"
	EncryptionWPA Encryption = "wpa"
)

func ParseEncryption(s string) (Encryption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return EncryptionOff, nil
	case "wep":
		return EncryptionWEP, nil
	case "wpa", "wpa2":
		return EncryptionWPA, nil
	}
	return "", fmt.Errorf("unknown encryption %q, expected off, wep or wpa", s)
}

/* ScanCell is one access point reported by a single scan pass.
 *
 * Number is assigned by the driver per scan and must never be
 * used as a key across scans.
 */
type ScanCell struct {
	Number        string   `json:"number"`
	MAC           string   `json:"mac"`
	ESSID         string   `json:"essid"`
	Protocol      string   `json:"protocol,omitempty"`
	Mode          string   `json:"mode,omitempty"`
	Channel       string   `json:"channel"`
	Frequency     string   `json:"frequency,omitempty"`
	Quality       string   `json:"quality"`
	Signal        string   `json:"signal"`
	Noise         string   `json:"noise,omitempty"`
	EncryptionKey string   `json:"encryptionKey"`
	IE            []string `json:"ie,omitempty"`
	Extra         []string `json:"extra,omitempty"`
}

// Encryption classifies the cell. WPA2/WPA3 are reported as wpa.
func (c ScanCell) Encryption() Encryption {
	if c.EncryptionKey == "off" {
		return EncryptionOff
	}

	for _, chunks := range [][]string{c.Extra, c.IE} {
		for _, chunk := range chunks {
			if strings.Contains(strings.ToUpper(chunk), "WPA") {
				return EncryptionWPA
			}
		}
	}

	return EncryptionWEP
}

type NetworkSummary struct {
	ESSID      string     `json:"essid"`
	Channel    string     `json:"channel"`
	Signal     string     `json:"signal"`
	Quality    string     `json:"quality"`
	Encryption Encryption `json:"encryption"`
}

type ConnectionRequest struct {
	Interface        string     `json:"interface" validate:"required,max=15"`
	ESSID            string     `json:"essid" validate:"required_without=CustomConfigPath,maxbytes=32"`
	Encryption       Encryption `json:"encryption" validate:"omitempty,oneof=off wep wpa"`
	Secret           string     `json:"secret,omitempty"`
	CustomConfigPath string     `json:"customConfigPath,omitempty" validate:"omitempty,max=4096"`
}

// CacheEntry is the last successful association. The field order
// keeps the JSON keys sorted.
type CacheEntry struct {
	Conf       *string    `json:"conf"`
	Secret     string     `json:"enckey"`
	Encryption Encryption `json:"encryption"`
	ESSID      string     `json:"essid"`
}

// ConnectionRequest rebuilds the request that produced this entry.
func (e CacheEntry) ConnectionRequest(iface string) ConnectionRequest {
	req := ConnectionRequest{
		Interface:  iface,
		ESSID:      e.ESSID,
		Encryption: e.Encryption,
		Secret:     e.Secret,
	}
	if e.Conf != nil {
		req.CustomConfigPath = *e.Conf
	}
	return req
}

type ConnectionStatus struct {
	Interface  string `json:"interface"`
	ESSID      string `json:"essid"`
	Mode       string `json:"mode"`
	AccessPt   string `json:"accessPoint"`
	Linked     bool   `json:"linked"`
	Gateway    bool   `json:"gateway"`
	Redirected bool   `json:"redirected"`
}

type InterfaceInfo struct {
	Interface string `json:"interface"`
	NiceName  string `json:"niceName"`
	ESSID     string `json:"essid,omitempty"`
	Address   string `json:"address"`
}

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidSecret      = errors.New("invalid secret")
	ErrSupplicantConfig   = errors.New("failed to write supplicant configuration")
	ErrAssociationTimeout = errors.New("timed out waiting for association")
	ErrAddressAcquisition = errors.New("failed to acquire an address")
	ErrStepFailed         = errors.New("connection step failed")
	ErrNoCachedNetwork    = errors.New("no cached network")
	ErrNoNetworks         = errors.New("no wireless networks found")
)

type NetworkConnector interface {
	Connect(ctx context.Context, req ConnectionRequest) error
	Disconnect(ctx context.Context, iface string, clearCache bool) error
}

type CredentialCache interface {
	Save(essid string, encryption Encryption, secret string, conf string) error
	Get(essid string) (*CacheEntry, error)
	GetLatest() (*CacheEntry, error)
	Empty() bool
}

type NetworkManager interface {
	GetWirelessInterfaces() ([]string, error)
	IsDevice(iface string) bool
	GetAvailableNetworks(ctx context.Context, iface string, unsecureOnly, firstOnly bool) ([]NetworkSummary, error)
	Connect(ctx context.Context, req ConnectionRequest) error
	Reconnect(ctx context.Context, iface string) error
	Disconnect(ctx context.Context, iface string, clearCache bool) error
	Status(ctx context.Context, iface string) (ConnectionStatus, error)
	NetworkInfo(ctx context.Context) (map[string]InterfaceInfo, error)
	Cache() CredentialCache
}
