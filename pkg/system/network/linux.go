package network

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	network_connector "github.com/dogeorg/dogewifi/pkg/system/network/connector"
	network_wifi "github.com/dogeorg/dogewifi/pkg/system/network/wifi"
	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/sirupsen/logrus"
)

var _ dogewifi.NetworkManager = &NetworkManagerLinux{}

// Connector is the sequencer as seen by the manager.
type Connector interface {
	dogewifi.NetworkConnector
	SetObserver(network_connector.Observer)
}

type NetworkManagerLinux struct {
	config    dogewifi.Config
	log       logrus.FieldLogger
	runner    utils.CommandRunner
	scanner   network_wifi.WifiScanner
	connector Connector
	cache     dogewifi.CredentialCache
	probe     *InternetProbe
	dns       *DNSManager
	clock     utils.Clock

	sysRoot  string
	procRoot string

	// one association at a time per process
	mu sync.Mutex
}

func (t *NetworkManagerLinux) Cache() dogewifi.CredentialCache {
	return t.cache
}

func (t *NetworkManagerLinux) DNS() *DNSManager {
	return t.dns
}

func (t *NetworkManagerLinux) SetStateObserver(o network_connector.Observer) {
	t.connector.SetObserver(o)
}

// GetWirelessInterfaces asks nl80211 for station interfaces and falls
// back to wlan* entries of /proc/net/dev on kernels without it.
func (t *NetworkManagerLinux) GetWirelessInterfaces() ([]string, error) {
	names, err := network_wifi.WirelessInterfaces()
	if err == nil {
		return names, nil
	}
	t.log.WithError(err).Debug("nl80211 unavailable, reading /proc/net/dev")

	devices, perr := t.procNetDevices()
	if perr != nil {
		return nil, errors.Join(err, perr)
	}
	names = []string{}
	for _, d := range devices {
		if strings.HasPrefix(d, "wlan") {
			names = append(names, d)
		}
	}
	return names, nil
}

func (t *NetworkManagerLinux) IsDevice(iface string) bool {
	devices, err := t.procNetDevices()
	if err != nil {
		t.log.WithError(err).Warn("Could not read network devices")
		return false
	}
	for _, d := range devices {
		if d == iface {
			return true
		}
	}
	return false
}

func (t *NetworkManagerLinux) procNetDevices() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(t.procRoot, "net", "dev"))
	if err != nil {
		return nil, err
	}

	devices := []string{}
	for _, line := range strings.Split(string(data), "\n") {
		name, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		devices = append(devices, strings.TrimSpace(name))
	}
	return devices, nil
}

func (t *NetworkManagerLinux) IsEthernetPlugged(iface string) bool {
	data, err := os.ReadFile(filepath.Join(t.sysRoot, iface, "operstate"))
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(string(data)), "up")
}

func (t *NetworkManagerLinux) GetAvailableNetworks(ctx context.Context, iface string, unsecureOnly, firstOnly bool) ([]dogewifi.NetworkSummary, error) {
	cells, err := t.scanner.Scan(ctx, iface)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for wifi networks on %s: %w", iface, err)
	}
	return network_wifi.BuildSummary(cells, unsecureOnly, firstOnly)
}

// Connect associates and, on success, remembers the credentials for
// Reconnect. A failing cache write does not fail the connection.
func (t *NetworkManagerLinux) Connect(ctx context.Context, req dogewifi.ConnectionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.connector.Connect(ctx, req); err != nil {
		return err
	}

	enc := req.Encryption
	if enc == "" {
		enc = dogewifi.EncryptionOff
	}
	if err := t.cache.Save(req.ESSID, enc, req.Secret, req.CustomConfigPath); err != nil {
		t.log.WithError(err).Warn("Connected but could not cache credentials")
	}
	return nil
}

func (t *NetworkManagerLinux) Reconnect(ctx context.Context, iface string) error {
	entry, err := t.cache.GetLatest()
	if err != nil {
		return err
	}
	if entry == nil {
		return dogewifi.ErrNoCachedNetwork
	}

	t.log.WithField("essid", entry.ESSID).Info("Reconnecting to cached network")
	return t.Connect(ctx, entry.ConnectionRequest(iface))
}

func (t *NetworkManagerLinux) Disconnect(ctx context.Context, iface string, clearCache bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.connector.Disconnect(ctx, iface, clearCache)
}
