package network_wifi

import (
	"fmt"

	"github.com/mdlayher/wifi"
)

type LinkInfo struct {
	SSID      string
	BSSID     string
	Frequency int
}

// WirelessInterfaces lists nl80211 station interfaces.
func WirelessInterfaces() ([]string, error) {
	wifiClient, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("could not init a wifi interface client: %w", err)
	}
	defer wifiClient.Close()

	wifiInterfaces, err := wifiClient.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("could not list wifi interfaces: %w", err)
	}

	names := []string{}
	for _, wifiInterface := range wifiInterfaces {
		// phy devices without a netdev have no name
		if wifiInterface.Name == "" || wifiInterface.Type != wifi.InterfaceTypeStation {
			continue
		}
		names = append(names, wifiInterface.Name)
	}
	return names, nil
}

// CurrentLink reports the BSS the interface is associated with.
func CurrentLink(name string) (LinkInfo, error) {
	wifiClient, err := wifi.New()
	if err != nil {
		return LinkInfo{}, fmt.Errorf("could not init a wifi interface client: %w", err)
	}
	defer wifiClient.Close()

	wifiInterfaces, err := wifiClient.Interfaces()
	if err != nil {
		return LinkInfo{}, fmt.Errorf("could not list wifi interfaces: %w", err)
	}

	for _, wifiInterface := range wifiInterfaces {
		if wifiInterface.Name != name {
			continue
		}
		bss, err := wifiClient.BSS(wifiInterface)
		if err != nil {
			return LinkInfo{}, fmt.Errorf("no BSS for %s: %w", name, err)
		}
		return LinkInfo{
			SSID:      bss.SSID,
			BSSID:     bss.BSSID.String(),
			Frequency: bss.Frequency,
		}, nil
	}

	return LinkInfo{}, fmt.Errorf("interface %s is not a wireless interface", name)
}
