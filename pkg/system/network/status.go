package network

import (
	"context"
	"regexp"
	"strings"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	network_wifi "github.com/dogeorg/dogewifi/pkg/system/network/wifi"
)

var iwconfigESSID = regexp.MustCompile(`ESSID:"(.*)"`)

// Status reports which network iface is on and whether the internet
// is reachable through it. Linked means the internet probe answered.
func (t *NetworkManagerLinux) Status(ctx context.Context, iface string) (dogewifi.ConnectionStatus, error) {
	status := dogewifi.ConnectionStatus{Interface: iface}

	status.ESSID = t.iwgetid(ctx, iface)
	status.AccessPt = t.iwgetid(ctx, iface, "--ap")
	status.Mode = t.iwgetid(ctx, iface, "--mode")
	if status.Mode == "2" {
		status.Mode = "Managed"
	}

	if status.ESSID == "" || status.AccessPt == "" {
		if link, err := network_wifi.CurrentLink(iface); err == nil {
			if status.ESSID == "" {
				status.ESSID = link.SSID
			}
			if status.AccessPt == "" {
				status.AccessPt = link.BSSID
			}
		}
	}

	gateway, err := t.IsGateway(ctx, iface)
	if err != nil {
		return status, err
	}
	status.Gateway = gateway

	status.Linked, status.Redirected = t.probe.Check(ctx)
	return status, nil
}

func (t *NetworkManagerLinux) iwgetid(ctx context.Context, iface string, flags ...string) string {
	args := append([]string{iface, "--raw"}, flags...)
	res, err := t.runner.Run(ctx, "iwgetid", args...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

// IsGateway reports whether the first route is a default route via iface.
func (t *NetworkManagerLinux) IsGateway(ctx context.Context, iface string) (bool, error) {
	res, err := t.runner.Run(ctx, "ip", "route", "show")
	if err != nil {
		return false, err
	}
	return defaultRouteVia(res.Stdout, iface), nil
}

func defaultRouteVia(routes, iface string) bool {
	pattern := regexp.MustCompile(`^default via ([0-9.]*) dev ` + regexp.QuoteMeta(iface) + `\b`)
	return pattern.MatchString(routes)
}

// NetworkInfo lists addressed interfaces from the routing table.
func (t *NetworkManagerLinux) NetworkInfo(ctx context.Context) (map[string]dogewifi.InterfaceInfo, error) {
	res, err := t.runner.Run(ctx, "ip", "route", "show")
	if err != nil {
		return nil, err
	}

	info := ParseRoutes(res.Stdout)
	for name, i := range info {
		if !strings.HasPrefix(name, "wlan") {
			continue
		}
		essid := "Wireless Network"
		if out, err := t.runner.Run(ctx, "iwconfig", name); err == nil {
			if m := iwconfigESSID.FindStringSubmatch(out.Stdout); m != nil {
				essid = m[1]
			}
		}
		i.ESSID = essid
		i.NiceName = "Wireless: " + essid
		info[name] = i
	}
	return info, nil
}

// ParseRoutes reads `ip route show` output into one entry per device
// that has a source address. Default routes are skipped.
func ParseRoutes(routes string) map[string]dogewifi.InterfaceInfo {
	info := map[string]dogewifi.InterfaceInfo{}

	for _, line := range strings.Split(routes, "\n") {
		if line == "" || strings.HasPrefix(line, "default") {
			continue
		}
		dev := fieldAfter(line, "dev")
		src := fieldAfter(line, "src")
		if dev == "" || src == "" {
			continue
		}
		info[dev] = dogewifi.InterfaceInfo{
			Interface: dev,
			NiceName:  "Ethernet",
			Address:   src,
		}
	}
	return info
}

func fieldAfter(line, key string) string {
	fields := strings.Fields(line)
	for i := 0; i < len(fields)-1; i++ {
		if fields[i] == key {
			return fields[i+1]
		}
	}
	return ""
}
