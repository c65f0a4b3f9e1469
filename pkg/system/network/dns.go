package network

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/sirupsen/logrus"
)

// DNSManager edits resolvconf's inputs. Clearing the interface order
// file stops DHCP supplied servers from overriding the base file.
type DNSManager struct {
	log    logrus.FieldLogger
	config dogewifi.DNSConfig
	runner utils.CommandRunner
}

func NewDNSManager(log logrus.FieldLogger, config dogewifi.DNSConfig, runner utils.CommandRunner) *DNSManager {
	return &DNSManager{
		log:    log.WithField("component", "dns"),
		config: config,
		runner: runner,
	}
}

func (d *DNSManager) SetDNS(servers []string) error {
	lines := make([]string, 0, len(servers))
	for _, s := range servers {
		if net.ParseIP(s) == nil {
			return fmt.Errorf("invalid nameserver address %q", s)
		}
		lines = append(lines, "nameserver "+s)
	}

	if err := os.WriteFile(d.config.BaseFile, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.config.BaseFile, err)
	}
	d.log.WithField("servers", servers).Info("Set nameservers")
	return nil
}

// ClearDNSInterfaces moves the interface order aside and leaves an
// empty one in its place. Clearing twice keeps the first backup.
func (d *DNSManager) ClearDNSInterfaces() error {
	if _, err := os.Stat(d.config.InterfaceOrderSaved); err == nil {
		return nil
	}

	if err := os.Rename(d.config.InterfaceOrder, d.config.InterfaceOrderSaved); err != nil {
		return fmt.Errorf("failed to back up %s: %w", d.config.InterfaceOrder, err)
	}
	if err := os.WriteFile(d.config.InterfaceOrder, nil, 0644); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", d.config.InterfaceOrder, err)
	}
	return nil
}

func (d *DNSManager) RestoreDNSInterfaces() error {
	err := os.Rename(d.config.InterfaceOrderSaved, d.config.InterfaceOrder)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (d *DNSManager) RefreshResolvconf(ctx context.Context) error {
	_, err := d.runner.Run(ctx, "resolvconf", "-u")
	return err
}
