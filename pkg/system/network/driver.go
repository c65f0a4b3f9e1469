package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// The Kano wireless dongle, a Ralink RT5370.
const (
	DefaultDriverVendor  = "148f"
	DefaultDriverProduct = "5370"
	DefaultDriverModule  = "rt2800usb"

	driverSettle = 500 * time.Millisecond
	moduleSettle = 5 * time.Second
)

// ReloadDriver terminates the supplicant and, when the USB device is
// present, reloads its kernel module. It reports whether it reloaded.
func (t *NetworkManagerLinux) ReloadDriver(ctx context.Context, vendor, product, module string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	log := t.log.WithFields(logrus.Fields{"device": vendor + ":" + product, "module": module})

	if _, err := t.runner.Run(ctx, "wpa_cli", "-p", t.config.Supplicant.CtrlDir, "terminate"); err != nil {
		log.WithError(err).Debug("wpa_cli terminate failed")
	}
	if err := t.clock.Sleep(ctx, driverSettle); err != nil {
		return false, err
	}

	if _, err := t.runner.Run(ctx, "lsusb", "-d", vendor+":"+product); err != nil {
		log.Info("Device not present, leaving the driver alone")
		return false, nil
	}

	_, rmErr := t.runner.Run(ctx, "rmmod", module)
	if err := t.clock.Sleep(ctx, driverSettle); err != nil {
		return false, err
	}
	_, probeErr := t.runner.Run(ctx, "modprobe", module)
	if err := t.clock.Sleep(ctx, moduleSettle); err != nil {
		return false, err
	}

	if err := errors.Join(rmErr, probeErr); err != nil {
		return false, fmt.Errorf("failed to reload %s: %w", module, err)
	}
	log.Info("Reloaded wireless driver")
	return true, nil
}
