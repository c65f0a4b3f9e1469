package network_wifi

import (
	"context"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/sirupsen/logrus"
)

type WifiScanner interface {
	Scan(ctx context.Context, networkInterface string) (map[string]dogewifi.ScanCell, error)
}

func NewWifiScanner(config dogewifi.Config, log logrus.FieldLogger, runner utils.CommandRunner) WifiScanner {
	return NewIWListScanner(log, runner, utils.Budget{
		Interval: config.Timing.ScanInterval,
		Timeout:  config.Timing.ScanBudget,
	})
}
