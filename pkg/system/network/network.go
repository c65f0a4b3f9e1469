package network

import (
	dogewifi "github.com/dogeorg/dogewifi/pkg"
	network_connector "github.com/dogeorg/dogewifi/pkg/system/network/connector"
	network_persistor "github.com/dogeorg/dogewifi/pkg/system/network/persistor"
	network_wifi "github.com/dogeorg/dogewifi/pkg/system/network/wifi"
	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/sirupsen/logrus"
)

func NewNetworkManager(config dogewifi.Config, log logrus.FieldLogger) *NetworkManagerLinux {
	runner := utils.NewExecRunner(log)
	cache := network_persistor.NewCredentialCache(log, config.Supplicant.CachePath)

	return &NetworkManagerLinux{
		config:    config,
		log:       log.WithField("component", "network"),
		runner:    runner,
		scanner:   network_wifi.NewWifiScanner(config, log, runner),
		connector: network_connector.NewNetworkConnector(config, log, runner, cache),
		cache:     cache,
		probe:     NewInternetProbe(log, config.InternetProbe, config.Timing.InternetProbeTime),
		dns:       NewDNSManager(log, config.DNS, runner),
		clock:     utils.RealClock{},
		sysRoot:   "/sys/class/net",
		procRoot:  "/proc",
	}
}
