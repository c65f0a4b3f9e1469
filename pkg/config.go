package dogewifi

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName tags log files and journal entries.
	AppName           = "dogewifi"
	DefaultConfigPath = "/etc/dogewifi.yaml"
)

type ServerConfig struct {
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
	Verbose bool   `yaml:"verbose"`
	// bearer token for POST/DELETE routes, regenerated on every start
	TokenFile string `yaml:"token_file"`
	// browser origins other than the daemon itself that may call the API
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	LogLevel    string `yaml:"log_level"`
	OutputLevel string `yaml:"output_level"`
	LogDir      string `yaml:"log_dir"`
	Journal     bool   `yaml:"journal"`
}

type SupplicantConfig struct {
	ConfPath  string `yaml:"conf_path"`
	LogPath   string `yaml:"log_path"`
	CtrlDir   string `yaml:"ctrl_dir"`
	Drivers   string `yaml:"drivers"`
	DHCPHook  string `yaml:"dhcp_hook"`
	Country   string `yaml:"country"`
	CachePath string `yaml:"cache_path"`
}

type TimingConfig struct {
	ScanBudget        time.Duration `yaml:"scan_budget"`
	ScanInterval      time.Duration `yaml:"scan_interval"`
	AssocTimeout      time.Duration `yaml:"assoc_timeout"`
	AssocInterval     time.Duration `yaml:"assoc_interval"`
	DisconnectSettle  time.Duration `yaml:"disconnect_settle"`
	InternetProbeTime time.Duration `yaml:"internet_probe_timeout"`
}

type DNSConfig struct {
	BaseFile            string `yaml:"base_file"`
	InterfaceOrder      string `yaml:"interface_order"`
	InterfaceOrderSaved string `yaml:"interface_order_backup"`
}

type Config struct {
	Interface     string           `yaml:"interface"`
	InternetProbe string           `yaml:"internet_probe"`
	Server        ServerConfig     `yaml:"server"`
	Log           LogConfig        `yaml:"log"`
	Supplicant    SupplicantConfig `yaml:"supplicant"`
	Timing        TimingConfig     `yaml:"timing"`
	DNS           DNSConfig        `yaml:"dns"`
}

func DefaultConfig() Config {
	return Config{
		Interface:     "wlan0",
		InternetProbe: "http://www.google.com",
		Server: ServerConfig{
			Bind:      "127.0.0.1",
			Port:      8090,
			TokenFile: "/run/dogewifi/api-token",
		},
		Log: LogConfig{
			LogLevel:    "none",
			OutputLevel: "none",
			LogDir:      "/var/log/dogewifi",
			Journal:     true,
		},
		Supplicant: SupplicantConfig{
			ConfPath:  "/etc/dogewifi_wpa_connect.conf",
			LogPath:   "/var/log/dogewifi_wpa.log",
			CtrlDir:   "/var/run/wpa_supplicant",
			Drivers:   "nl80211,wext",
			DHCPHook:  "/etc/udhcpc/dogewifi.script",
			CachePath: "/etc/dogewifi-cache.conf",
		},
		Timing: TimingConfig{
			ScanBudget:        5 * time.Second,
			ScanInterval:      200 * time.Millisecond,
			AssocTimeout:      20 * time.Second,
			AssocInterval:     500 * time.Millisecond,
			DisconnectSettle:  3 * time.Second,
			InternetProbeTime: 10 * time.Second,
		},
		DNS: DNSConfig{
			BaseFile:            "/etc/resolvconf/resolv.conf.d/base",
			InterfaceOrder:      "/etc/resolvconf/interface-order",
			InterfaceOrderSaved: "/etc/resolvconf/interface-order.backup",
		},
	}
}

// LoadConfig overlays the YAML file at path on the defaults. A missing
// file is not an error. LOG_LEVEL and OUTPUT_LEVEL win over the file;
// WIFI_COUNTRY only fills in a country the file leaves empty.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return config, fmt.Errorf("cannot read config %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return config, fmt.Errorf("cannot parse config %q: %w", path, err)
			}
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Log.LogLevel = v
	}
	if v := os.Getenv("OUTPUT_LEVEL"); v != "" {
		config.Log.OutputLevel = v
	}
	if v := os.Getenv("WIFI_COUNTRY"); v != "" && config.Supplicant.Country == "" {
		config.Supplicant.Country = v
	}

	return config, nil
}
