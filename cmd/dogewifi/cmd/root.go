package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/logging"
	"github.com/dogeorg/dogewifi/pkg/system/network"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const appName = dogewifi.AppName

var (
	configPath  string
	logLevel    string
	outputLevel string

	config dogewifi.Config
	logger *logging.Logging
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "dogewifi scans for and connects to wireless networks",
	Long: `dogewifi scans for wireless networks and drives wpa_supplicant and udhcpc
to associate with one, remembering the last network it connected to.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = dogewifi.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			config.Log.LogLevel = logLevel
		}
		if outputLevel != "" {
			config.Log.OutputLevel = outputLevel
		}

		logger, err = logging.New(logging.Options{
			App:         appName,
			LogDir:      config.Log.LogDir,
			LogLevel:    config.Log.LogLevel,
			OutputLevel: config.Log.OutputLevel,
			Journal:     config.Log.Journal,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		color.Red("Error: %s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", dogewifi.DefaultConfigPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Level written to the log file: none, error, warning, info or debug")
	rootCmd.PersistentFlags().StringVar(&outputLevel, "output-level", "", "Level written to stderr: none, error, warning, info or debug")
}

// cmdContext is cancelled on SIGINT or SIGTERM.
func cmdContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func networkManager() *network.NetworkManagerLinux {
	return network.NewNetworkManager(config, logger)
}

// requireRoot stops commands that reconfigure the system early.
func requireRoot() error {
	if syscall.Geteuid() != 0 {
		return fmt.Errorf("%s must be run as root", rootCmd.Name())
	}
	return nil
}

func interfaceFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "interface", "i", "", "Wireless interface (default from config)")
}

func pickInterface(flag string) string {
	if flag != "" {
		return flag
	}
	return config.Interface
}
