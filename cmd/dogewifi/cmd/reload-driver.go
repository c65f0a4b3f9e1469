package cmd

import (
	"github.com/dogeorg/dogewifi/pkg/system/network"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	driverVendor  string
	driverProduct string
	driverModule  string
)

var reloadDriverCmd = &cobra.Command{
	Use:   "reload-driver",
	Short: "Reload the kernel module of a USB wireless dongle",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRoot(); err != nil {
			return err
		}

		ctx, cancel := cmdContext()
		defer cancel()

		reloaded, err := networkManager().ReloadDriver(ctx, driverVendor, driverProduct, driverModule)
		if err != nil {
			return err
		}
		if reloaded {
			color.Green("Reloaded %s", driverModule)
		} else {
			color.Yellow("Device %s:%s not found, nothing reloaded", driverVendor, driverProduct)
		}
		return nil
	},
}

func init() {
	reloadDriverCmd.Flags().StringVar(&driverVendor, "vendor", network.DefaultDriverVendor, "USB vendor ID")
	reloadDriverCmd.Flags().StringVar(&driverProduct, "product", network.DefaultDriverProduct, "USB product ID")
	reloadDriverCmd.Flags().StringVar(&driverModule, "module", network.DefaultDriverModule, "Kernel module to reload")
	rootCmd.AddCommand(reloadDriverCmd)
}
