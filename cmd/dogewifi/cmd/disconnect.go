package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	disconnectInterface  string
	disconnectClearCache bool
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Stop wpa_supplicant and reset the wireless interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRoot(); err != nil {
			return err
		}

		ctx, cancel := cmdContext()
		defer cancel()

		iface := pickInterface(disconnectInterface)
		if err := networkManager().Disconnect(ctx, iface, disconnectClearCache); err != nil {
			return err
		}
		color.Green("Disconnected %s", iface)
		return nil
	},
}

func init() {
	interfaceFlag(disconnectCmd, &disconnectInterface)
	disconnectCmd.Flags().BoolVar(&disconnectClearCache, "clear-cache", false, "Also forget the cached network")
	rootCmd.AddCommand(disconnectCmd)
}
