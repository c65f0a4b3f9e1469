package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var reconnectInterface string

var reconnectCmd = &cobra.Command{
	Use:   "reconnect",
	Short: "Connect to the last network that was connected successfully",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRoot(); err != nil {
			return err
		}

		ctx, cancel := cmdContext()
		defer cancel()

		iface := pickInterface(reconnectInterface)
		if err := networkManager().Reconnect(ctx, iface); err != nil {
			return err
		}
		color.Green("Reconnected on %s", iface)
		return nil
	},
}

func init() {
	interfaceFlag(reconnectCmd, &reconnectInterface)
	rootCmd.AddCommand(reconnectCmd)
}
