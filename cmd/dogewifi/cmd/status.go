package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	statusInterface string
	statusEthernet  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the associated network and internet reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		nm := networkManager()
		iface := pickInterface(statusInterface)
		if !nm.IsDevice(iface) {
			color.Yellow("No wireless device %s", iface)
		}

		status, err := nm.Status(ctx, iface)
		if err != nil {
			return err
		}

		fmt.Printf("Interface:    %s\n", status.Interface)
		fmt.Printf("ESSID:        %s\n", status.ESSID)
		fmt.Printf("Access point: %s\n", status.AccessPt)
		fmt.Printf("Mode:         %s\n", status.Mode)
		fmt.Printf("Gateway:      %s\n", yesNo(status.Gateway))
		fmt.Printf("Internet:     %s\n", yesNo(status.Linked))
		if status.Redirected {
			color.Yellow("Traffic is being redirected, a captive portal may need a login")
		}
		if statusEthernet != "" {
			fmt.Printf("Ethernet:     %s plugged %s\n", statusEthernet, yesNo(nm.IsEthernetPlugged(statusEthernet)))
		}
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}

func init() {
	interfaceFlag(statusCmd, &statusInterface)
	statusCmd.Flags().StringVar(&statusEthernet, "ethernet", "eth0", "Also report whether this wired interface is plugged, empty to skip")
	rootCmd.AddCommand(statusCmd)
}
