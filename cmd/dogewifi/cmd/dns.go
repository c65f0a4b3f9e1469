package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dnsCmd = &cobra.Command{
	Use:   "dns",
	Short: "Manage resolvconf nameservers",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return requireRoot()
	},
}

var dnsSetCmd = &cobra.Command{
	Use:   "set <server>...",
	Short: "Write nameservers to the resolvconf base file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := networkManager().DNS().SetDNS(args); err != nil {
			return err
		}
		color.Green("Nameservers set, run `dogewifi dns refresh` to apply")
		return nil
	},
}

var dnsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Ignore nameservers handed out by DHCP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return networkManager().DNS().ClearDNSInterfaces()
	},
}

var dnsRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Use nameservers handed out by DHCP again",
	RunE: func(cmd *cobra.Command, args []string) error {
		return networkManager().DNS().RestoreDNSInterfaces()
	},
}

var dnsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Regenerate resolv.conf",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()
		return networkManager().DNS().RefreshResolvconf(ctx)
	},
}

func init() {
	dnsCmd.AddCommand(dnsSetCmd, dnsClearCmd, dnsRestoreCmd, dnsRefreshCmd)
	rootCmd.AddCommand(dnsCmd)
}
