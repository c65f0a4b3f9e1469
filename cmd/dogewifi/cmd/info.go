package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List interfaces that have an address",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		info, err := networkManager().NetworkInfo(ctx)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(info))
		for name := range info {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			i := info[name]
			fmt.Printf("%-10s %-16s %s\n", i.Interface, i.Address, i.NiceName)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
