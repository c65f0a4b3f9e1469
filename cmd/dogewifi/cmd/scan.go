package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	network_wifi "github.com/dogeorg/dogewifi/pkg/system/network/wifi"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scanInterface string
	scanUnsecure  bool
	scanFirst     bool
	scanFixture   string
	scanJSON      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List nearby wireless networks, strongest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			networks []dogewifi.NetworkSummary
			err      error
		)

		if scanFixture != "" {
			networks, err = scanFromFile(scanFixture)
		} else {
			ctx, cancel := cmdContext()
			defer cancel()
			networks, err = networkManager().GetAvailableNetworks(ctx, pickInterface(scanInterface), scanUnsecure, scanFirst)
		}
		if err != nil {
			return err
		}

		if scanJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(networks)
		}

		if len(networks) == 0 {
			color.Yellow("No wireless networks found")
			return nil
		}
		printNetworks(networks)
		return nil
	},
}

// scanFromFile summarises saved `iwlist scan` output.
func scanFromFile(path string) ([]dogewifi.NetworkSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cells, err := network_wifi.ParseIWListOutput(string(data))
	if err != nil {
		return nil, err
	}
	return network_wifi.BuildSummary(cells, scanUnsecure, scanFirst)
}

func printNetworks(networks []dogewifi.NetworkSummary) {
	bold := color.New(color.Bold)
	bold.Printf("%-32s %-8s %-8s %-8s %s\n", "ESSID", "CHANNEL", "SIGNAL", "QUALITY", "ENCRYPTION")

	for _, n := range networks {
		enc := color.New(color.FgRed)
		switch n.Encryption {
		case dogewifi.EncryptionOff:
			enc = color.New(color.FgGreen)
		case dogewifi.EncryptionWEP:
			enc = color.New(color.FgYellow)
		}
		fmt.Printf("%-32s %-8s %-8s %-8s %s\n", n.ESSID, n.Channel, n.Signal, n.Quality, enc.Sprint(n.Encryption))
	}
}

func init() {
	interfaceFlag(scanCmd, &scanInterface)
	scanCmd.Flags().BoolVar(&scanUnsecure, "unsecure", false, "Only list open networks")
	scanCmd.Flags().BoolVar(&scanFirst, "first", false, "Only list the strongest network")
	scanCmd.Flags().StringVar(&scanFixture, "fixture", "", "Read iwlist scan output from a file instead of scanning")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print networks as JSON")
	rootCmd.AddCommand(scanCmd)
}
