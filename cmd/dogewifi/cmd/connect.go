package cmd

import (
	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	connectInterface  string
	connectEncryption string
	connectKey        string
	connectConf       string
)

var connectCmd = &cobra.Command{
	Use:   "connect [essid]",
	Short: "Associate with a wireless network and request an address",
	Long: `Associate with a wireless network and request an address over DHCP.

WEP keys are 5, 13 or 58 characters, or 10, 26 or 116 hex digits.
WPA passphrases are 8 to 63 characters. Prefix a key with "hex" to
pass it through untouched. With --conf the given wpa_supplicant
configuration is used as is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRoot(); err != nil {
			return err
		}

		enc, err := dogewifi.ParseEncryption(connectEncryption)
		if err != nil {
			return err
		}

		req := dogewifi.ConnectionRequest{
			Interface:        pickInterface(connectInterface),
			Encryption:       enc,
			Secret:           connectKey,
			CustomConfigPath: connectConf,
		}
		if len(args) == 1 {
			req.ESSID = args[0]
		}

		ctx, cancel := cmdContext()
		defer cancel()

		if err := networkManager().Connect(ctx, req); err != nil {
			return err
		}
		color.Green("Connected to %s on %s", req.ESSID, req.Interface)
		return nil
	},
}

func init() {
	interfaceFlag(connectCmd, &connectInterface)
	connectCmd.Flags().StringVarP(&connectEncryption, "encryption", "e", "off", "Encryption: off, wep or wpa")
	connectCmd.Flags().StringVarP(&connectKey, "key", "k", "", "WEP key or WPA passphrase")
	connectCmd.Flags().StringVar(&connectConf, "conf", "", "Use this wpa_supplicant configuration file")
	rootCmd.AddCommand(connectCmd)
}
