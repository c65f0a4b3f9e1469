package cmd

import (
	"fmt"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	network_persistor "github.com/dogeorg/dogewifi/pkg/system/network/persistor"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cacheShowKey bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the remembered network",
}

func credentialCache() dogewifi.CredentialCache {
	return network_persistor.NewCredentialCache(logger, config.Supplicant.CachePath)
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [essid]",
	Short: "Show the cached network, optionally only if it is essid",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := credentialCache()

		var (
			entry *dogewifi.CacheEntry
			err   error
		)
		if len(args) == 1 {
			entry, err = cache.Get(args[0])
		} else {
			entry, err = cache.GetLatest()
		}
		if err != nil {
			return err
		}
		if entry == nil {
			color.Yellow("No cached network")
			return nil
		}

		fmt.Printf("ESSID:      %s\n", entry.ESSID)
		fmt.Printf("Encryption: %s\n", entry.Encryption)
		if cacheShowKey {
			fmt.Printf("Key:        %s\n", entry.Secret)
		}
		if entry.Conf != nil {
			fmt.Printf("Config:     %s\n", *entry.Conf)
		}
		return nil
	},
}

var cacheEmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Forget the cached network",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRoot(); err != nil {
			return err
		}
		if credentialCache().Empty() {
			color.Green("Cache emptied")
		} else {
			color.Yellow("Cache was already empty")
		}
		return nil
	},
}

func init() {
	cacheShowCmd.Flags().BoolVar(&cacheShowKey, "show-key", false, "Print the cached key in clear")
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheEmptyCmd)
	rootCmd.AddCommand(cacheCmd)
}
