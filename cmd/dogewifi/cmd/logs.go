package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dogeorg/dogewifi/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	logsApp     string
	logsCleanup bool
	logsJournal bool
	logsFollow  bool
	logsLines   uint64
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print or trim dogewifi logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if logsCleanup {
			if err := logging.Cleanup(config.Log.LogDir, logsApp, logging.TailLength); err != nil {
				return err
			}
			color.Green("Trimmed logs to %d lines", logging.TailLength)
			return nil
		}

		if logsJournal {
			return printJournal()
		}
		if logsFollow {
			return followLogFile()
		}

		logs, err := logging.ReadLogs(config.Log.LogDir, logsApp)
		if err != nil {
			return err
		}

		paths := make([]string, 0, len(logs))
		for p := range logs {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			color.New(color.Bold).Println(p)
			for _, record := range logs[p] {
				fmt.Printf("%v %-7v %v\n", record["time"], record["level"], record["message"])
			}
		}
		return nil
	},
}

func printJournal() error {
	if !logsFollow {
		messages, err := logging.ReadJournal(appName, logsLines)
		if err != nil {
			return err
		}
		for _, m := range messages {
			fmt.Println(m)
		}
		return nil
	}

	ctx, cancel := cmdContext()
	defer cancel()

	messages, err := logging.FollowJournal(ctx, appName, logsLines)
	if err != nil {
		return err
	}
	for m := range messages {
		fmt.Println(m)
	}
	return nil
}

func followLogFile() error {
	ctx, cancel := cmdContext()
	defer cancel()

	lines, err := logging.FollowFile(ctx, filepath.Join(config.Log.LogDir, appName+".log"))
	if err != nil {
		return err
	}
	for l := range lines {
		fmt.Println(l)
	}
	return nil
}

func init() {
	logsCmd.Flags().StringVar(&logsApp, "app", appName, "Only logs of this app, empty for all")
	logsCmd.Flags().BoolVar(&logsCleanup, "cleanup", false, "Trim logs instead of printing them")
	logsCmd.Flags().BoolVar(&logsJournal, "journal", false, "Read from the systemd journal")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Keep printing new log entries")
	logsCmd.Flags().Uint64VarP(&logsLines, "lines", "n", 50, "Journal entries to show")
	rootCmd.AddCommand(logsCmd)
}
