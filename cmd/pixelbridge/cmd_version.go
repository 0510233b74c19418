package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/compute-blade-community/pixelbridge/pkg/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdVersion)
}

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// version works without a valid configuration
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), util.PrintKeyValues([]util.KeyValue{
			{Key: "version", Value: orUnknown(Version), Style: util.OkStyle()},
			{Key: "commit", Value: orUnknown(Commit), Style: lipgloss.NewStyle()},
			{Key: "date", Value: orUnknown(Date), Style: lipgloss.NewStyle()},
		}))
	},
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
