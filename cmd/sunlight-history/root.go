package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sunlight-history",
		Short: "Historical sunrise and sunset lookups",
		Long: "sunlight-history resolves sunrise, sunset and golden hour times for a location and date range,\n" +
			"fetching from the upstream provider once and serving every later lookup from storage.",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(
		newServeCmd(),
		newResolveCmd(),
		newShowCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sunlight-history %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
