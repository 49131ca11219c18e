package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "navhist",
		Short: "Navigation history bridge server",
		Long: `navhist serves browser navigation history to server-side trackers.

Each WebSocket connection gets its own history timeline: programmatic
navigation is pushed to the client as binary frames, and browser
back/forward traversal flows back as pop-state frames. Timelines can be
persisted across reconnects to memory or S3.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
