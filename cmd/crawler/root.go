package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawler",
		Short: "Scrape code-hosting search results into a JSON report",
		Long: `crawler queries a code-hosting site's web search through a randomly chosen
HTTP proxy, extracts the result URLs and, for repository searches, each
repository's owner and language breakdown.

Configuration is read from environment variables and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("env-file", ".env", "Path to an optional .env configuration file")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewServeCmd())

	return cmd
}
