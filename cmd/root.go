// Package cmd implements the crawldesk command-line interface: an
// operator console for the remote crawl backend.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/crawldesk/cmd/boards"
	"github.com/jonesrussell/crawldesk/cmd/common"
	"github.com/jonesrussell/crawldesk/cmd/crawl"
	"github.com/jonesrussell/crawldesk/cmd/serve"
	cmdshortcuts "github.com/jonesrussell/crawldesk/cmd/shortcuts"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "crawldesk",
		Short: "Operator console for the crawl backend",
		Long: `crawldesk drives the remote web-scraping backend: configure a crawl,
stream its progress, inspect results, and export them as a spreadsheet
or media archive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./crawldesk.yaml or ~/.config/crawldesk/crawldesk.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("crawldesk version %s\n", Version)
		},
	})

	rootCmd.AddCommand(crawl.Command(options))
	rootCmd.AddCommand(boards.Command(options))
	rootCmd.AddCommand(cmdshortcuts.Command(options))
	rootCmd.AddCommand(serve.Command(serveOptions))
}

// options builds the dependency options for interactive commands.
func options() common.Options {
	return common.Options{CfgFile: cfgFile, Debug: debug, ConsoleLog: true}
}

// serveOptions keeps JSON logs for the long-running server.
func serveOptions() common.Options {
	return common.Options{CfgFile: cfgFile, Debug: debug}
}
