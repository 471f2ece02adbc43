// Package serve implements the serve command: the local console HTTP
// server with the event stream and metrics.
package serve

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/crawldesk/cmd/common"
	"github.com/jonesrussell/crawldesk/internal/httpd"
)

// Command returns the serve command.
func Command(opts func() common.Options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local console API server",
		Long: `Serve the console API: edit the crawl job, start and cancel sessions,
stream progress events, fetch results, and expose Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps(opts())
			if err != nil {
				return err
			}
			defer deps.Log.Sync() //nolint:errcheck

			if addr == "" {
				addr = deps.Cfg.Serve.Addr
			}

			srv := httpd.New(addr, httpd.Deps{
				Jobs:     deps.Jobs,
				Sessions: deps.Sessions,
				Results:  deps.Results,
				Suggest:  deps.Suggest,
				Tr:       deps.Tr,
				Log:      deps.Log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
