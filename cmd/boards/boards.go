// Package boards implements the boards command: look up board
// suggestions for a site.
package boards

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/crawldesk/cmd/common"
	"github.com/jonesrussell/crawldesk/internal/job"
)

// Command returns the boards command.
func Command(opts func() common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "boards <site> [keyword]",
		Short: "Look up board suggestions for a site",
		Long: `Query board autocomplete for a site. With no keyword, sites that have
a default listing (like Lemmy's popular communities) show it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			site := job.ParseSite(args[0])
			if site == "" {
				return fmt.Errorf("unknown site %q", args[0])
			}
			keyword := ""
			if len(args) == 2 {
				keyword = args[1]
			}

			deps, err := common.NewDeps(opts())
			if err != nil {
				return err
			}
			defer deps.Log.Sync() //nolint:errcheck

			suggestions := deps.Suggest.Lookup(cmd.Context(), site, keyword)
			if len(suggestions) == 0 {
				fmt.Println("no suggestions")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Board", "Label", "Description"})
			for _, s := range suggestions {
				t.AppendRow(table.Row{s.Value, s.Label, s.Description})
			}
			t.Render()
			return nil
		},
	}
}
