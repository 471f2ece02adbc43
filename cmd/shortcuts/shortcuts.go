// Package shortcuts implements the shortcuts command group for managing
// saved crawl targets.
package shortcuts

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/crawldesk/cmd/common"
	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/shortcuts"
)

// Command returns the shortcuts command group.
func Command(opts func() common.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortcuts",
		Short: "Manage saved crawl targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(listCommand(opts))
	cmd.AddCommand(addCommand(opts))
	cmd.AddCommand(removeCommand(opts))
	return cmd
}

func listCommand(opts func() common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved shortcuts",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps(opts())
			if err != nil {
				return err
			}
			defer deps.Log.Sync() //nolint:errcheck

			list := deps.Shortcuts.List()
			if len(list) == 0 {
				fmt.Println("no shortcuts saved")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Site", "Board"})
			for _, sc := range list {
				t.AppendRow(table.Row{sc.Name, sc.Site, sc.Board})
			}
			t.Render()
			return nil
		},
	}
}

func addCommand(opts func() common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <site> <board>",
		Short: "Save a crawl target under a name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			site := job.ParseSite(args[1])
			if site == "" {
				return fmt.Errorf("unknown site %q", args[1])
			}

			deps, err := common.NewDeps(opts())
			if err != nil {
				return err
			}
			defer deps.Log.Sync() //nolint:errcheck

			if err := deps.Shortcuts.Add(shortcuts.Shortcut{
				Name:  args[0],
				Site:  site,
				Board: args[2],
			}); err != nil {
				return err
			}
			fmt.Printf("saved %s\n", args[0])
			return nil
		},
	}
}

func removeCommand(opts func() common.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a saved shortcut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps(opts())
			if err != nil {
				return err
			}
			defer deps.Log.Sync() //nolint:errcheck

			if err := deps.Shortcuts.Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", args[0])
			return nil
		},
	}
}
