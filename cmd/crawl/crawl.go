// Package crawl implements the crawl command: run one session against
// the backend and render its results.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/crawldesk/cmd/common"
	"github.com/jonesrussell/crawldesk/internal/export"
	"github.com/jonesrussell/crawldesk/internal/i18n"
	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/results"
	"github.com/jonesrussell/crawldesk/internal/session"
)

// flags holds the crawl command's flag values.
type flags struct {
	site        string
	board       string
	sort        string
	window      string
	fromDate    string
	toDate      string
	startRank   int
	endRank     int
	minViews    int
	minLikes    int
	minComments int
	language    string
	advanced    bool

	exportFormat string
	exportDir    string
	media        bool
}

// Command returns the crawl command.
func Command(opts func() common.Options) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "crawl [shortcut]",
		Short: "Run a crawl session and show its results",
		Long: `Run one crawl session: connect to the backend, stream progress, and
render the collected posts. A saved shortcut name can seed the site and
board; flags override it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps(opts())
			if err != nil {
				return err
			}
			defer deps.Log.Sync() //nolint:errcheck

			if len(args) == 1 {
				sc, err := deps.Shortcuts.Get(args[0])
				if err != nil {
					return fmt.Errorf("shortcut %q: %w", args[0], err)
				}
				deps.Jobs.Set(job.Patch{Site: &sc.Site, Board: &sc.Board})
			}
			if err := applyFlags(cmd, &f, deps); err != nil {
				return err
			}

			return run(cmd.Context(), &f, deps)
		},
	}

	cmd.Flags().StringVar(&f.site, "site", "", "target site (reddit, dcinside, blind, bbc, lemmy, universal)")
	cmd.Flags().StringVar(&f.board, "board", "", "board, community, or URL to crawl")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort order (site-specific, defaults to the site's first option)")
	cmd.Flags().StringVar(&f.window, "time", "", "time window (hour, day, week, month, year, all, custom)")
	cmd.Flags().StringVar(&f.fromDate, "from", "", "custom range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.toDate, "to", "", "custom range end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.startRank, "start", 0, "first rank to collect")
	cmd.Flags().IntVar(&f.endRank, "end", 0, "last rank to collect")
	cmd.Flags().IntVar(&f.minViews, "min-views", 0, "drop posts below this view count")
	cmd.Flags().IntVar(&f.minLikes, "min-likes", 0, "drop posts below this like count")
	cmd.Flags().IntVar(&f.minComments, "min-comments", 0, "drop posts below this comment count")
	cmd.Flags().StringVar(&f.language, "lang", "", "message language (ko, en, ja)")
	cmd.Flags().BoolVar(&f.advanced, "advanced", false, "enable advanced collection mode")

	cmd.Flags().StringVar(&f.exportFormat, "export", "", "export results after the crawl (xlsx or csv)")
	cmd.Flags().StringVar(&f.exportDir, "out", "", "directory for exported files (default from config)")
	cmd.Flags().BoolVar(&f.media, "media", false, "request a media archive after the crawl")

	return cmd
}

// applyFlags patches the job store with every flag the user set.
func applyFlags(cmd *cobra.Command, f *flags, deps *common.Deps) error {
	var p job.Patch

	if cmd.Flags().Changed("site") {
		site := job.ParseSite(f.site)
		if site == "" {
			return fmt.Errorf("unknown site %q", f.site)
		}
		p.Site = &site
	}
	if cmd.Flags().Changed("board") {
		p.Board = &f.board
	}
	if cmd.Flags().Changed("sort") {
		p.SortKey = &f.sort
	}
	if cmd.Flags().Changed("time") {
		w := job.TimeWindow(f.window)
		p.TimeWindow = &w
	}
	if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
		start, err := time.Parse("2006-01-02", f.fromDate)
		if err != nil {
			return fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
		}
		end, err := time.Parse("2006-01-02", f.toDate)
		if err != nil {
			return fmt.Errorf("--to must be YYYY-MM-DD: %w", err)
		}
		w := job.WindowCustom
		p.TimeWindow = &w
		p.CustomRange = &job.DateRange{Start: start, End: end}
	}
	if cmd.Flags().Changed("start") {
		p.RankStart = &f.startRank
	}
	if cmd.Flags().Changed("end") {
		p.RankEnd = &f.endRank
	}
	if cmd.Flags().Changed("min-views") {
		p.MinViews = &f.minViews
	}
	if cmd.Flags().Changed("min-likes") {
		p.MinLikes = &f.minLikes
	}
	if cmd.Flags().Changed("min-comments") {
		p.MinComments = &f.minComments
	}
	if cmd.Flags().Changed("lang") {
		p.UILanguage = &f.language
	}
	if cmd.Flags().Changed("advanced") {
		p.Advanced = &f.advanced
	}

	deps.Jobs.Set(p)
	return nil
}

// run drives one session to a terminal state, then renders and exports.
func run(ctx context.Context, f *flags, deps *common.Deps) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pw := progress.NewWriter()
	pw.SetOutputWriter(os.Stdout)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetAutoStop(false)
	tracker := &progress.Tracker{
		Message: deps.Tr.T("crawlingStatus.connecting", map[string]any{
			"site": deps.Jobs.Get().Site.Label(),
		}),
		Total: 100,
		Units: progress.UnitsDefault,
	}
	pw.AppendTracker(tracker)
	go pw.Render()
	defer pw.Stop()

	outcome := make(chan session.Outcome, 1)
	deps.Sessions.OnProgress(func(p session.Progress) {
		tracker.SetValue(int64(p.Percent))
		tracker.UpdateMessage(statusLine(deps.Tr, p))
	})
	deps.Sessions.OnTerminal(func(out session.Outcome) {
		select {
		case outcome <- out:
		default:
		}
	})

	if err := deps.Sessions.Start(ctx); err != nil {
		var failure *session.Failure
		if errors.As(err, &failure) {
			return errors.New(failure.Localize(deps.Tr))
		}
		return err
	}

	var out session.Outcome
	select {
	case out = <-outcome:
	case <-ctx.Done():
		deps.Sessions.Cancel()
		select {
		case out = <-outcome:
		case <-time.After(5 * time.Second):
			return ctx.Err()
		}
	}

	switch out.State {
	case session.StateCompleted:
		tracker.SetValue(100)
		tracker.MarkAsDone()
	case session.StateCancelled:
		tracker.MarkAsErrored()
		pw.Stop()
		fmt.Println(deps.Tr.T("errors.cancelled", nil))
		return nil
	default:
		tracker.MarkAsErrored()
		pw.Stop()
		if out.Failure != nil {
			return errors.New(out.Failure.Localize(deps.Tr))
		}
		return errors.New(deps.Tr.T("errors.general", nil))
	}
	pw.Stop()

	rs, ok := deps.Results.Get()
	if !ok {
		return errors.New(deps.Tr.T("errors.general", nil))
	}
	renderResults(rs)
	fmt.Println(deps.Tr.T("crawlingStatus.completed", map[string]any{
		"count":   rs.Summary.Count,
		"elapsed": rs.Summary.ElapsedSeconds,
	}))

	return exportResults(ctx, f, deps, rs)
}

// statusLine renders the tracker message for a progress update. Before
// an ETA exists the line carries the calculating placeholder instead.
func statusLine(tr *i18n.Translator, p session.Progress) string {
	msg := p.StatusText(tr)
	if p.ETASeconds >= 0 {
		return fmt.Sprintf("%s (%s)", msg,
			tr.T("crawlingStatus.eta", map[string]any{"seconds": p.ETASeconds}))
	}
	return fmt.Sprintf("%s (%s)", msg, tr.T("crawlingStatus.calculating", nil))
}

// renderResults prints the collected posts as a table.
func renderResults(rs results.ResultSet) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rank", "Title", "Views", "Likes", "Comments", "Published"})
	for _, p := range rs.Posts {
		title := p.Title
		if p.TranslatedTitle != "" {
			title = p.TranslatedTitle
		}
		t.AppendRow(table.Row{p.Rank, title, p.Views, p.Likes, p.Comments, p.PublishedAt})
	}
	t.Render()
}

// exportResults honors the --export and --media flags.
func exportResults(ctx context.Context, f *flags, deps *common.Deps, rs results.ResultSet) error {
	dir := f.exportDir
	if dir == "" {
		dir = deps.Cfg.Export.Dir
	}

	if f.exportFormat != "" {
		exporter := export.NewSpreadsheetExporter(deps.Sessions, deps.Log)
		res, err := exporter.Export(rs, dir, export.Format(f.exportFormat))
		if err != nil {
			return err
		}
		if res.FellBack {
			fmt.Println(deps.Tr.T("export.csvFallback", nil))
		}
		fmt.Println(deps.Tr.T("export.success", map[string]any{
			"count": rs.Summary.Count,
			"file":  res.Path,
		}))
	}

	if f.media {
		site := deps.Jobs.Get().Site
		exporter := export.NewMediaExporter(deps.Endpoints.HTTPBase, deps.Sessions, deps.Log)
		if !exporter.Supports(ctx, site) {
			fmt.Println(deps.Tr.T("export.mediaUnsupported", map[string]any{"site": site.Label()}))
			return nil
		}
		exporter.OnStage = func(s export.Stage) {
			fmt.Println(deps.Tr.T(stageKey(s), nil))
		}
		res, err := exporter.Export(ctx, rs, site, export.DefaultMediaOptions())
		if err != nil {
			var me *export.MediaError
			if errors.As(err, &me) {
				return errors.New(deps.Tr.T(me.Key, nil))
			}
			return err
		}
		path, err := exporter.Download(ctx, res, dir)
		if err != nil {
			return err
		}
		fmt.Println(deps.Tr.T("export.mediaSuccess", map[string]any{
			"files": res.Files,
			"size":  res.SizeMB,
		}))
		if res.Failed > 0 {
			fmt.Println(deps.Tr.T("export.mediaPartial", map[string]any{"failed": res.Failed}))
		}
		fmt.Println(path)
	}
	return nil
}

// stageKey maps a media export stage to its status message key.
func stageKey(s export.Stage) string {
	switch s {
	case export.StageCollecting:
		return "export.mediaCollecting"
	case export.StageCompressing:
		return "export.mediaCompressing"
	default:
		return "export.mediaReady"
	}
}
