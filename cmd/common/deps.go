// Package common wires the shared dependencies for all crawldesk commands.
package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonesrussell/crawldesk/internal/config"
	"github.com/jonesrussell/crawldesk/internal/i18n"
	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/logger"
	"github.com/jonesrussell/crawldesk/internal/results"
	"github.com/jonesrussell/crawldesk/internal/session"
	"github.com/jonesrussell/crawldesk/internal/shortcuts"
	"github.com/jonesrussell/crawldesk/internal/suggest"
	"github.com/jonesrussell/crawldesk/internal/transport"
)

// Deps bundles everything a command needs.
type Deps struct {
	Cfg       *config.Config
	Log       logger.Logger
	Tr        *i18n.Translator
	Jobs      *job.Store
	Results   *results.Store
	Sessions  *session.Controller
	Suggest   *suggest.Service
	Shortcuts *shortcuts.Store
	Endpoints config.Endpoints
}

// Options tweak dependency construction per command.
type Options struct {
	CfgFile string
	Debug   bool
	// ConsoleLog switches the logger to human-readable output. The
	// interactive commands want this; serve keeps JSON.
	ConsoleLog bool
}

// NewDeps loads configuration and builds the full dependency graph.
func NewDeps(opts Options) (*Deps, error) {
	cfg, err := config.Load(opts.CfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Log
	if opts.Debug {
		logCfg.Level = "debug"
	}
	if opts.ConsoleLog {
		logCfg.Console = true
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	endpoints := cfg.Endpoints()
	jobs := job.NewStore()
	jobs.Set(job.Patch{UILanguage: &cfg.Language})

	store := results.NewStore()
	dialer := transport.New(endpoints.WSBase, endpoints.HTTPBase, log)
	sessions := session.New(jobs, store, dialer, log)

	shortcutStore, err := shortcuts.Open(shortcutsPath())
	if err != nil {
		return nil, err
	}

	return &Deps{
		Cfg:       cfg,
		Log:       log,
		Tr:        i18n.New(i18n.ParseLang(cfg.Language)),
		Jobs:      jobs,
		Results:   store,
		Sessions:  sessions,
		Suggest:   suggest.NewService(endpoints.HTTPBase, log),
		Shortcuts: shortcutStore,
		Endpoints: endpoints,
	}, nil
}

// shortcutsPath is the per-user shortcut file location.
func shortcutsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shortcuts.json"
	}
	return filepath.Join(home, ".config", "crawldesk", "shortcuts.json")
}
