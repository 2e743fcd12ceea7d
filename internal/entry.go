// Package internal provides the main application initialization and
// run-mode dispatch.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notamaton/internal/analyzer"
	"github.com/starford/notamaton/internal/classifier"
	"github.com/starford/notamaton/internal/index"
	"github.com/starford/notamaton/internal/mcpserver"
	"github.com/starford/notamaton/internal/taxonomy"
	"github.com/starford/notamaton/internal/vault"
	"github.com/starford/notamaton/internal/watch"
)

// Run executes the selected mode with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeAnalyze}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logger on stderr: stdout stays clean for the MCP
	// stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("mode", app.mode),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("taxonomy_path", cfg.Taxonomy.Path),
		slog.Float64("min_confidence", cfg.Analyzer.MinConfidence),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Taxonomy failures and a missing vault are fatal: abort before any
	// document is touched.
	idx, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	logger.Info("taxonomy loaded",
		slog.Int("targets", idx.Len()),
		slog.Int("areas", len(idx.Areas())))

	store, err := vault.NewFS(cfg.Vault.Path, discoveryIgnore(cfg))
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	cls := classifier.New(idx, cfg.Analyzer.ClassifierConfig())

	var cache index.Cache
	if cfg.Cache.Path != "" {
		db, err := index.Open(cfg.Cache.Path)
		if err != nil {
			logger.Warn("cache unavailable, classifying from scratch", slog.String("error", err.Error()))
		} else {
			cache = db
			defer db.Close()
		}
	}

	a := analyzer.New(store, idx, cls, cache, logger, cfg.Analyzer.LedgerFile, cfg.Analyzer.ReportFile)

	switch app.mode {
	case ModeAnalyze, ModeFeedback:
		_, err := a.Analyze(ctx)
		return err

	case ModeProcess:
		_, err := a.Process(ctx)
		return err

	case ModeReport:
		_, err := a.Report(ctx)
		return err

	case ModeWatch:
		return runWatch(ctx, a, cfg, logger)

	case ModeMCP:
		logger.Info("starting MCP server on stdio")
		return mcpserver.New(a).ServeStdio()

	default:
		return fmt.Errorf("unknown mode %q (choose one of %s)", app.mode, strings.Join(Modes, ", "))
	}
}

// runWatch performs an initial analysis pass, then re-analyzes on vault
// changes until interrupted.
func runWatch(ctx context.Context, a *analyzer.Analyzer, cfg *Config, logger *slog.Logger) error {
	if _, err := a.Analyze(ctx); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gCtx, a, cfg.Vault.Path, watchSkipList(cfg), logger)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
			return context.Canceled
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("watch stopped")
	return nil
}

// discoveryIgnore extends the configured ignore globs with the analyzer's
// own vault files so they are never classified.
func discoveryIgnore(cfg *Config) []string {
	return append(append([]string{}, cfg.Vault.Ignore...),
		cfg.Analyzer.LedgerFile,
		cfg.Analyzer.ReportFile,
		"*.processed.md",
	)
}

// watchSkipList names the files whose change events must not retrigger
// analysis (the analyzer writes them itself).
func watchSkipList(cfg *Config) []string {
	return []string{
		cfg.Analyzer.LedgerFile,
		cfg.Analyzer.ReportFile,
		strings.TrimSuffix(cfg.Analyzer.LedgerFile, ".md") + ".processed.md",
	}
}
