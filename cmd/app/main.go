package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notamaton/internal"
	pkgconfig "github.com/starford/notamaton/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := internal.NewDefaultConfig()

	if configPath := cmd.String("config"); configPath != "" {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Flags override config file values.
	if vaultPath := cmd.Args().First(); vaultPath != "" {
		cfg.Vault.Path = vaultPath
	}
	if cmd.IsSet("taxonomy") {
		cfg.Taxonomy.Path = cmd.String("taxonomy")
	}
	if cmd.IsSet("min-confidence") {
		cfg.Analyzer.MinConfidence = cmd.Float("min-confidence")
	}
	if cmd.IsSet("cache") {
		cfg.Cache.Path = cmd.String("cache")
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithMode(cmd.String("mode")),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "notamaton",
		Usage:     "Classify Markdown vault notes against a subject taxonomy, with a human approval gate before any metadata is committed",
		ArgsUsage: "<vault-path>",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "taxonomy",
				Aliases: []string{"t"},
				Usage:   "Path to the taxonomy YAML document",
				Sources: cli.EnvVars("NOTAMATON_TAXONOMY"),
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Run mode: " + strings.Join(internal.Modes, ", "),
				Value:   internal.ModeAnalyze,
				Sources: cli.EnvVars("NOTAMATON_MODE"),
			},
			&cli.FloatFlag{
				Name:  "min-confidence",
				Usage: "Minimum classification confidence for a proposal (0..1)",
				Value: 0.3,
			},
			&cli.StringFlag{
				Name:    "cache",
				Usage:   "Path to the SQLite analysis cache (empty disables caching)",
				Sources: cli.EnvVars("NOTAMATON_CACHE"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose (debug) logging",
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to an optional config file",
				DefaultText: "none",
				Sources:     cli.EnvVars("NOTAMATON_CONFIG_FILE"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
