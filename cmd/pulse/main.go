package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/hpungsan/pulse/internal/acquire"
	"github.com/hpungsan/pulse/internal/config"
	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/db"
	"github.com/hpungsan/pulse/internal/mcp"
	"github.com/hpungsan/pulse/internal/provider"
	"github.com/hpungsan/pulse/internal/query"
	"github.com/hpungsan/pulse/internal/ranking"
	"github.com/hpungsan/pulse/internal/search"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"query": true, "acquire": true, "topics": true, "status": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___  __  __/ /__ ___
  / _ \/ / / / / _ ' -_)
 / .__/\_,_/_/_/___/___/
/_/

  Health transcript search

  Usage: pulse <command> [options]
         pulse --help

  MCP server mode requires piped input.`)
}

// baseDir returns the Pulse data directory (PULSE_HOME or ~/.pulse).
func baseDir() (string, error) {
	if dir := os.Getenv("PULSE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".pulse"), nil
}

// deps bundles everything the CLI and MCP surfaces share.
type deps struct {
	db           *sql.DB
	cfg          *config.Config
	resolver     *search.Resolver
	orchestrator *acquire.Orchestrator
	usage        *ranking.UsageTracker
}

// buildDeps opens the store, seeds topics, and wires the pipeline.
func buildDeps(dir string) (*deps, error) {
	database, err := db.Init(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		database.Close()
		return nil, err
	}
	db.ConfigurePool(database, cfg)

	topics, err := corpus.LoadTopics(dir)
	if err != nil {
		database.Close()
		return nil, err
	}
	ctx := context.Background()
	if err := db.SeedTopics(ctx, database, topics); err != nil {
		database.Close()
		return nil, err
	}
	seeded, err := db.ListTopics(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}

	logger := log.New(os.Stderr, "pulse: ", log.LstdFlags)

	// External ranking is optional; the local heuristic covers its absence
	usage := &ranking.UsageTracker{}
	var ranker ranking.Ranker = ranking.Heuristic{}
	if cfg.RankingBaseURL != "" {
		client, err := ranking.NewClient(ranking.Config{
			BaseURL:   cfg.RankingBaseURL,
			APIKeyEnv: cfg.RankingAPIKeyEnv,
			Model:     cfg.RankingModel,
		}, usage)
		if err != nil {
			logger.Printf("ranking client unavailable, using local heuristic: %v", err)
		} else {
			ranker = client
		}
	}

	// Shared with the orchestrator so transcript rewrites invalidate it
	cache := search.NewSegmentCache(cfg.TranscriptCacheSize)

	resolver := &search.Resolver{
		DB:     database,
		Index:  query.NewIndex(seeded),
		Ranker: ranker,
		Cache:  cache,
		Logger: logger,
	}

	// Acquisition needs a configured provider; query-only setups skip it
	var orchestrator *acquire.Orchestrator
	if cfg.ProviderBaseURL != "" {
		client, err := provider.NewHTTPClient(provider.Config{
			BaseURL:   cfg.ProviderBaseURL,
			APIKeyEnv: cfg.ProviderAPIKeyEnv,
		})
		if err != nil {
			logger.Printf("provider unavailable, acquisition disabled: %v", err)
		} else {
			orchestrator = &acquire.Orchestrator{
				DB:       database,
				Provider: client,
				Pacer: acquire.IntervalPacer{
					Item:  cfg.ItemDelay(),
					Batch: cfg.BatchDelay(),
				},
				Cache:  cache,
				Logger: logger,
			}
		}
	}

	return &deps{
		db:           database,
		cfg:          cfg,
		resolver:     resolver,
		orchestrator: orchestrator,
		usage:        usage,
	}, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// .env is optional; real env vars win
	_ = godotenv.Load()

	dir, err := baseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pulse: %v\n", err)
		os.Exit(1)
	}

	d, err := buildDeps(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pulse: %v\n", err)
		os.Exit(1)
	}
	defer d.db.Close()

	// Warn about unknown disabled tool/type names
	logger := log.New(os.Stderr, "pulse: ", log.LstdFlags)
	for _, name := range mcp.ValidateDisabledTools(d.cfg.DisabledTools) {
		logger.Printf("unknown tool in disabled_tools: %s", name)
	}
	for _, name := range mcp.ValidateDisabledTypes(d.cfg.DisabledTypes) {
		logger.Printf("unknown type in disabled_types: %s", name)
	}

	if isCLIMode() {
		app := newCLIApp(d)
		if err := app.Run(os.Args); err != nil {
			os.Exit(1)
		}
		return
	}

	handlers := mcp.NewHandlers(d.db, d.cfg, d.resolver, d.orchestrator, d.usage)
	if err := mcp.Run(handlers, d.cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "pulse: MCP server error: %v\n", err)
		os.Exit(1)
	}
}
