// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package main is the entry point for the dataflix pipeline CLI.
//
// DataFlix moves MovieLens and TMDB data through a medallion warehouse:
//
//  1. Bronze: raw MovieLens CSVs and TMDB API extractions land in the object store
//  2. Silver: cleaned, deduplicated tables are loaded into DuckDB
//  3. Gold: analytical aggregates are computed from silver
//  4. Validate: advisory data quality checks run against every layer
//
// # Usage
//
//	dataflix [flags] <command>
//
// Commands run one stage each; "all" runs every stage in order:
//
//	ingest, silver-movielens, extract-tmdb, extract-credits,
//	silver-tmdb, gold-movielens, gold-tmdb, validate, all
//
// Extraction mode flags (test mode is the default and caps the item count):
//
//	--full          process every movie, skipping batches already written
//	--resume        continue from the saved checkpoint
//	--reset         ignore the checkpoint and overwrite existing batches
//	--retry-failed  re-extract only the ids recorded in the failure manifest
//	--turbo         use the larger worker pool
//	--limit N       process at most N movies
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (TMDB_API_KEY, DUCKDB_PATH, OBJECT_STORE_BACKEND, ...)
//   - Config file (--config, CONFIG_PATH or ./config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running stage. Extraction finishes its
// checkpoint before exiting so the run can be continued with --resume.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joaoVMiguez/DataFlix/internal/bronze"
	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
	"github.com/joaoVMiguez/DataFlix/internal/pipeline"
	"github.com/joaoVMiguez/DataFlix/internal/tmdb"
)

type cliOptions struct {
	configPath string
	command    string
	run        bronze.RunOptions
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		logging.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := logging.GenerateRunID()
	ctx = logging.ContextWithLogger(ctx, logging.Logger().With().Str("run_id", runID).Logger())
	log := logging.Ctx(ctx)

	log.Info().
		Str("command", opts.command).
		Str("mode", string(opts.run.Mode)).
		Bool("turbo", opts.run.Turbo).
		Int("limit", opts.run.Limit).
		Str("objectstore", cfg.ObjectStore.Backend).
		Msg("Starting DataFlix")

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()
	log.Info().Str("path", db.GetDatabasePath()).Msg("Database initialized")

	store, err := objectstore.New(cfg.ObjectStore)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize object store")
		return 1
	}

	codec, err := database.NewParquetCodec()
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize parquet codec")
		return 1
	}
	defer func() {
		if err := codec.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing parquet codec")
		}
	}()

	api, err := newTMDBClient(cfg, opts.command)
	if err != nil {
		log.Error().Err(err).Msg("TMDB client unavailable")
		return 1
	}

	p := pipeline.New(cfg, pipeline.Deps{DB: db, Store: store, Codec: codec, API: api})
	runErr := p.Run(ctx, opts.command, opts.run)

	if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		log.Warn().Err(err).Str("path", cfg.Metrics.TextfilePath).Msg("Failed to write metrics textfile")
	}

	switch {
	case runErr == nil:
		log.Info().Msg("DataFlix finished")
		return 0
	case errors.Is(runErr, bronze.ErrInterrupted), errors.Is(runErr, context.Canceled):
		log.Warn().Msg("Interrupted; continue with --resume")
		return 130
	default:
		log.Error().Err(runErr).Msg("DataFlix failed")
		return 1
	}
}

// newTMDBClient returns nil when the command needs no TMDB access and no key is set.
func newTMDBClient(cfg *config.Config, command string) (tmdb.API, error) {
	needed := slices.Contains([]string{pipeline.CmdExtractTMDB, pipeline.CmdExtractCredits, pipeline.CmdAll}, command)
	if err := cfg.RequireTMDB(); err != nil {
		if needed {
			return nil, err
		}
		return nil, nil
	}

	var api tmdb.API = tmdb.NewClient(cfg.TMDB)
	if cfg.TMDB.CircuitBreaker {
		api = tmdb.NewCircuitBreakerClient(api, tmdb.DefaultBreakerSettings())
	}
	return api, nil
}

func parseArgs(args []string) (cliOptions, error) {
	var opts cliOptions
	var full, resume, reset, retry, turbo bool
	var limit int

	fs := flag.NewFlagSet("dataflix", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml")
	fs.BoolVar(&full, "full", false, "process every movie")
	fs.BoolVar(&resume, "resume", false, "continue from the saved checkpoint")
	fs.BoolVar(&reset, "reset", false, "ignore the checkpoint and overwrite existing batches")
	fs.BoolVar(&retry, "retry-failed", false, "re-extract the ids in the failure manifest")
	fs.BoolVar(&turbo, "turbo", false, "use the turbo worker pool")
	fs.IntVar(&limit, "limit", 0, "maximum number of movies to extract (0 = mode default)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: dataflix [flags] <command>\n\ncommands: %v, %s\n\nflags:\n",
			pipeline.Commands, pipeline.CmdAll)
		fs.PrintDefaults()
	}
	// flags may appear before or after the command
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return opts, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if len(positional) != 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected exactly one command, got %d", len(positional))
	}
	opts.command = positional[0]
	if opts.command != pipeline.CmdAll && !slices.Contains(pipeline.Commands, opts.command) {
		return opts, fmt.Errorf("unknown command %q", opts.command)
	}
	if limit < 0 {
		return opts, fmt.Errorf("--limit must be >= 0, got %d", limit)
	}

	mode := bronze.ModeTest
	selected := 0
	for _, m := range []struct {
		set  bool
		mode bronze.Mode
	}{
		{full, bronze.ModeFull},
		{resume, bronze.ModeResume},
		{reset, bronze.ModeReset},
		{retry, bronze.ModeRetryFailed},
	} {
		if m.set {
			mode = m.mode
			selected++
		}
	}
	if selected > 1 {
		return opts, errors.New("--full, --resume, --reset and --retry-failed are mutually exclusive")
	}

	opts.run = bronze.RunOptions{Mode: mode, Turbo: turbo, Limit: limit}
	return opts, nil
}
