// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package pipeline wires the bronze, silver, gold and quality stages into
// the commands exposed by the dataflix CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/bronze"
	"github.com/joaoVMiguez/DataFlix/internal/checkpoint"
	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/gold"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
	"github.com/joaoVMiguez/DataFlix/internal/quality"
	"github.com/joaoVMiguez/DataFlix/internal/silver"
	"github.com/joaoVMiguez/DataFlix/internal/tmdb"
)

// Commands.
const (
	CmdIngest          = "ingest"
	CmdSilverMovieLens = "silver-movielens"
	CmdExtractTMDB     = "extract-tmdb"
	CmdExtractCredits  = "extract-credits"
	CmdSilverTMDB      = "silver-tmdb"
	CmdGoldMovieLens   = "gold-movielens"
	CmdGoldTMDB        = "gold-tmdb"
	CmdValidate        = "validate"
	CmdAll             = "all"
)

// Commands lists every command in the order CmdAll runs them.
var Commands = []string{
	CmdIngest,
	CmdSilverMovieLens,
	CmdExtractTMDB,
	CmdExtractCredits,
	CmdSilverTMDB,
	CmdGoldMovieLens,
	CmdGoldTMDB,
	CmdValidate,
}

// ErrQualityFailed is returned by validate when a layer has error issues
// and quality.fail_on_error is set.
var ErrQualityFailed = errors.New("data quality validation failed")

// ErrNoTMDBClient is returned by the extraction commands when no TMDB client is configured.
var ErrNoTMDBClient = errors.New("TMDB client not configured")

// Deps are the shared resources a Pipeline runs against.
type Deps struct {
	DB    *database.DB
	Store objectstore.Store
	Codec *database.ParquetCodec
	// API may be nil when only non-extraction commands are run.
	API tmdb.API
	// OpenCheckpoint defaults to checkpoint.Open with the configured backend.
	OpenCheckpoint func(job string) (checkpoint.Store, func() error, error)
}

// Pipeline runs DataFlix commands.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
}

// New creates a Pipeline.
func New(cfg *config.Config, deps Deps) *Pipeline {
	if deps.OpenCheckpoint == nil {
		cpCfg := cfg.Checkpoint
		deps.OpenCheckpoint = func(job string) (checkpoint.Store, func() error, error) {
			return checkpoint.Open(cpCfg, job)
		}
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Run executes command. opts only affects the extraction commands.
func (p *Pipeline) Run(ctx context.Context, command string, opts bronze.RunOptions) error {
	if command == CmdAll {
		for _, c := range Commands {
			if err := p.Run(ctx, c, opts); err != nil {
				return fmt.Errorf("%s: %w", c, err)
			}
		}
		return nil
	}

	fn, ok := map[string]func(context.Context, bronze.RunOptions) error{
		CmdIngest:          p.ingest,
		CmdSilverMovieLens: p.silverMovieLens,
		CmdExtractTMDB:     p.extractMovies,
		CmdExtractCredits:  p.extractCredits,
		CmdSilverTMDB:      p.silverTMDB,
		CmdGoldMovieLens:   p.goldMovieLens,
		CmdGoldTMDB:        p.goldTMDB,
		CmdValidate:        p.validate,
	}[command]
	if !ok {
		return fmt.Errorf("unknown command %q (want one of %s, %s)", command, strings.Join(Commands, ", "), CmdAll)
	}

	ctx = logging.ContextWithStage(logging.ContextWithNewCorrelationID(ctx), command)
	log := logging.Ctx(ctx)
	log.Info().Msg("Stage started")

	start := time.Now()
	err := fn(ctx, opts)
	elapsed := time.Since(start)
	metrics.RecordStage(command, elapsed, err)

	if err != nil {
		log.Error().Err(err).Dur("duration", elapsed).Msg("Stage failed")
		return err
	}
	log.Info().Dur("duration", elapsed).Msg("Stage finished")
	return nil
}

func (p *Pipeline) ingest(ctx context.Context, _ bronze.RunOptions) error {
	_, err := bronze.IngestMovieLens(ctx, p.deps.Store, p.cfg.ObjectStore.BronzeMovieLensBucket,
		p.cfg.MovieLens.SourceDir, p.cfg.MovieLens.Files)
	return err
}

func (p *Pipeline) silverMovieLens(ctx context.Context, _ bronze.RunOptions) error {
	_, err := silver.NewMovieLensStage(p.deps.DB, p.deps.Store, p.cfg.ObjectStore.BronzeMovieLensBucket, p.cfg.Load).Run(ctx)
	return err
}

func (p *Pipeline) extraction() (*bronze.Extraction, error) {
	if p.deps.API == nil {
		return nil, ErrNoTMDBClient
	}
	return &bronze.Extraction{
		Config:         p.cfg.Extract,
		Bucket:         p.cfg.ObjectStore.BronzeTMDBBucket,
		Store:          p.deps.Store,
		API:            p.deps.API,
		Codec:          p.deps.Codec,
		OpenCheckpoint: p.deps.OpenCheckpoint,
	}, nil
}

func (p *Pipeline) extractMovies(ctx context.Context, opts bronze.RunOptions) error {
	x, err := p.extraction()
	if err != nil {
		return err
	}
	refs, err := bronze.LoadMovieRefs(ctx, p.deps.DB, opts.ItemLimit(p.cfg.Extract.TestLimit))
	if err != nil {
		return err
	}
	_, err = x.Movies(ctx, refs, opts)
	return err
}

func (p *Pipeline) extractCredits(ctx context.Context, opts bronze.RunOptions) error {
	x, err := p.extraction()
	if err != nil {
		return err
	}
	_, err = x.Credits(ctx, opts)
	return err
}

func (p *Pipeline) silverTMDB(ctx context.Context, _ bronze.RunOptions) error {
	_, err := silver.NewTMDBStage(p.deps.DB, p.deps.Store, p.deps.Codec, p.cfg.ObjectStore.BronzeTMDBBucket,
		p.cfg.Extract.MoviesPrefix, p.cfg.Extract.WorkDir, p.cfg.Load).Run(ctx)
	return err
}

func (p *Pipeline) goldMovieLens(ctx context.Context, _ bronze.RunOptions) error {
	_, err := gold.NewMovieLensStage(p.deps.DB, p.cfg.Load).Run(ctx)
	return err
}

func (p *Pipeline) goldTMDB(ctx context.Context, _ bronze.RunOptions) error {
	_, err := gold.NewTMDBStage(p.deps.DB, p.cfg.Load).Run(ctx)
	return err
}

func (p *Pipeline) validate(ctx context.Context, _ bronze.RunOptions) error {
	reports, err := quality.NewValidator(p.deps.DB, p.cfg.Quality).ValidateAll(ctx)
	if err != nil {
		return err
	}
	failed := slices.DeleteFunc(slices.Clone(reports), func(r *quality.Report) bool { return r.Passed })
	if len(failed) == 0 {
		return nil
	}
	layers := make([]string, len(failed))
	for i, r := range failed {
		layers[i] = r.Layer
	}
	if p.cfg.Quality.FailOnError {
		return fmt.Errorf("%w: %s", ErrQualityFailed, strings.Join(layers, ", "))
	}
	logging.Ctx(ctx).Warn().Strs("layers", layers).Msg("Validation reported errors")
	return nil
}
