// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package bronze

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/joaoVMiguez/DataFlix/internal/checkpoint"
	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
	"github.com/joaoVMiguez/DataFlix/internal/tmdb"
)

// Job names, also used as checkpoint names and metric labels.
const (
	MoviesJob  = "tmdb_movies"
	CreditsJob = "tmdb_credits"
)

// RunOptions are the per-invocation choices made on the command line.
type RunOptions struct {
	Mode  Mode
	Turbo bool
	// Limit caps the number of items; 0 uses the mode default.
	Limit int
}

// ItemLimit returns the number of items to process, 0 meaning all.
func (o RunOptions) ItemLimit(testLimit int) int {
	if o.Limit > 0 {
		return o.Limit
	}
	if o.Mode == ModeTest {
		return testLimit
	}
	return 0
}

// Extraction runs the TMDB extraction jobs against one bucket.
type Extraction struct {
	Config config.ExtractConfig
	Bucket string
	Store  objectstore.Store
	API    tmdb.API
	Codec  *database.ParquetCodec

	// OpenCheckpoint returns the checkpoint store of the named job and a closer.
	OpenCheckpoint func(job string) (checkpoint.Store, func() error, error)
}

// Movies extracts TMDB movie details for refs.
func (x *Extraction) Movies(ctx context.Context, refs []MovieRef, opts RunOptions) (*Stats, error) {
	ex := NewMoviesExtractor(x.API, x.Codec, x.Store, x.Bucket, x.Config.MoviesPrefix, x.Config.WorkDir)
	return run(ctx, x, MoviesJob, x.Config.MoviesPrefix, ex, refs, opts)
}

// Credits extracts cast and crew for every movie present in the movies batches.
func (x *Extraction) Credits(ctx context.Context, opts RunOptions) (*Stats, error) {
	refs, err := ExtractedMovieRefs(ctx, x.Codec, x.Store, x.Bucket, x.Config.MoviesPrefix, x.Config.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("load extracted movies: %w", err)
	}
	if limit := opts.ItemLimit(x.Config.CreditsTestLimit); limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	ex := NewCreditsExtractor(x.API, x.Codec, x.Store, x.Bucket, x.Config.CreditsPrefix, x.Config.WorkDir)
	return run(ctx, x, CreditsJob, x.Config.CreditsPrefix, ex, refs, opts)
}

func run[R any](ctx context.Context, x *Extraction, name, prefix string, ex Extractor[R], refs []MovieRef, opts RunOptions) (*Stats, error) {
	log := logging.WithComponent("bronze")
	if err := x.Store.EnsureBucket(ctx, x.Bucket); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", x.Bucket, err)
	}

	manifestKey := ManifestKey(prefix)
	first := 1
	if opts.Mode == ModeRetryFailed {
		ids, err := ReadManifest(ctx, x.Store, x.Bucket, manifestKey)
		if errors.Is(err, objectstore.ErrNotFound) {
			log.Info().Str("job", name).Msg("No failure manifest, nothing to retry")
			return &Stats{Job: name}, nil
		}
		if err != nil {
			return nil, err
		}
		refs = FilterRefs(refs, ids)
		name += "_retry"
		if len(refs) == 0 {
			log.Info().Str("job", name).Int("manifest_ids", len(ids)).Msg("No failed items to retry")
			return &Stats{Job: name}, nil
		}
	}

	cps, closeCP, err := x.OpenCheckpoint(name)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer func() {
		if err := closeCP(); err != nil {
			log.Warn().Err(err).Msg("Failed to close checkpoint store")
		}
	}()

	switch opts.Mode {
	case ModeReset:
		if err := cps.Clear(ctx); err != nil {
			return nil, fmt.Errorf("reset checkpoint: %w", err)
		}
		log.Info().Str("job", name).Msg("Checkpoint cleared")
	case ModeResume:
		saved, err := cps.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if saved == nil {
			log.Warn().Str("job", name).Msg("No checkpoint found, starting from the beginning")
		}
	case ModeRetryFailed:
		// Appended batches keep the numbering of an interrupted retry run
		saved, err := cps.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if saved != nil && len(saved.CompletedBatches) > 0 {
			first = slices.Min(saved.CompletedBatches)
		} else if ex.BatchKey(1) != "" {
			if first, err = NextBatchNumber(ctx, x.Store, x.Bucket, prefix); err != nil {
				return nil, err
			}
		}
	}

	workers := x.Config.Workers
	if opts.Turbo {
		workers = x.Config.TurboWorkers
	}

	job := NewJob(JobConfig{
		Name:           name,
		BatchSize:      x.Config.BatchSize,
		Workers:        workers,
		ItemTimeout:    x.Config.ItemTimeout,
		SaveAttempts:   x.Config.SaveAttempts,
		SaveRetryDelay: x.Config.SaveRetryDelay,
		FirstBatch:     first,
		Resume:         opts.Mode.resumes(),
		SkipExisting:   opts.Mode.skipsExisting(),
		ManifestKey:    manifestKey,
	}, ex, x.Store, x.Bucket, cps)

	log.Info().
		Str("job", name).
		Str("mode", string(opts.Mode)).
		Bool("turbo", opts.Turbo).
		Int("items", len(refs)).
		Int("first_batch", first).
		Msg("Starting TMDB extraction")
	return job.Run(ctx, refs)
}
