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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joaoVMiguez/DataFlix/internal/checkpoint"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
	"github.com/joaoVMiguez/DataFlix/internal/retry"
)

// ErrInterrupted is returned when a run stops because its context was cancelled.
// The checkpoint has been saved and the partial batch discarded.
var ErrInterrupted = errors.New("extraction interrupted")

// Extractor resolves items and persists batches of results.
type Extractor[R any] interface {
	// Extract resolves one item. Errors are absorbed by the job and counted.
	Extract(ctx context.Context, ref MovieRef) (R, error)

	// BatchKey returns the object written for batch n, or "" when the
	// extractor writes one object per item.
	BatchKey(n int) string

	// WriteBatch durably stores the results of batch n.
	WriteBatch(ctx context.Context, n int, results []R) error
}

// ItemSkipper is implemented by extractors that can tell an item was
// already extracted by an earlier run.
type ItemSkipper interface {
	SkipItem(ctx context.Context, ref MovieRef) (bool, error)
}

// JobConfig tunes an extraction Job.
type JobConfig struct {
	Name           string
	BatchSize      int
	Workers        int
	ItemTimeout    time.Duration
	SaveAttempts   int
	SaveRetryDelay time.Duration

	// FirstBatch is the number given to the first batch (1 unless appending).
	FirstBatch int

	// Resume continues from the saved checkpoint.
	Resume bool

	// SkipExisting skips batches whose object is already in the store, and
	// items an ItemSkipper reports as already extracted.
	SkipExisting bool

	// ManifestKey is where the failure manifest is written on completion.
	ManifestKey string
}

// Job runs an Extractor over a list of items in fixed-size batches.
//
// Items of a batch are spread over a bounded worker pool; each worker sends
// its outcome to a single collector that owns every counter. A batch is
// written only after all of its workers finished, then the checkpoint is
// saved before the next batch starts.
type Job[R any] struct {
	cfg    JobConfig
	ex     Extractor[R]
	store  objectstore.Store
	bucket string
	cp     checkpoint.Store
}

// NewJob creates a Job.
func NewJob[R any](cfg JobConfig, ex Extractor[R], store objectstore.Store, bucket string, cp checkpoint.Store) *Job[R] {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 2000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.FirstBatch <= 0 {
		cfg.FirstBatch = 1
	}
	if cfg.SaveAttempts <= 0 {
		cfg.SaveAttempts = 1
	}
	return &Job[R]{cfg: cfg, ex: ex, store: store, bucket: bucket, cp: cp}
}

// outcome is what a worker reports to the collector.
type outcome[R any] struct {
	idx     int
	ref     MovieRef
	result  R
	err     error
	skipped bool
}

// batchResult is the collector's view of a finished batch.
type batchResult[R any] struct {
	results   []R
	failedIDs []int
	skipped   int
}

// Run processes refs and returns the statistics of this run.
func (j *Job[R]) Run(ctx context.Context, refs []MovieRef) (*Stats, error) {
	log := logging.WithComponent("bronze").With().Str("job", j.cfg.Name).Logger()
	stats := &Stats{Job: j.cfg.Name, TotalItems: len(refs), StartTime: time.Now()}
	defer func() { stats.EndTime = time.Now() }()

	cp := checkpoint.New()
	if j.cfg.Resume {
		saved, err := j.cp.Load(ctx)
		if err != nil {
			return stats, fmt.Errorf("load checkpoint: %w", err)
		}
		if saved != nil {
			cp = saved
			log.Info().
				Int("last_batch", cp.LastBatch).
				Int("total_success", cp.TotalSuccess).
				Int("total_errors", cp.TotalErrors).
				Msg("Resuming from checkpoint")
		}
	}

	batches := chunk(refs, j.cfg.BatchSize)
	log.Info().
		Int("items", len(refs)).
		Int("batches", len(batches)).
		Int("batch_size", j.cfg.BatchSize).
		Int("workers", j.cfg.Workers).
		Msg("Starting extraction")

	// attempted holds ids whose outcome this session knows; used to rewrite the manifest
	attempted := make(map[int]struct{}, len(refs))

	for i, batch := range batches {
		n := j.cfg.FirstBatch + i

		if err := ctx.Err(); err != nil {
			stats.Interrupted = true
			return stats, j.interrupt(ctx, cp, err)
		}

		if cp.IsCompleted(n) {
			markAttempted(attempted, batch)
			j.skipBatch(stats, n, len(batch), "checkpoint")
			continue
		}
		if j.cfg.SkipExisting {
			if key := j.ex.BatchKey(n); key != "" {
				exists, err := j.store.Exists(ctx, j.bucket, key)
				if err != nil {
					return stats, fmt.Errorf("check batch %d: %w", n, err)
				}
				if exists {
					j.skipBatch(stats, n, len(batch), "exists")
					continue
				}
			}
		}

		start := time.Now()
		log.Info().Int("batch", n).Int("of", j.cfg.FirstBatch+len(batches)-1).Int("items", len(batch)).Msg("Processing batch")

		br, err := j.runBatch(ctx, batch)
		if err != nil {
			metrics.ExtractBatches.WithLabelValues(j.cfg.Name, "discarded").Inc()
			stats.Interrupted = true
			return stats, j.interrupt(ctx, cp, err)
		}

		if len(br.results) > 0 {
			if err := j.saveBatch(ctx, n, br.results); err != nil {
				if ctx.Err() != nil {
					metrics.ExtractBatches.WithLabelValues(j.cfg.Name, "discarded").Inc()
					stats.Interrupted = true
					return stats, j.interrupt(ctx, cp, ctx.Err())
				}
				j.saveCheckpoint(ctx, cp)
				return stats, fmt.Errorf("save batch %d: %w", n, err)
			}
			stats.BatchesWritten++
			metrics.ExtractBatches.WithLabelValues(j.cfg.Name, "written").Inc()
		} else {
			log.Warn().Int("batch", n).Msg("Batch produced no records, nothing written")
		}

		markAttempted(attempted, batch)
		stats.Success += len(br.results)
		stats.Failed += len(br.failedIDs)
		stats.Skipped += br.skipped

		cp.RecordBatch(n, len(br.results), len(br.failedIDs), br.failedIDs)
		if err := j.cp.Save(context.WithoutCancel(ctx), cp); err != nil {
			return stats, fmt.Errorf("save checkpoint after batch %d: %w", n, err)
		}

		elapsed := time.Since(start)
		metrics.ExtractBatchDuration.WithLabelValues(j.cfg.Name).Observe(elapsed.Seconds())
		log.Info().
			Int("batch", n).
			Int("success", len(br.results)).
			Int("errors", len(br.failedIDs)).
			Int("skipped", br.skipped).
			Dur("duration", elapsed).
			Float64("progress_percent", stats.Progress()).
			Float64("items_per_second", stats.ItemsPerSecond()).
			Int("total_success", cp.TotalSuccess).
			Int("total_errors", cp.TotalErrors).
			Msg("Batch complete")
	}

	if j.cfg.ManifestKey != "" {
		if err := j.updateManifest(ctx, attempted, cp.FailedIDs); err != nil {
			return stats, err
		}
	}
	if err := j.cp.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to clear checkpoint")
	}

	log.Info().
		Int("total", stats.TotalItems).
		Int("success", stats.Success).
		Int("errors", stats.Failed).
		Int("skipped", stats.Skipped).
		Int("batches_written", stats.BatchesWritten).
		Int("batches_skipped", stats.BatchesSkipped).
		Dur("duration", stats.Duration()).
		Msg("Extraction complete")

	return stats, nil
}

// runBatch resolves one batch through the worker pool.
// It returns an error only when ctx was cancelled; results are then discarded.
func (j *Job[R]) runBatch(ctx context.Context, refs []MovieRef) (batchResult[R], error) {
	out := make(chan outcome[R])
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Workers)

	go func() {
		defer close(out)
		for i, ref := range refs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				out <- j.process(gctx, i, ref)
				return nil
			})
		}
		_ = g.Wait()
	}()

	// Collector: the only goroutine touching the counters and result slice
	collected := make([]outcome[R], 0, len(refs))
	for o := range out {
		collected = append(collected, o)
	}

	if err := ctx.Err(); err != nil {
		return batchResult[R]{}, err
	}

	slices.SortFunc(collected, func(a, b outcome[R]) int { return a.idx - b.idx })

	var br batchResult[R]
	for _, o := range collected {
		switch {
		case o.skipped:
			br.skipped++
			metrics.ExtractItems.WithLabelValues(j.cfg.Name, "skipped").Inc()
		case o.err != nil:
			br.failedIDs = append(br.failedIDs, o.ref.MovieLensID)
			metrics.ExtractItems.WithLabelValues(j.cfg.Name, "failed").Inc()
			logging.Debug().
				Str("job", j.cfg.Name).
				Int("movielens_id", o.ref.MovieLensID).
				Str("title", o.ref.Title).
				Err(o.err).
				Msg("Item failed")
		default:
			br.results = append(br.results, o.result)
			metrics.ExtractItems.WithLabelValues(j.cfg.Name, "success").Inc()
		}
	}
	return br, nil
}

// process runs one item under the per-item timeout.
func (j *Job[R]) process(ctx context.Context, idx int, ref MovieRef) outcome[R] {
	o := outcome[R]{idx: idx, ref: ref}

	if s, ok := j.ex.(ItemSkipper); ok && j.cfg.SkipExisting {
		skip, err := s.SkipItem(ctx, ref)
		if err != nil {
			o.err = fmt.Errorf("check existing output: %w", err)
			return o
		}
		if skip {
			o.skipped = true
			return o
		}
	}

	itemCtx := ctx
	if j.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, j.cfg.ItemTimeout)
		defer cancel()
	}
	o.result, o.err = j.ex.Extract(itemCtx, ref)
	return o
}

// saveBatch writes a batch, retrying with linear backoff.
func (j *Job[R]) saveBatch(ctx context.Context, n int, results []R) error {
	policy := retry.Policy{
		MaxAttempts: j.cfg.SaveAttempts,
		Backoff:     retry.Linear(j.cfg.SaveRetryDelay),
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logging.Warn().
				Str("job", j.cfg.Name).
				Int("batch", n).
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(err).
				Msg("Failed to save batch, retrying")
		},
	}
	_, err := policy.Do(ctx, func(ctx context.Context) error {
		return j.ex.WriteBatch(ctx, n, results)
	})
	return err
}

func (j *Job[R]) skipBatch(stats *Stats, n, items int, reason string) {
	stats.BatchesSkipped++
	metrics.ExtractBatches.WithLabelValues(j.cfg.Name, "skipped").Inc()
	logging.Info().Str("job", j.cfg.Name).Int("batch", n).Int("items", items).Str("reason", reason).Msg("Skipping batch")
}

// interrupt flushes the checkpoint and reports the cancellation.
func (j *Job[R]) interrupt(ctx context.Context, cp *checkpoint.Checkpoint, cause error) error {
	j.saveCheckpoint(ctx, cp)
	logging.Warn().
		Str("job", j.cfg.Name).
		Int("last_batch", cp.LastBatch).
		Int("total_success", cp.TotalSuccess).
		Int("total_errors", cp.TotalErrors).
		Msg("Extraction interrupted, progress saved")
	return fmt.Errorf("%w: %w", ErrInterrupted, cause)
}

func (j *Job[R]) saveCheckpoint(ctx context.Context, cp *checkpoint.Checkpoint) {
	if err := j.cp.Save(context.WithoutCancel(ctx), cp); err != nil {
		logging.Error().Str("job", j.cfg.Name).Err(err).Msg("Failed to save checkpoint")
	}
}

// updateManifest rewrites the failure manifest: ids attempted in this session
// are replaced by the session's outcome, other previously failed ids are kept.
func (j *Job[R]) updateManifest(ctx context.Context, attempted map[int]struct{}, failed []int) error {
	previous, err := ReadManifest(ctx, j.store, j.bucket, j.cfg.ManifestKey)
	if err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		return fmt.Errorf("read failure manifest: %w", err)
	}

	ids := slices.Clone(failed)
	for _, id := range previous {
		if _, ok := attempted[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if err := WriteManifest(ctx, j.store, j.bucket, j.cfg.ManifestKey, j.cfg.Name, ids); err != nil {
		return fmt.Errorf("write failure manifest: %w", err)
	}
	logging.Info().Str("job", j.cfg.Name).Int("failed_items", len(ids)).Str("key", j.cfg.ManifestKey).Msg("Failure manifest written")
	return nil
}

func markAttempted(set map[int]struct{}, refs []MovieRef) {
	for _, r := range refs {
		set[r.MovieLensID] = struct{}{}
	}
}

// chunk splits refs into consecutive slices of at most size items.
func chunk(refs []MovieRef, size int) [][]MovieRef {
	var out [][]MovieRef
	for start := 0; start < len(refs); start += size {
		end := min(start+size, len(refs))
		out = append(out, refs[start:end])
	}
	return out
}
