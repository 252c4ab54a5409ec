// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package silver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
)

// TableLoad is the outcome of loading one table.
type TableLoad struct {
	Table   string
	Rows    int64
	Dropped int
}

// Result summarises a stage run.
type Result struct {
	Tables []TableLoad
	// Skipped lists source objects that were absent or unreadable.
	Skipped  []string
	Duration time.Duration
}

// Rows returns the number of rows loaded into table, or -1 when it was not loaded.
func (r *Result) Rows(table string) int64 {
	for _, t := range r.Tables {
		if t.Table == table {
			return t.Rows
		}
	}
	return -1
}

func (r *Result) add(table string, rows int64, drops *Drops) {
	tl := TableLoad{Table: table, Rows: rows}
	if drops != nil {
		tl.Dropped = drops.Total()
	}
	r.Tables = append(r.Tables, tl)

	if tl.Dropped > 0 {
		logging.Info().
			Str("table", table).
			Int64("rows", rows).
			Object("dropped", drops).
			Msg("Records dropped during transform")
	}
}

// withSizes returns a copy of t using the given batch and chunk sizes.
func withSizes(t database.Table, batchSize, chunkSize int) database.Table {
	t.BatchSize = batchSize
	t.ChunkSize = chunkSize
	return t
}

// openObject opens a bronze object, returning nil when it does not exist.
func openObject(ctx context.Context, store objectstore.Store, bucket, key string) (io.ReadCloser, error) {
	rc, err := store.Get(ctx, bucket, key)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", bucket, key, err)
	}
	return rc, nil
}

// transformed adapts a CSV record stream and a per-record transform into
// the row sequence consumed by the loader.
func transformed(records iter.Seq2[[]string, error], apply func(rec []string) ([]any, bool)) iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		for rec, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			row, ok := apply(rec)
			if !ok {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// nullable converts an optional string to a driver value.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
