// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package gold builds the analytical tables from the silver schemas.
//
// Each gold table is an Aggregate: a DuckDB query over silver tables whose
// result is scanned, sanitized and reloaded with database.LoadRows. Groups
// below their minimum support produce no row, ratios with a zero
// denominator are NULL, and tie-breaks for "top" columns are explicit in
// every query so reruns on the same input are identical.
package gold

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

// MaxRatio is the largest magnitude kept in a ratio column.
const MaxRatio = 1e8

// Aggregate is one gold table and the query producing its rows.
// The query must select Table.Columns in order.
type Aggregate struct {
	Table database.Table
	Query string
	Args  []any

	// Ratios names the columns subject to the MaxRatio bound.
	Ratios []string
}

// Sanitize returns nil for NaN and infinite floats and, when ratio is set,
// for floats whose magnitude exceeds MaxRatio. Other values pass through.
func Sanitize(v any, ratio bool) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || (ratio && math.Abs(f) > MaxRatio) {
		return nil
	}
	return f
}

// TableLoad is the outcome of one gold table refresh.
type TableLoad struct {
	Table string
	Rows  int64
	// Sanitized counts values replaced by NULL.
	Sanitized int
}

// Result summarises a stage run.
type Result struct {
	Tables   []TableLoad
	Duration time.Duration
}

// Rows returns the rows loaded into table, or -1 when it was not loaded.
func (r *Result) Rows(table string) int64 {
	for _, t := range r.Tables {
		if t.Table == table {
			return t.Rows
		}
	}
	return -1
}

// Stage refreshes a list of aggregates in order.
type Stage struct {
	name       string
	db         *database.DB
	aggregates []Aggregate
	batchSize  int
}

// NewStage creates a Stage loading aggregates in batches of batchSize rows.
func NewStage(name string, db *database.DB, batchSize int, aggregates ...Aggregate) *Stage {
	return &Stage{name: name, db: db, aggregates: aggregates, batchSize: batchSize}
}

// Run refreshes every aggregate. The first failure stops the stage; tables
// already refreshed keep their new contents.
func (s *Stage) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for _, a := range s.aggregates {
		rows, sanitized, err := s.query(ctx, a)
		if err != nil {
			return res, err
		}
		t := a.Table
		t.BatchSize = s.batchSize
		n, err := s.db.LoadRows(ctx, t, rows)
		if err != nil {
			return res, fmt.Errorf("load %s: %w", t.FullName(), err)
		}
		res.Tables = append(res.Tables, TableLoad{Table: t.FullName(), Rows: n, Sanitized: sanitized})
		if sanitized > 0 {
			logging.Warn().
				Str("table", t.FullName()).
				Int("values", sanitized).
				Msg("Out-of-range values replaced by NULL")
		}
	}

	res.Duration = time.Since(start)
	logging.Info().
		Str("stage", s.name).
		Int("tables", len(res.Tables)).
		Dur("duration", res.Duration).
		Msg("Gold stage complete")
	return res, nil
}

func (s *Stage) query(ctx context.Context, a Aggregate) ([][]any, int, error) {
	name := a.Table.FullName()
	start := time.Now()
	rows, err := s.db.Conn().QueryContext(ctx, a.Query, a.Args...)
	if err != nil {
		metrics.RecordDBQuery("aggregate", name, time.Since(start), err)
		return nil, 0, fmt.Errorf("aggregate %s: %w", name, err)
	}
	defer rows.Close()

	width := len(a.Table.Columns)
	ratio := make([]bool, width)
	for i, c := range a.Table.Columns {
		ratio[i] = slices.Contains(a.Ratios, c)
	}

	var (
		out       [][]any
		sanitized int
	)
	for rows.Next() {
		row, err := scanRow(rows, width)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", name, err)
		}
		for i, v := range row {
			clean := Sanitize(v, ratio[i])
			if clean == nil && v != nil {
				sanitized++
			}
			row[i] = clean
		}
		out = append(out, row)
	}
	err = rows.Err()
	metrics.RecordDBQuery("aggregate", name, time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate %s: %w", name, err)
	}
	return out, sanitized, nil
}

func scanRow(rows *sql.Rows, width int) ([]any, error) {
	vals := make([]any, width)
	dest := make([]any, width)
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return vals, nil
}
