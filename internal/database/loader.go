// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

// DefaultBatchSize is the number of rows per INSERT statement when a Table sets none.
const DefaultBatchSize = 1000

// Table describes a full-refresh load destination.
type Table struct {
	Schema  string
	Name    string
	Columns []string

	// Dependents are fully qualified tables whose rows reference this table.
	// They are deleted, in the listed order, before this table is truncated.
	Dependents []string

	// BatchSize is the number of rows per multi-row INSERT.
	BatchSize int

	// ChunkSize, when positive, logs load progress every ChunkSize rows.
	ChunkSize int
}

// FullName returns the schema-qualified table name.
func (t Table) FullName() string {
	return t.Schema + "." + t.Name
}

func (t Table) validate() error {
	if t.Schema == "" || t.Name == "" {
		return errors.New("table schema and name are required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.FullName())
	}
	return nil
}

// insertSQL renders a parameterized INSERT for n rows.
func (t Table) insertSQL(n int) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ") + ")"

	var b strings.Builder
	b.Grow(64 + n*(len(tuple)+2))
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", t.FullName(), strings.Join(cols, ", "))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tuple)
	}
	return b.String()
}

// Rows adapts a slice of rows to the sequence accepted by TruncateAndLoad.
func Rows(rows [][]any) iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// LoadRows is TruncateAndLoad for rows already held in memory.
func (db *DB) LoadRows(ctx context.Context, t Table, rows [][]any) (int64, error) {
	return db.TruncateAndLoad(ctx, t, Rows(rows))
}

// TruncateAndLoad replaces the contents of t with rows.
//
// Dependents and the table itself are emptied and the rows inserted in
// batches of t.BatchSize inside a single transaction. The first failing
// statement, or the first error yielded by rows, rolls the transaction back
// and is returned; the table then keeps its previous contents.
func (db *DB) TruncateAndLoad(ctx context.Context, t Table, rows iter.Seq2[[]any, error]) (int64, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}

	start := time.Now()
	name := t.FullName()
	batchSize := t.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin load of %s: %w", name, err)
	}

	fail := func(err error) (int64, error) {
		rollbackWithLog(tx, name, err)
		metrics.RecordDBQuery("load", name, time.Since(start), err)
		return 0, err
	}

	for _, dep := range t.Dependents {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+dep); err != nil {
			return fail(fmt.Errorf("truncate dependent %s of %s: %w", dep, name, err))
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
		return fail(fmt.Errorf("truncate %s: %w", name, err))
	}

	var fullStmt *sql.Stmt
	defer func() {
		if fullStmt != nil {
			closeWithLog(fullStmt, "insert statement")
		}
	}()

	width := len(t.Columns)
	args := make([]any, 0, batchSize*width)
	pending := 0
	var loaded int64

	flush := func() error {
		if pending == 0 {
			return nil
		}
		var execErr error
		if pending == batchSize {
			if fullStmt == nil {
				fullStmt, execErr = tx.PrepareContext(ctx, t.insertSQL(batchSize))
				if execErr != nil {
					return fmt.Errorf("prepare insert into %s: %w", name, execErr)
				}
			}
			_, execErr = fullStmt.ExecContext(ctx, args...)
		} else {
			_, execErr = tx.ExecContext(ctx, t.insertSQL(pending), args...)
		}
		if execErr != nil {
			return fmt.Errorf("insert batch into %s at row %d: %w", name, loaded, execErr)
		}

		before := loaded
		loaded += int64(pending)
		if t.ChunkSize > 0 && loaded/int64(t.ChunkSize) > before/int64(t.ChunkSize) {
			logging.Info().Str("table", name).Int64("rows", loaded).Msg("Load progress")
		}
		args = args[:0]
		pending = 0
		return nil
	}

	for row, err := range rows {
		if err != nil {
			return fail(fmt.Errorf("read rows for %s: %w", name, err))
		}
		if len(row) != width {
			return fail(fmt.Errorf("row %d for %s has %d values, want %d", loaded+int64(pending), name, len(row), width))
		}
		args = append(args, row...)
		pending++
		if pending == batchSize {
			if err := flush(); err != nil {
				return fail(err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("load of %s cancelled: %w", name, err))
	}
	if err := flush(); err != nil {
		return fail(err)
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("commit load of %s: %w", name, err))
	}

	elapsed := time.Since(start)
	metrics.RecordDBQuery("load", name, elapsed, nil)
	metrics.RecordTableLoad(name, loaded, elapsed)
	logging.Info().
		Str("table", name).
		Int64("rows", loaded).
		Dur("duration", elapsed).
		Msg("Table loaded")

	return loaded, nil
}

// quoteIdent quotes a column identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
