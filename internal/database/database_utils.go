// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ensureContext creates a context with 30-second timeout if none provided
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	if err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// GetDatabasePath returns the path to the database file
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// CountRows returns the number of rows in a schema-qualified table.
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows of %s: %w", table, err)
	}
	return n, nil
}

// QueryInt64 runs a query that returns a single integer, mapping NULL to 0.
func (db *DB) QueryInt64(ctx context.Context, query string, args ...any) (int64, error) {
	var v sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, err
	}
	return v.Int64, nil
}

// QueryFloat64 runs a query that returns a single number.
// The boolean is false when the result is NULL.
func (db *DB) QueryFloat64(ctx context.Context, query string, args ...any) (float64, bool, error) {
	var v sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, false, err
	}
	return v.Float64, v.Valid, nil
}

// TableExists reports whether schema.name exists in the warehouse.
func (db *DB) TableExists(ctx context.Context, schema, name string) (bool, error) {
	n, err := db.QueryInt64(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
		schema, name)
	if err != nil {
		return false, fmt.Errorf("check table %s.%s: %w", schema, name, err)
	}
	return n > 0, nil
}

// TableColumns returns the column names of schema.name in ordinal order.
func (db *DB) TableColumns(ctx context.Context, schema, name string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`,
		schema, name)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s.%s: %w", schema, name, err)
	}
	defer closeWithLog(rows, "column rows")

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
