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
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joaoVMiguez/DataFlix/internal/logging"
)

// Column is a Parquet column and the DuckDB type it is stored as.
type Column struct {
	Name string
	Type string
}

// ParquetCodec writes and reads Parquet files using an in-process DuckDB
// instance. It is independent from the warehouse so the bronze layer can use
// it without opening the warehouse file.
type ParquetCodec struct {
	db *sql.DB
}

// NewParquetCodec opens an in-memory DuckDB instance for Parquet conversion.
func NewParquetCodec() (*ParquetCodec, error) {
	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("open parquet codec: %w", err)
	}
	conn.SetMaxOpenConns(2)
	return &ParquetCodec{db: conn}, nil
}

// Close releases the codec's DuckDB instance.
func (c *ParquetCodec) Close() error {
	return c.db.Close()
}

// Write stores rows as a ZSTD-compressed Parquet file at path, replacing any
// existing file. Each row must have one value per column.
func (c *ParquetCodec) Write(ctx context.Context, path string, columns []Column, rows [][]any) error {
	if len(columns) == 0 {
		return errors.New("parquet write requires at least one column")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create parquet directory: %w", err)
	}

	// Temporary tables are scoped to one connection
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire codec connection: %w", err)
	}
	defer closeWithLog(conn, "codec connection")

	tmp := "parquet_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(col.Name) + " " + col.Type
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE TEMPORARY TABLE %s (%s)", tmp, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create temporary parquet table: %w", err)
	}
	defer func() {
		// Use a fresh context so cleanup still runs after cancellation
		if _, err := conn.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+tmp); err != nil {
			logging.Warn().Err(err).Str("table", tmp).Msg("Failed to drop temporary parquet table")
		}
	}()

	if err := insertTemp(ctx, conn, tmp, len(columns), rows); err != nil {
		return err
	}

	exportQuery := fmt.Sprintf(`COPY %s TO %s (FORMAT PARQUET, COMPRESSION 'ZSTD')`, tmp, quoteLiteral(path))
	if _, err := conn.ExecContext(ctx, exportQuery); err != nil {
		return fmt.Errorf("failed to export parquet: %w", err)
	}
	return nil
}

func insertTemp(ctx context.Context, conn *sql.Conn, table string, width int, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin parquet insert: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", width), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders))
	if err != nil {
		rollbackWithLog(tx, table, err)
		return fmt.Errorf("prepare parquet insert: %w", err)
	}
	defer closeWithLog(stmt, "parquet insert statement")

	for i, row := range rows {
		if len(row) != width {
			err := fmt.Errorf("parquet row %d has %d values, want %d", i, len(row), width)
			rollbackWithLog(tx, table, err)
			return err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			rollbackWithLog(tx, table, err)
			return fmt.Errorf("insert parquet row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit parquet insert: %w", err)
	}
	return nil
}

// Read scans the named columns of the Parquet file at path, calling fn once
// per row. fn must call rows.Scan and must not call rows.Next.
func (c *ParquetCodec) Read(ctx context.Context, path string, columns []string, fn func(rows *sql.Rows) error) error {
	cols := make([]string, len(columns))
	for i, col := range columns {
		cols[i] = quoteIdent(col)
	}
	query := fmt.Sprintf("SELECT %s FROM read_parquet(%s)", strings.Join(cols, ", "), quoteLiteral(path))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("read parquet %s: %w", filepath.Base(path), err)
	}
	defer closeWithLog(rows, "parquet rows")

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of rows in the Parquet file at path.
func (c *ParquetCodec) Count(ctx context.Context, path string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM read_parquet("+quoteLiteral(path)+")").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count parquet rows: %w", err)
	}
	return n, nil
}
