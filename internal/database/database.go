// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
)

// DB wraps the DuckDB connection and provides warehouse access methods
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the warehouse at cfg.Path and applies pending schema migrations.
// Use ":memory:" for an ephemeral database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	if !isMemory(cfg.Path) {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", connectionString(cfg, numThreads))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	db.configureConnectionPool(numThreads)

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// connectionString builds the DuckDB DSN with tuning options.
// preserve_insertion_order=false reduces memory usage but may change result order.
// Auto-install of extensions is disabled so offline runs never hang on a download.
func connectionString(cfg *config.DatabaseConfig, threads int) string {
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	dsn := fmt.Sprintf("%s?threads=%d&preserve_insertion_order=%s&autoinstall_known_extensions=false",
		cfg.Path, threads, preserveOrder)
	if cfg.MaxMemory != "" {
		dsn += "&max_memory=" + cfg.MaxMemory
	}
	if !isMemory(cfg.Path) {
		dsn += "&access_mode=read_write"
	}
	return dsn
}

func isMemory(path string) bool {
	return path == "" || path == ":memory:"
}

// configureConnectionPool sizes the database/sql pool.
// A single DuckDB instance serves all connections of the pool.
func (db *DB) configureConnectionPool(threads int) {
	db.conn.SetMaxOpenConns(threads)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection.
// It performs a CHECKPOINT before closing to flush the WAL to the main database file.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if !isMemory(db.cfg.Path) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			// Best effort: the WAL is replayed on next open
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize creates schemas and tables through the versioned migrations
func (db *DB) initialize() error {
	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	if isMemory(db.cfg.Path) {
		return nil
	}

	// Flush the DDL out of the WAL before any load starts
	ctx, cancel := schemaContext()
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}
	return nil
}
