// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	Statements  []string  // SQL statements executed in order inside one transaction
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

// schemaMigrationsTable creates the migration tracking table.
// applied_at is written by the application so no timezone extension is needed.
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name VARCHAR NOT NULL,
	description VARCHAR,
	applied_at TIMESTAMP NOT NULL
)`

// getMigrations returns all versioned migrations in order.
//
// Migrations MUST be append-only - never modify or remove existing migrations
// once a warehouse has been created with them.
func getMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "silver_movielens", Description: "Create silver schema for MovieLens entities",
			Statements: silverSchema},
		{Version: 2, Name: "silver_tmdb", Description: "Create silver_tmdb schema for TMDB movies and bridges",
			Statements: silverTMDBSchema},
		{Version: 3, Name: "gold_movielens", Description: "Create gold schema for the MovieLens star schema",
			Statements: goldSchema},
		{Version: 4, Name: "gold_tmdb", Description: "Create gold_tmdb schema for the TMDB financial star schema",
			Statements: goldTMDBSchema},
	}
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "migration rows")

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations executes only the migrations that haven't been applied yet.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied schema migrations")
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			rollbackWithLog(tx, "schema_migrations", err)
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
		m.Version, m.Name, m.Description, time.Now().UTC(),
	); err != nil {
		rollbackWithLog(tx, "schema_migrations", err)
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
	}
	return nil
}

// GetMigrationVersion returns the highest applied migration version, 0 when none.
func (db *DB) GetMigrationVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, nil
}
