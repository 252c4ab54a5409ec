// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package database

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/joaoVMiguez/DataFlix/internal/config"
)

// testDBSemaphore limits concurrent DuckDB instances in tests.
// DuckDB CGO calls can stall under heavy parallel resource pressure.
var testDBSemaphore = make(chan struct{}, 4)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test database: %v", err)
		}
	})
	return db
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	version, err := db.GetMigrationVersion(ctx)
	if err != nil {
		t.Fatalf("GetMigrationVersion: %v", err)
	}
	if want := len(getMigrations()); version != want {
		t.Errorf("migration version = %d, want %d", version, want)
	}

	tables := []struct{ schema, name string }{
		{SchemaSilver, "movies"},
		{SchemaSilver, "ratings"},
		{SchemaSilverTMDB, "movies_tmdb"},
		{SchemaSilverTMDB, "spoken_languages_tmdb"},
		{SchemaGold, "fact_ratings_by_year"},
		{SchemaGoldTMDB, "fact_country_performance"},
	}
	for _, tt := range tables {
		ok, err := db.TableExists(ctx, tt.schema, tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("table %s.%s missing", tt.schema, tt.name)
		}
	}
}

func TestNew_NaturalKeys(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	keys, err := db.QueryInt64(ctx, `SELECT COUNT(*) FROM duckdb_constraints()
		WHERE constraint_type = 'PRIMARY KEY' AND (schema_name LIKE 'silver%' OR schema_name LIKE 'gold%')`)
	if err != nil {
		t.Fatal(err)
	}
	if keys != 20 {
		t.Errorf("primary keys = %d, want 20", keys)
	}
	indexes, err := db.QueryInt64(ctx, `SELECT COUNT(*) FROM duckdb_indexes() WHERE index_name LIKE 'idx_%'`)
	if err != nil {
		t.Fatal(err)
	}
	if indexes != 12 {
		t.Errorf("lookup indexes = %d, want 12", indexes)
	}

	tests := []struct {
		name  string
		stmt  string
		dupOK bool
	}{
		{"rating key", `INSERT INTO silver.ratings VALUES (1, 1, 4.0, 100), (1, 1, 2.0, 100)`, false},
		{"tag key", `INSERT INTO silver.tags VALUES (7, 1, 'funny', 1000), (7, 1, 'pixar', 1000)`, false},
		{"bridge key", `INSERT INTO silver_tmdb.genres_tmdb (movielens_id, genre_id) VALUES (1, 16), (1, 16)`, false},
		{"same tag another time", `INSERT INTO silver.tags VALUES (7, 2, 'funny', 1000), (7, 2, 'funny', 1001)`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Conn().ExecContext(ctx, tt.stmt)
			if tt.dupOK && err != nil {
				t.Errorf("insert rejected: %v", err)
			}
			if !tt.dupOK && err == nil {
				t.Error("duplicate natural key accepted")
			}
		})
	}
}

func TestNew_FileDatabaseReopen(t *testing.T) {
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := filepath.Join(t.TempDir(), "sub", "warehouse.duckdb")
	cfg := &config.DatabaseConfig{Path: path, Threads: 1}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must not re-apply migrations
	db, err = New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	n, err := db.QueryInt64(context.Background(), "SELECT COUNT(*) FROM schema_migrations")
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != len(getMigrations()) {
		t.Errorf("schema_migrations rows = %d, want %d", n, len(getMigrations()))
	}
}

func TestTableColumns(t *testing.T) {
	db := setupTestDB(t)

	cols, err := db.TableColumns(context.Background(), SchemaSilver, "ratings")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"userid", "movieid", "rating", "timestamp"}
	if !slices.Equal(cols, want) {
		t.Errorf("columns = %v, want %v", cols, want)
	}
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "memory",
			cfg:  config.DatabaseConfig{Path: ":memory:"},
			want: ":memory:?threads=2&preserve_insertion_order=false&autoinstall_known_extensions=false",
		},
		{
			name: "file with memory limit",
			cfg:  config.DatabaseConfig{Path: "data/x.duckdb", MaxMemory: "2GB", PreserveInsertionOrder: true},
			want: "data/x.duckdb?threads=2&preserve_insertion_order=true&autoinstall_known_extensions=false&max_memory=2GB&access_mode=read_write",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := connectionString(&tt.cfg, 2); got != tt.want {
				t.Errorf("connectionString() = %q, want %q", got, tt.want)
			}
		})
	}
}
