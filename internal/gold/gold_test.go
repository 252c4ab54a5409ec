// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package gold

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
)

var testLoad = config.LoadConfig{GoldBatchSize: 2}

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func exec(t *testing.T, db *database.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := db.Conn().ExecContext(context.Background(), s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

func queryString(t *testing.T, db *database.DB, query string) sql.NullString {
	t.Helper()
	var s sql.NullString
	if err := db.Conn().QueryRowContext(context.Background(), query).Scan(&s); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return s
}

func queryFloat(t *testing.T, db *database.DB, query string) (float64, bool) {
	t.Helper()
	v, ok, err := db.QueryFloat64(context.Background(), query)
	if err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return v, ok
}

func queryInt(t *testing.T, db *database.DB, query string) int64 {
	t.Helper()
	n, err := db.QueryInt64(context.Background(), query)
	if err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		ratio bool
		want  any
	}{
		{"plain float", 12.5, true, 12.5},
		{"nan", math.NaN(), false, nil},
		{"positive infinity", math.Inf(1), false, nil},
		{"negative infinity", math.Inf(-1), true, nil},
		{"large ratio", 1e8 + 1, true, nil},
		{"negative large ratio", -2e9, true, nil},
		{"bound is kept", 1e8, true, 1e8},
		{"large non-ratio", 3e9, false, 3e9},
		{"integer", int64(5e9), true, int64(5e9)},
		{"string", "x", true, "x"},
		{"nil", nil, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in, tt.ratio); got != tt.want {
				t.Errorf("Sanitize(%v, %v) = %v, want %v", tt.in, tt.ratio, got, tt.want)
			}
		})
	}
}

func seedMovieLens(t *testing.T, db *database.DB) {
	exec(t, db,
		`INSERT INTO silver.movies VALUES
			(1, 'Toy Story', 1995, 'Animation|Comedy'),
			(2, 'Jumanji', 1995, 'Adventure'),
			(3, 'Unrated', 0, '(no genres listed)')`,
		`INSERT INTO silver.genres VALUES (1, 'Adventure'), (2, 'Animation'), (3, 'Comedy')`,
		`INSERT INTO silver.movie_genres VALUES (1, 2), (1, 3), (2, 1)`,
		`INSERT INTO silver.ratings VALUES
			(1, 1, 4.0, 964982703),
			(2, 1, 5.0, 964982703),
			(1, 2, 3.0, 1445714994)`,
		`INSERT INTO silver.tags VALUES (1, 1, 'pixar', 1), (2, 1, 'pixar', 2), (1, 1, 'fun', 3)`,
		`INSERT INTO silver.links VALUES (1, '0114709', '862')`,
	)
}

func TestMovieLensStage_Run(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedMovieLens(t, db)

	res, err := NewMovieLensStage(db, testLoad).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]int64{
		"gold.dim_genres":           3,
		"gold.dim_movies":           3,
		"gold.fact_movie_ratings":   2,
		"gold.fact_ratings_by_year": 2,
		"gold.fact_movie_genres":    3,
	}
	for table, n := range want {
		if got := res.Rows(table); got != n {
			t.Errorf("%s: loaded %d rows, want %d", table, got, n)
		}
	}

	if v, _ := queryFloat(t, db, "SELECT stddev_rating FROM gold.fact_movie_ratings WHERE movieid = 1"); v != 0.71 {
		t.Errorf("stddev for movie 1 = %v, want 0.71", v)
	}
	if _, ok := queryFloat(t, db, "SELECT stddev_rating FROM gold.fact_movie_ratings WHERE movieid = 2"); ok {
		t.Error("stddev with a single rating is not NULL")
	}

	if n := queryInt(t, db, "SELECT total_tags FROM gold.dim_movies WHERE movieid = 1"); n != 2 {
		t.Errorf("distinct tags for movie 1 = %d, want 2", n)
	}
	if n := queryInt(t, db, "SELECT COUNT(*) FROM gold.dim_movies WHERE movieid = 3 AND total_ratings = 0 AND avg_rating IS NULL AND release_year IS NULL"); n != 1 {
		t.Error("unrated movie missing zero counts or NULL average")
	}
	if s := queryString(t, db, "SELECT tmdbid FROM gold.dim_movies WHERE movieid = 1"); s.String != "862" {
		t.Errorf("tmdbid = %q, want 862", s.String)
	}

	if v, _ := queryFloat(t, db, "SELECT avg_rating FROM gold.dim_genres WHERE genre_name = 'Comedy'"); v != 4.5 {
		t.Errorf("comedy avg rating = %v, want 4.5", v)
	}
	if n := queryInt(t, db, "SELECT total_ratings FROM gold.fact_ratings_by_year WHERE rating_year = 2000"); n != 2 {
		t.Errorf("ratings in 2000 = %d, want 2", n)
	}

	// a rerun on the same input replaces the tables
	if _, err := NewMovieLensStage(db, testLoad).Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if n, _ := db.CountRows(ctx, "gold.dim_movies"); n != 3 {
		t.Errorf("dim_movies after rerun = %d, want 3", n)
	}
}

func TestMovieLensStage_EmptySilver(t *testing.T) {
	db := setupTestDB(t)
	res, err := NewMovieLensStage(db, testLoad).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, tl := range res.Tables {
		if tl.Rows != 0 {
			t.Errorf("%s: %d rows from empty silver", tl.Table, tl.Rows)
		}
	}
}
