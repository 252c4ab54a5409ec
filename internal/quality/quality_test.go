// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package quality

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

var testQuality = config.QualityConfig{MissingWarnPercent: 10}

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

func seedSilver(t *testing.T, db *database.DB) {
	exec(t, db,
		`INSERT INTO silver.movies VALUES (1, 'Toy Story', 1995, 'Animation'), (2, 'Jumanji', 1995, 'Adventure')`,
		`INSERT INTO silver.genres VALUES (1, 'Adventure'), (2, 'Animation')`,
		`INSERT INTO silver.movie_genres VALUES (1, 2), (2, 1)`,
		`INSERT INTO silver.ratings VALUES (1, 1, 4.0, 1), (1, 2, 0.5, 2), (2, 1, 5.0, 3)`,
		`INSERT INTO silver.tags VALUES (1, 1, 'pixar', 1)`,
		`INSERT INTO silver.links VALUES (1, '0114709', '862'), (2, '0113497', '8844')`,
	)
}

func hasIssue(r *Report, check string, s Severity) bool {
	for _, i := range r.Issues {
		if strings.HasPrefix(i.Check, check) && i.Severity == s {
			return true
		}
	}
	return false
}

func TestValidate_SilverPasses(t *testing.T) {
	db := setupTestDB(t)
	seedSilver(t, db)

	r, err := NewValidator(db, testQuality).Validate(context.Background(), LayerSilver)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !r.Passed || len(r.Issues) != 0 {
		t.Errorf("report = %+v, want passed without issues", r)
	}
	if v, ok := r.Value("count:silver.ratings"); !ok || v != 3 {
		t.Errorf("ratings count = %v (%v), want 3", v, ok)
	}
	if v, _ := r.Value("range:rating:min"); v != 0.5 {
		t.Errorf("min rating = %v, want 0.5", v)
	}
	if got := testutil.ToFloat64(metrics.QualityPassed.WithLabelValues(LayerSilver)); got != 1 {
		t.Errorf("quality passed gauge = %v, want 1", got)
	}
}

func TestValidate_SilverOrphansFail(t *testing.T) {
	db := setupTestDB(t)
	seedSilver(t, db)
	exec(t, db,
		`INSERT INTO silver.ratings VALUES (9, 99, 3.0, 1)`,
		`INSERT INTO silver.movie_genres VALUES (1, 42)`,
		`INSERT INTO silver.tags VALUES (3, 77, 'lost', 9)`,
	)

	r, err := NewValidator(db, testQuality).Validate(context.Background(), LayerSilver)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.Passed {
		t.Error("report with orphans passed")
	}
	for _, check := range []string{"orphans:ratings", "orphans:movie_genres", "orphans:tags"} {
		if !hasIssue(r, check, SeverityError) {
			t.Errorf("missing error issue for %s: %+v", check, r.Issues)
		}
	}
	if hasIssue(r, "orphans:links", SeverityError) {
		t.Error("links reported as orphaned")
	}
}

func TestValidate_GoldRatingsOrphans(t *testing.T) {
	db := setupTestDB(t)
	exec(t, db,
		`INSERT INTO gold.dim_genres VALUES (1, 'Animation', 1, 2, 4.5)`,
		`INSERT INTO gold.dim_movies VALUES (1, 'Toy Story', 1995, '0114709', '862', 4.5, 2, 2, 1)`,
		`INSERT INTO gold.fact_movie_ratings VALUES (1, 2, 4.5, 4.0, 5.0, 0.7, 2), (99, 1, 3.0, 3.0, 3.0, NULL, 1)`,
		`INSERT INTO gold.fact_ratings_by_year VALUES (2000, 3, 4.0, 3, 2)`,
		`INSERT INTO gold.fact_movie_genres VALUES (1, 1)`,
	)

	r, err := NewValidator(db, testQuality).Validate(context.Background(), LayerGold)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.Passed {
		t.Error("report with orphaned ratings facts passed")
	}
	if v, _ := r.Value("orphans:fact_movie_ratings"); v != 1 {
		t.Errorf("orphaned fact_movie_ratings = %v, want 1", v)
	}
	if !hasIssue(r, "orphans:fact_movie_ratings", SeverityError) {
		t.Errorf("missing error issue for fact_movie_ratings: %+v", r.Issues)
	}
	if hasIssue(r, "orphans:fact_movie_genres", SeverityError) {
		t.Error("fact_movie_genres reported as orphaned")
	}
}

func TestValidate_CoverageWarningDoesNotFail(t *testing.T) {
	db := setupTestDB(t)
	seedSilver(t, db)
	exec(t, db, `INSERT INTO silver.movies VALUES (3, 'Untitled', 0, '(no genres listed)')`)

	r, err := NewValidator(db, testQuality).Validate(context.Background(), LayerSilver)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !r.Passed {
		t.Errorf("warnings failed the report: %+v", r.Issues)
	}
	if !hasIssue(r, "coverage:genres", SeverityWarning) {
		t.Errorf("missing coverage warning: %+v", r.Issues)
	}
	if v, _ := r.Value("coverage:genres"); v < 33.3 || v > 33.4 {
		t.Errorf("missing genre percentage = %v, want 33.3", v)
	}
}

func TestValidate_RangeViolation(t *testing.T) {
	db := setupTestDB(t)
	seedSilver(t, db)
	// silver rules never let this through; the check must still catch it
	exec(t, db, `INSERT INTO silver.ratings VALUES (3, 1, 7.5, 4)`)

	r, err := NewValidator(db, testQuality).Validate(context.Background(), LayerSilver)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.Passed || !hasIssue(r, "range:rating", SeverityError) {
		t.Errorf("out-of-range rating not reported: %+v", r.Issues)
	}
}

func TestValidate_EmptyGoldFails(t *testing.T) {
	db := setupTestDB(t)

	r, err := NewValidator(db, testQuality).Validate(context.Background(), LayerGoldTMDB)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.Passed {
		t.Error("empty gold layer passed")
	}
	if got := r.Count(SeverityError); got != 4 {
		t.Errorf("error issues = %d, want one per empty table (4)", got)
	}
	if got := testutil.ToFloat64(metrics.QualityIssues.WithLabelValues(LayerGoldTMDB, string(SeverityError))); got != 4 {
		t.Errorf("quality issues gauge = %v, want 4", got)
	}
}

func TestValidate_NonFiniteROI(t *testing.T) {
	db := setupTestDB(t)
	exec(t, db, `INSERT INTO gold_tmdb.fact_box_office
		(movielens_id, budget, revenue, profit, roi, budget_category, revenue_category, roi_category, is_profitable, is_blockbuster)
		VALUES (1, 1, 2, 1, 'NaN'::DOUBLE, 'Micro', 'Flop', 'Exceptional', true, false)`)

	r, err := NewValidator(db, testQuality).Validate(context.Background(), LayerGoldTMDB)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !hasIssue(r, "finite:gold_tmdb.fact_box_office.roi", SeverityError) {
		t.Errorf("NaN roi not reported: %+v", r.Issues)
	}
}

func TestValidate_UnknownLayer(t *testing.T) {
	db := setupTestDB(t)
	if _, err := NewValidator(db, testQuality).Validate(context.Background(), "bronze"); err == nil {
		t.Error("unknown layer accepted")
	}
}

func TestValidateAll(t *testing.T) {
	db := setupTestDB(t)
	seedSilver(t, db)

	reports, err := NewValidator(db, testQuality).ValidateAll(context.Background())
	if err != nil {
		t.Fatalf("ValidateAll: %v", err)
	}
	if len(reports) != len(Layers) {
		t.Fatalf("reports = %d, want %d", len(reports), len(Layers))
	}
	for i, r := range reports {
		if r.Layer != Layers[i] {
			t.Errorf("report %d layer = %s, want %s", i, r.Layer, Layers[i])
		}
	}
	if !reports[0].Passed || reports[1].Passed {
		t.Errorf("silver passed = %v, silver_tmdb passed = %v; want true, false", reports[0].Passed, reports[1].Passed)
	}
}
