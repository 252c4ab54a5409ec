// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package gold

import (
	"context"
	"fmt"
	"testing"

	"github.com/joaoVMiguez/DataFlix/internal/database"
)

type seedMovie struct {
	id              int
	title           string
	budget, revenue int64
	companies       []string // "id:name"
	countries       []string
	genres          []string
}

func insertMovie(t *testing.T, db *database.DB, m seedMovie) {
	t.Helper()
	roi := "NULL"
	if m.budget > 0 {
		roi = fmt.Sprintf("%v", float64(m.revenue-m.budget)/float64(m.budget)*100)
	}
	exec(t, db, fmt.Sprintf(`INSERT INTO silver_tmdb.movies_tmdb
		(movielens_id, tmdb_id, title, budget, revenue, profit, roi,
		 has_budget, has_revenue, has_overview, has_poster, has_backdrop, budget_category, quality_score)
		VALUES (%d, %d, '%s', %d, %d, %d, %s, %t, %t, false, false, false, 'Unknown', 40)`,
		m.id, m.id*100, m.title, m.budget, m.revenue, m.revenue-m.budget, roi, m.budget > 0, m.revenue > 0))

	for _, c := range m.companies {
		var (
			cid  int
			name string
		)
		if _, err := fmt.Sscanf(c, "%d:%s", &cid, &name); err != nil {
			t.Fatalf("bad company %q", c)
		}
		exec(t, db, fmt.Sprintf(`INSERT INTO silver_tmdb.production_companies_tmdb (movielens_id, company_id, company_name)
			VALUES (%d, %d, '%s')`, m.id, cid, name))
	}
	for _, c := range m.countries {
		exec(t, db, fmt.Sprintf(`INSERT INTO silver_tmdb.production_countries_tmdb (movielens_id, country_code, country_name)
			VALUES (%d, '%s', '%s land')`, m.id, c, c))
	}
	for i, g := range m.genres {
		exec(t, db, fmt.Sprintf(`INSERT INTO silver_tmdb.genres_tmdb (movielens_id, genre_id, genre_name)
			VALUES (%d, %d, '%s')`, m.id, len(g)*10+i, g))
	}
}

func seedTMDB(t *testing.T, db *database.DB) {
	movies := []seedMovie{
		{1, "One", 30_000_000, 373_554_033, []string{"10:Pixar", "20:Tiny"}, []string{"US", "FR"}, []string{"Animation", "Comedy"}},
		{2, "Two", 100_000_000, 500_000_000, []string{"10:Pixar"}, []string{"US"}, []string{"Comedy"}},
		{3, "Three", 50_000_000, 500_000_000, []string{"10:Pixar"}, []string{"US"}, []string{"Animation"}},
		{4, "Four", 10_000_000, 5_000_000, []string{"20:Tiny"}, []string{"US"}, nil},
		{5, "Five", 0, 100, []string{"10:Pixar"}, []string{"US"}, nil},
		{6, "Six", 1, 1_000_000_000, nil, []string{"US"}, nil},
	}
	for _, m := range movies {
		insertMovie(t, db, m)
	}
}

func TestTMDBStage_Run(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedTMDB(t, db)

	res, err := NewTMDBStage(db, testLoad).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]int64{
		"gold_tmdb.dim_movies_tmdb":          6,
		"gold_tmdb.fact_box_office":          5,
		"gold_tmdb.fact_studio_performance":  1,
		"gold_tmdb.fact_country_performance": 1,
	}
	for table, n := range want {
		if got := res.Rows(table); got != n {
			t.Errorf("%s: loaded %d rows, want %d", table, got, n)
		}
	}

	if s := queryString(t, db, "SELECT genres_list FROM gold_tmdb.dim_movies_tmdb WHERE movielens_id = 1"); s.String != "Animation, Comedy" {
		t.Errorf("genres_list = %q, want %q", s.String, "Animation, Comedy")
	}
	if n := queryInt(t, db, "SELECT total_genres FROM gold_tmdb.dim_movies_tmdb WHERE movielens_id = 6"); n != 0 {
		t.Errorf("total_genres without genres = %d, want 0", n)
	}
}

func TestTMDBStage_BoxOfficeCategories(t *testing.T) {
	db := setupTestDB(t)
	seedTMDB(t, db)
	if _, err := NewTMDBStage(db, testLoad).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tests := []struct {
		id                      int
		budget, revenue, roi    string
		profitable, blockbuster bool
	}{
		{1, "Medium", "Hit", "Exceptional", true, true},
		{2, "Blockbuster", "Mega Hit", "High", true, true},
		{3, "Large", "Mega Hit", "Exceptional", true, true},
		{4, "Medium", "Modest", "Loss", false, false},
		{6, "Micro", "Mega Hit", "Exceptional", true, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.id), func(t *testing.T) {
			row := db.Conn().QueryRowContext(context.Background(),
				`SELECT budget_category, revenue_category, roi_category, is_profitable, is_blockbuster
				FROM gold_tmdb.fact_box_office WHERE movielens_id = ?`, tt.id)
			var (
				b, r, roi          string
				profitable, blockb bool
			)
			if err := row.Scan(&b, &r, &roi, &profitable, &blockb); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if b != tt.budget || r != tt.revenue || roi != tt.roi {
				t.Errorf("categories = %s/%s/%s, want %s/%s/%s", b, r, roi, tt.budget, tt.revenue, tt.roi)
			}
			if profitable != tt.profitable || blockb != tt.blockbuster {
				t.Errorf("flags = %v/%v, want %v/%v", profitable, blockb, tt.profitable, tt.blockbuster)
			}
		})
	}
}

func TestTMDBStage_SanitizesExtremeRatios(t *testing.T) {
	db := setupTestDB(t)
	seedTMDB(t, db)
	res, err := NewTMDBStage(db, testLoad).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := queryFloat(t, db, "SELECT roi FROM gold_tmdb.fact_box_office WHERE movielens_id = 6"); ok {
		t.Error("roi above the bound was kept")
	}
	if _, ok := queryFloat(t, db, "SELECT payback_ratio FROM gold_tmdb.fact_box_office WHERE movielens_id = 6"); ok {
		t.Error("payback ratio above the bound was kept")
	}
	if v, _ := queryFloat(t, db, "SELECT payback_ratio FROM gold_tmdb.fact_box_office WHERE movielens_id = 2"); v != 5 {
		t.Errorf("payback ratio = %v, want 5", v)
	}
	for _, tl := range res.Tables {
		if tl.Table == "gold_tmdb.fact_box_office" && tl.Sanitized != 2 {
			t.Errorf("sanitized values = %d, want 2", tl.Sanitized)
		}
	}
}

func TestTMDBStage_StudioPerformance(t *testing.T) {
	db := setupTestDB(t)
	seedTMDB(t, db)
	if _, err := NewTMDBStage(db, testLoad).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Tiny has two financed movies, below the minimum of three
	if n := queryInt(t, db, "SELECT COUNT(*) FROM gold_tmdb.fact_studio_performance WHERE company_id = 20"); n != 0 {
		t.Errorf("studio below minimum support has %d rows", n)
	}

	row := db.Conn().QueryRowContext(context.Background(),
		`SELECT total_movies, profitable_movies, success_rate, top_movie_title, top_movie_revenue
		FROM gold_tmdb.fact_studio_performance WHERE company_id = 10`)
	var (
		total, profitable, topRevenue int64
		rate                          float64
		top                           string
	)
	if err := row.Scan(&total, &profitable, &rate, &top, &topRevenue); err != nil {
		t.Fatalf("scan: %v", err)
	}
	// movie 5 has no budget and is not counted
	if total != 3 || profitable != 3 || rate != 100 {
		t.Errorf("totals = %d/%d/%v, want 3/3/100", total, profitable, rate)
	}
	// Two and Three tie on revenue; the lower id wins
	if top != "Two" || topRevenue != 500_000_000 {
		t.Errorf("top movie = %s (%d), want Two (500000000)", top, topRevenue)
	}
}

func TestTMDBStage_CountryPerformance(t *testing.T) {
	db := setupTestDB(t)
	seedTMDB(t, db)
	if _, err := NewTMDBStage(db, testLoad).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if n := queryInt(t, db, "SELECT COUNT(*) FROM gold_tmdb.fact_country_performance WHERE country_code = 'FR'"); n != 0 {
		t.Errorf("country below minimum support has %d rows", n)
	}
	if n := queryInt(t, db, "SELECT total_movies FROM gold_tmdb.fact_country_performance WHERE country_code = 'US'"); n != 5 {
		t.Errorf("US financed movies = %d, want 5", n)
	}
	// Animation and Comedy both appear twice; the name breaks the tie
	if s := queryString(t, db, "SELECT top_genre FROM gold_tmdb.fact_country_performance WHERE country_code = 'US'"); s.String != "Animation" {
		t.Errorf("top genre = %q, want Animation", s.String)
	}
	if s := queryString(t, db, "SELECT most_prolific_studio FROM gold_tmdb.fact_country_performance WHERE country_code = 'US'"); s.String != "Pixar" {
		t.Errorf("most prolific studio = %q, want Pixar", s.String)
	}
}
