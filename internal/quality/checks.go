// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package quality

import (
	"context"
	"fmt"
	"strings"
)

type check interface {
	name() string
	run(ctx context.Context, v *Validator, r *Report) error
}

// rowCount raises an error when table is empty.
type rowCount struct{ table string }

func (c rowCount) name() string { return "count:" + c.table }

func (c rowCount) run(ctx context.Context, v *Validator, r *Report) error {
	n, err := v.db.CountRows(ctx, c.table)
	if err != nil {
		return err
	}
	r.observe(c.name(), float64(n), true)
	if n == 0 {
		r.raise(c.name(), SeverityError, "table %s is empty", c.table)
	}
	return nil
}

// orphans raises an error when the query counts any row whose key is
// missing from its parent table.
type orphans struct {
	label string
	query string
}

func (c orphans) name() string { return "orphans:" + c.label }

func (c orphans) run(ctx context.Context, v *Validator, r *Report) error {
	n, err := v.db.QueryInt64(ctx, c.query)
	if err != nil {
		return err
	}
	r.observe(c.name(), float64(n), true)
	if n > 0 {
		r.raise(c.name(), SeverityError, "%d %s rows reference a missing parent", n, c.label)
	}
	return nil
}

// valueRange records the minimum, average and maximum of expr in table and
// raises an error when the minimum or maximum falls outside [lo, hi].
// An empty table passes.
type valueRange struct {
	label  string
	table  string
	expr   string
	lo, hi float64
}

func (c valueRange) name() string { return "range:" + c.label }

func (c valueRange) run(ctx context.Context, v *Validator, r *Report) error {
	for _, agg := range []string{"MIN", "AVG", "MAX"} {
		val, ok, err := v.db.QueryFloat64(ctx, fmt.Sprintf("SELECT %s(%s)::DOUBLE FROM %s", agg, c.expr, c.table))
		if err != nil {
			return err
		}
		stat := strings.ToLower(agg)
		r.observe(c.name()+":"+stat, val, ok)
		if ok && agg != "AVG" && (val < c.lo || val > c.hi) {
			r.raise(c.name(), SeverityError, "%s %s = %v outside [%v, %v]", stat, c.label, val, c.lo, c.hi)
		}
	}
	return nil
}

// coverage reports the percentage of rows of table failing the present
// condition. A gap above the configured threshold raises an issue of the
// given severity.
type coverage struct {
	label    string
	table    string
	present  string
	severity Severity
}

func (c coverage) name() string { return "coverage:" + c.label }

func (c coverage) run(ctx context.Context, v *Validator, r *Report) error {
	total, err := v.db.CountRows(ctx, c.table)
	if err != nil {
		return err
	}
	if total == 0 {
		r.observe(c.name(), 0, false)
		return nil
	}
	present, err := v.db.QueryInt64(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", c.table, c.present))
	if err != nil {
		return err
	}
	missing := float64(total-present) / float64(total) * 100
	r.observe(c.name(), missing, true)
	if missing > v.cfg.MissingWarnPercent {
		r.raise(c.name(), c.severity, "%.1f%% of %s rows lack %s", missing, c.table, c.label)
	}
	return nil
}

// nonFinite raises an error when a DOUBLE column holds NaN or infinity.
type nonFinite struct {
	table, column string
}

func (c nonFinite) name() string { return "finite:" + c.table + "." + c.column }

func (c nonFinite) run(ctx context.Context, v *Validator, r *Report) error {
	n, err := v.db.QueryInt64(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND (isnan(%s) OR isinf(%s))",
		c.table, c.column, c.column, c.column))
	if err != nil {
		return err
	}
	r.observe(c.name(), float64(n), true)
	if n > 0 {
		r.raise(c.name(), SeverityError, "%d non-finite values in %s.%s", n, c.table, c.column)
	}
	return nil
}

var layerChecks = map[string][]check{
	LayerSilver: {
		rowCount{"silver.movies"},
		rowCount{"silver.genres"},
		rowCount{"silver.movie_genres"},
		rowCount{"silver.ratings"},
		rowCount{"silver.tags"},
		rowCount{"silver.links"},
		orphans{"ratings", `SELECT COUNT(*) FROM silver.ratings r
			WHERE NOT EXISTS (SELECT 1 FROM silver.movies m WHERE m.movieid = r.movieid)`},
		orphans{"movie_genres", `SELECT COUNT(*) FROM silver.movie_genres mg
			WHERE NOT EXISTS (SELECT 1 FROM silver.movies m WHERE m.movieid = mg.movieid)
			   OR NOT EXISTS (SELECT 1 FROM silver.genres g WHERE g.genre_id = mg.genre_id)`},
		orphans{"links", `SELECT COUNT(*) FROM silver.links l
			WHERE NOT EXISTS (SELECT 1 FROM silver.movies m WHERE m.movieid = l.movieid)`},
		orphans{"tags", `SELECT COUNT(*) FROM silver.tags t
			WHERE NOT EXISTS (SELECT 1 FROM silver.movies m WHERE m.movieid = t.movieid)`},
		valueRange{label: "rating", table: "silver.ratings", expr: "rating", lo: 0.5, hi: 5.0},
		coverage{
			label:    "genres",
			table:    "silver.movies",
			present:  "movieid IN (SELECT movieid FROM silver.movie_genres)",
			severity: SeverityWarning,
		},
	},
	LayerSilverTMDB: {
		rowCount{"silver_tmdb.movies_tmdb"},
		rowCount{"silver_tmdb.genres_tmdb"},
		rowCount{"silver_tmdb.production_companies_tmdb"},
		rowCount{"silver_tmdb.production_countries_tmdb"},
		rowCount{"silver_tmdb.spoken_languages_tmdb"},
		orphans{"tmdb bridges", `SELECT
			(SELECT COUNT(*) FROM silver_tmdb.genres_tmdb b WHERE b.movielens_id NOT IN (SELECT movielens_id FROM silver_tmdb.movies_tmdb)) +
			(SELECT COUNT(*) FROM silver_tmdb.production_companies_tmdb b WHERE b.movielens_id NOT IN (SELECT movielens_id FROM silver_tmdb.movies_tmdb)) +
			(SELECT COUNT(*) FROM silver_tmdb.production_countries_tmdb b WHERE b.movielens_id NOT IN (SELECT movielens_id FROM silver_tmdb.movies_tmdb)) +
			(SELECT COUNT(*) FROM silver_tmdb.spoken_languages_tmdb b WHERE b.movielens_id NOT IN (SELECT movielens_id FROM silver_tmdb.movies_tmdb))`},
		valueRange{label: "vote_average", table: "silver_tmdb.movies_tmdb", expr: "vote_average", lo: 0, hi: 10},
		valueRange{label: "quality_score", table: "silver_tmdb.movies_tmdb", expr: "quality_score", lo: 0, hi: 100},
		coverage{label: "budget", table: "silver_tmdb.movies_tmdb", present: "budget > 0", severity: SeverityWarning},
		coverage{label: "revenue", table: "silver_tmdb.movies_tmdb", present: "revenue > 0", severity: SeverityWarning},
	},
	LayerGold: {
		rowCount{"gold.dim_genres"},
		rowCount{"gold.dim_movies"},
		rowCount{"gold.fact_movie_ratings"},
		rowCount{"gold.fact_ratings_by_year"},
		rowCount{"gold.fact_movie_genres"},
		valueRange{label: "dim_movies avg_rating", table: "gold.dim_movies", expr: "avg_rating", lo: 0.5, hi: 5.0},
		valueRange{label: "fact_movie_ratings avg_rating", table: "gold.fact_movie_ratings", expr: "avg_rating", lo: 0.5, hi: 5.0},
		coverage{label: "ratings", table: "gold.dim_movies", present: "total_ratings > 0", severity: SeverityInfo},
		orphans{"fact_movie_ratings", `SELECT COUNT(*) FROM gold.fact_movie_ratings f
			WHERE NOT EXISTS (SELECT 1 FROM gold.dim_movies m WHERE m.movieid = f.movieid)`},
		orphans{"fact_movie_genres", `SELECT COUNT(*) FROM gold.fact_movie_genres f
			WHERE NOT EXISTS (SELECT 1 FROM gold.dim_movies m WHERE m.movieid = f.movieid)
			   OR NOT EXISTS (SELECT 1 FROM gold.dim_genres g WHERE g.genre_id = f.genre_id)`},
	},
	LayerGoldTMDB: {
		rowCount{"gold_tmdb.dim_movies_tmdb"},
		rowCount{"gold_tmdb.fact_box_office"},
		rowCount{"gold_tmdb.fact_studio_performance"},
		rowCount{"gold_tmdb.fact_country_performance"},
		coverage{
			label:    "financials",
			table:    "gold_tmdb.dim_movies_tmdb",
			present:  "budget > 0 AND revenue > 0",
			severity: SeverityWarning,
		},
		valueRange{label: "quality_score", table: "gold_tmdb.dim_movies_tmdb", expr: "quality_score", lo: 0, hi: 100},
		nonFinite{"gold_tmdb.fact_box_office", "roi"},
		nonFinite{"gold_tmdb.fact_box_office", "payback_ratio"},
		nonFinite{"gold_tmdb.fact_studio_performance", "avg_roi"},
		nonFinite{"gold_tmdb.fact_country_performance", "avg_roi"},
	},
}
