// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package gold

import (
	"fmt"

	"github.com/joaoVMiguez/DataFlix/internal/bucket"
	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
)

// Minimum number of financed movies (budget and revenue known) before a
// studio or country gets a performance row.
const (
	MinStudioMovies  = 3
	MinCountryMovies = 5
)

// DimMoviesTMDB is the TMDB movie dimension with per-movie bridge summaries.
var DimMoviesTMDB = Aggregate{
	Table: database.Table{
		Schema: database.SchemaGoldTMDB,
		Name:   "dim_movies_tmdb",
		Columns: []string{
			"movielens_id", "tmdb_id", "imdb_id", "title", "original_title", "original_language",
			"release_date", "release_year", "release_decade", "runtime",
			"budget", "revenue", "popularity", "vote_average", "vote_count",
			"total_genres", "genres_list", "total_production_companies", "main_production_company",
			"total_countries", "main_country", "total_languages",
			"quality_score", "has_budget", "has_revenue", "has_overview", "has_poster",
		},
	},
	Query: `
		WITH genres AS (
			SELECT
				movielens_id,
				COUNT(DISTINCT genre_id) AS total_genres,
				STRING_AGG(DISTINCT genre_name, ', ' ORDER BY genre_name) AS genres_list
			FROM silver_tmdb.genres_tmdb
			GROUP BY movielens_id
		),
		companies AS (
			SELECT movielens_id, COUNT(DISTINCT company_id) AS total_companies, MAX(company_name) AS main_company
			FROM silver_tmdb.production_companies_tmdb
			GROUP BY movielens_id
		),
		countries AS (
			SELECT movielens_id, COUNT(DISTINCT country_code) AS total_countries, MAX(country_name) AS main_country
			FROM silver_tmdb.production_countries_tmdb
			GROUP BY movielens_id
		),
		languages AS (
			SELECT movielens_id, COUNT(DISTINCT language_code) AS total_languages
			FROM silver_tmdb.spoken_languages_tmdb
			GROUP BY movielens_id
		)
		SELECT
			m.movielens_id, m.tmdb_id, m.imdb_id, m.title, m.original_title, m.original_language,
			m.release_date, m.release_year, m.release_decade, m.runtime,
			m.budget, m.revenue, m.popularity, m.vote_average, m.vote_count,
			COALESCE(g.total_genres, 0),
			COALESCE(g.genres_list, ''),
			COALESCE(c.total_companies, 0),
			c.main_company,
			COALESCE(co.total_countries, 0),
			co.main_country,
			COALESCE(l.total_languages, 0),
			m.quality_score, m.has_budget, m.has_revenue, m.has_overview, m.has_poster
		FROM silver_tmdb.movies_tmdb m
		LEFT JOIN genres g ON m.movielens_id = g.movielens_id
		LEFT JOIN companies c ON m.movielens_id = c.movielens_id
		LEFT JOIN countries co ON m.movielens_id = co.movielens_id
		LEFT JOIN languages l ON m.movielens_id = l.movielens_id
		ORDER BY m.movielens_id`,
}

// FactBoxOffice holds the financial profile of every financed movie.
var FactBoxOffice = Aggregate{
	Table: database.Table{
		Schema: database.SchemaGoldTMDB,
		Name:   "fact_box_office",
		Columns: []string{
			"movielens_id", "tmdb_id", "title", "release_year",
			"budget", "revenue", "profit", "roi", "payback_ratio",
			"budget_category", "revenue_category", "roi_category",
			"is_profitable", "is_blockbuster",
		},
	},
	Query: fmt.Sprintf(`
		SELECT
			movielens_id, tmdb_id, title, release_year,
			budget, revenue, profit, roi,
			ROUND(revenue::DOUBLE / NULLIF(budget, 0), 2) AS payback_ratio,
			%s AS budget_category,
			%s AS revenue_category,
			%s AS roi_category,
			profit > 0 AS is_profitable,
			revenue >= %d AS is_blockbuster
		FROM silver_tmdb.movies_tmdb
		WHERE budget > 0 AND revenue > 0
		ORDER BY movielens_id`,
		bucket.Budget.SQL("budget"),
		bucket.Revenue.SQL("revenue"),
		bucket.ROI.SQL("roi"),
		bucket.BlockbusterRevenue,
	),
	Ratios: []string{"roi", "payback_ratio"},
}

// FactStudioPerformance aggregates financed movies per production company.
// The top movie is the highest grossing one, ties going to the lowest
// MovieLens id.
var FactStudioPerformance = Aggregate{
	Table: database.Table{
		Schema: database.SchemaGoldTMDB,
		Name:   "fact_studio_performance",
		Columns: []string{
			"company_id", "company_name", "total_movies",
			"total_budget", "total_revenue", "total_profit",
			"avg_budget", "avg_revenue", "avg_roi",
			"profitable_movies", "success_rate", "top_movie_title", "top_movie_revenue",
		},
	},
	Query: `
		WITH studio_movies AS (
			SELECT pc.company_id, pc.company_name, m.movielens_id, m.title, m.budget, m.revenue, m.profit, m.roi
			FROM silver_tmdb.production_companies_tmdb pc
			JOIN silver_tmdb.movies_tmdb m ON pc.movielens_id = m.movielens_id
			WHERE m.budget > 0 AND m.revenue > 0
		),
		top_movies AS (
			SELECT
				company_id, title, revenue,
				ROW_NUMBER() OVER (PARTITION BY company_id ORDER BY revenue DESC, movielens_id ASC) AS rn
			FROM studio_movies
		)
		SELECT
			s.company_id,
			MAX(s.company_name) AS company_name,
			COUNT(*) AS total_movies,
			SUM(s.budget)::BIGINT AS total_budget,
			SUM(s.revenue)::BIGINT AS total_revenue,
			SUM(s.profit)::BIGINT AS total_profit,
			AVG(s.budget)::DOUBLE AS avg_budget,
			AVG(s.revenue)::DOUBLE AS avg_revenue,
			ROUND(AVG(s.roi), 2)::DOUBLE AS avg_roi,
			COUNT(*) FILTER (WHERE s.profit > 0) AS profitable_movies,
			ROUND(100.0 * (COUNT(*) FILTER (WHERE s.profit > 0))::DOUBLE / NULLIF(COUNT(*), 0), 2)::DOUBLE AS success_rate,
			MAX(t.title) AS top_movie_title,
			MAX(t.revenue) AS top_movie_revenue
		FROM studio_movies s
		LEFT JOIN top_movies t ON s.company_id = t.company_id AND t.rn = 1
		GROUP BY s.company_id
		HAVING COUNT(*) >= ?
		ORDER BY s.company_id`,
	Args:   []any{MinStudioMovies},
	Ratios: []string{"avg_roi", "success_rate"},
}

// FactCountryPerformance aggregates financed movies per production country.
// Top genre and most prolific studio count every movie of the country, ties
// going to the alphabetically first name.
var FactCountryPerformance = Aggregate{
	Table: database.Table{
		Schema: database.SchemaGoldTMDB,
		Name:   "fact_country_performance",
		Columns: []string{
			"country_code", "country_name", "total_movies",
			"total_budget", "total_revenue", "total_profit",
			"avg_budget", "avg_revenue", "avg_roi",
			"top_genre", "most_prolific_studio",
		},
	},
	Query: `
		WITH country_movies AS (
			SELECT pc.country_code, pc.country_name, m.movielens_id, m.budget, m.revenue, m.profit, m.roi
			FROM silver_tmdb.production_countries_tmdb pc
			JOIN silver_tmdb.movies_tmdb m ON pc.movielens_id = m.movielens_id
			WHERE m.budget > 0 AND m.revenue > 0
		),
		top_genres AS (
			SELECT
				pc.country_code, g.genre_name,
				ROW_NUMBER() OVER (PARTITION BY pc.country_code ORDER BY COUNT(*) DESC, g.genre_name ASC) AS rn
			FROM silver_tmdb.production_countries_tmdb pc
			JOIN silver_tmdb.genres_tmdb g ON pc.movielens_id = g.movielens_id
			WHERE g.genre_name IS NOT NULL
			GROUP BY pc.country_code, g.genre_name
		),
		top_studios AS (
			SELECT
				pc.country_code, c.company_name,
				ROW_NUMBER() OVER (PARTITION BY pc.country_code ORDER BY COUNT(*) DESC, c.company_name ASC) AS rn
			FROM silver_tmdb.production_countries_tmdb pc
			JOIN silver_tmdb.production_companies_tmdb c ON pc.movielens_id = c.movielens_id
			WHERE c.company_name IS NOT NULL
			GROUP BY pc.country_code, c.company_name
		)
		SELECT
			cm.country_code,
			MAX(cm.country_name) AS country_name,
			COUNT(*) AS total_movies,
			SUM(cm.budget)::BIGINT AS total_budget,
			SUM(cm.revenue)::BIGINT AS total_revenue,
			SUM(cm.profit)::BIGINT AS total_profit,
			AVG(cm.budget)::DOUBLE AS avg_budget,
			AVG(cm.revenue)::DOUBLE AS avg_revenue,
			ROUND(AVG(cm.roi), 2)::DOUBLE AS avg_roi,
			MAX(tg.genre_name) AS top_genre,
			MAX(ts.company_name) AS most_prolific_studio
		FROM country_movies cm
		LEFT JOIN top_genres tg ON cm.country_code = tg.country_code AND tg.rn = 1
		LEFT JOIN top_studios ts ON cm.country_code = ts.country_code AND ts.rn = 1
		GROUP BY cm.country_code
		HAVING COUNT(*) >= ?
		ORDER BY cm.country_code`,
	Args:   []any{MinCountryMovies},
	Ratios: []string{"avg_roi"},
}

// NewTMDBStage returns the TMDB gold stage.
func NewTMDBStage(db *database.DB, load config.LoadConfig) *Stage {
	return NewStage("gold_tmdb", db, load.GoldBatchSize,
		DimMoviesTMDB,
		FactBoxOffice,
		FactStudioPerformance,
		FactCountryPerformance,
	)
}
