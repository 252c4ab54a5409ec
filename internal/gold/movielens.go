// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package gold

import (
	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
)

// DimGenres aggregates movies and ratings per genre.
var DimGenres = Aggregate{
	Table: database.Table{
		Schema:  database.SchemaGold,
		Name:    "dim_genres",
		Columns: []string{"genre_id", "genre_name", "total_movies", "total_ratings", "avg_rating"},
	},
	Query: `
		SELECT
			g.genre_id,
			g.genre_name,
			COUNT(DISTINCT mg.movieid) AS total_movies,
			COUNT(r.rating) AS total_ratings,
			ROUND(AVG(r.rating), 2)::DOUBLE AS avg_rating
		FROM silver.genres g
		LEFT JOIN silver.movie_genres mg ON g.genre_id = mg.genre_id
		LEFT JOIN silver.ratings r ON mg.movieid = r.movieid
		GROUP BY g.genre_id, g.genre_name
		ORDER BY g.genre_id`,
}

// DimMovies enriches every silver movie with its links and activity counts.
var DimMovies = Aggregate{
	Table: database.Table{
		Schema: database.SchemaGold,
		Name:   "dim_movies",
		Columns: []string{
			"movieid", "title", "release_year", "imdbid", "tmdbid",
			"avg_rating", "total_ratings", "total_users", "total_tags",
		},
	},
	Query: `
		WITH r AS (
			SELECT movieid, AVG(rating) AS avg_rating, COUNT(*) AS total_ratings, COUNT(DISTINCT userid) AS total_users
			FROM silver.ratings
			GROUP BY movieid
		),
		t AS (
			SELECT movieid, COUNT(DISTINCT tag) AS total_tags
			FROM silver.tags
			GROUP BY movieid
		)
		SELECT
			m.movieid,
			m.title,
			NULLIF(m.year, 0) AS release_year,
			l.imdbid,
			l.tmdbid,
			ROUND(r.avg_rating, 2)::DOUBLE AS avg_rating,
			COALESCE(r.total_ratings, 0) AS total_ratings,
			COALESCE(r.total_users, 0) AS total_users,
			COALESCE(t.total_tags, 0) AS total_tags
		FROM silver.movies m
		LEFT JOIN silver.links l ON m.movieid = l.movieid
		LEFT JOIN r ON m.movieid = r.movieid
		LEFT JOIN t ON m.movieid = t.movieid
		ORDER BY m.movieid`,
}

// FactMovieRatings holds rating statistics per rated movie. The standard
// deviation needs at least two ratings.
var FactMovieRatings = Aggregate{
	Table: database.Table{
		Schema: database.SchemaGold,
		Name:   "fact_movie_ratings",
		Columns: []string{
			"movieid", "total_ratings", "avg_rating", "min_rating", "max_rating",
			"stddev_rating", "total_users",
		},
	},
	Query: `
		SELECT
			movieid,
			COUNT(*) AS total_ratings,
			ROUND(AVG(rating), 2)::DOUBLE AS avg_rating,
			MIN(rating) AS min_rating,
			MAX(rating) AS max_rating,
			CASE WHEN COUNT(*) >= 2 THEN ROUND(STDDEV_SAMP(rating), 2) END::DOUBLE AS stddev_rating,
			COUNT(DISTINCT userid) AS total_users
		FROM silver.ratings
		GROUP BY movieid
		ORDER BY movieid`,
}

// FactRatingsByYear groups ratings by the UTC year of their timestamp.
var FactRatingsByYear = Aggregate{
	Table: database.Table{
		Schema:  database.SchemaGold,
		Name:    "fact_ratings_by_year",
		Columns: []string{"rating_year", "total_ratings", "avg_rating", "active_users", "movies_rated"},
	},
	Query: `
		SELECT
			year(epoch_ms("timestamp" * 1000))::INTEGER AS rating_year,
			COUNT(*) AS total_ratings,
			ROUND(AVG(rating), 2)::DOUBLE AS avg_rating,
			COUNT(DISTINCT userid) AS active_users,
			COUNT(DISTINCT movieid) AS movies_rated
		FROM silver.ratings
		GROUP BY rating_year
		ORDER BY rating_year`,
}

// FactMovieGenres copies the movie-genre bridge.
var FactMovieGenres = Aggregate{
	Table: database.Table{
		Schema:  database.SchemaGold,
		Name:    "fact_movie_genres",
		Columns: []string{"movieid", "genre_id"},
	},
	Query: `SELECT movieid, genre_id FROM silver.movie_genres ORDER BY movieid, genre_id`,
}

// NewMovieLensStage returns the MovieLens gold stage.
func NewMovieLensStage(db *database.DB, load config.LoadConfig) *Stage {
	return NewStage("gold_movielens", db, load.GoldBatchSize,
		DimGenres,
		DimMovies,
		FactMovieRatings,
		FactRatingsByYear,
		FactMovieGenres,
	)
}
