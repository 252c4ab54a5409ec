// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package database

import (
	"context"
	"time"
)

// Schema names.
const (
	SchemaSilver     = "silver"
	SchemaSilverTMDB = "silver_tmdb"
	SchemaGold       = "gold"
	SchemaGoldTMDB   = "gold_tmdb"
)

// schemaContext bounds DDL statements run at startup.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

var silverSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS silver`,
	`CREATE TABLE IF NOT EXISTS silver.movies (
		movieid INTEGER NOT NULL,
		title VARCHAR NOT NULL,
		year INTEGER NOT NULL,
		genres VARCHAR NOT NULL,
		PRIMARY KEY (movieid)
	)`,
	`CREATE TABLE IF NOT EXISTS silver.genres (
		genre_id INTEGER NOT NULL,
		genre_name VARCHAR NOT NULL,
		PRIMARY KEY (genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS silver.movie_genres (
		movieid INTEGER NOT NULL,
		genre_id INTEGER NOT NULL,
		PRIMARY KEY (movieid, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS silver.ratings (
		userid INTEGER NOT NULL,
		movieid INTEGER NOT NULL,
		rating DOUBLE NOT NULL,
		"timestamp" BIGINT NOT NULL,
		PRIMARY KEY (userid, movieid, "timestamp")
	)`,
	`CREATE TABLE IF NOT EXISTS silver.tags (
		userid INTEGER NOT NULL,
		movieid INTEGER NOT NULL,
		tag VARCHAR NOT NULL,
		"timestamp" BIGINT NOT NULL,
		PRIMARY KEY (userid, movieid, "timestamp")
	)`,
	`CREATE TABLE IF NOT EXISTS silver.links (
		movieid INTEGER NOT NULL,
		imdbid VARCHAR,
		tmdbid VARCHAR,
		PRIMARY KEY (movieid)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_movieid ON silver.ratings(movieid)`,
	`CREATE INDEX IF NOT EXISTS idx_tags_movieid ON silver.tags(movieid)`,
	`CREATE INDEX IF NOT EXISTS idx_movie_genres_genre_id ON silver.movie_genres(genre_id)`,
	`CREATE INDEX IF NOT EXISTS idx_links_tmdbid ON silver.links(tmdbid)`,
}

var silverTMDBSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS silver_tmdb`,
	`CREATE TABLE IF NOT EXISTS silver_tmdb.movies_tmdb (
		movielens_id INTEGER NOT NULL,
		imdb_id VARCHAR,
		tmdb_id INTEGER,
		title VARCHAR,
		original_title VARCHAR,
		original_language VARCHAR,
		overview VARCHAR,
		tagline VARCHAR,
		status VARCHAR,
		release_date DATE,
		release_year INTEGER,
		release_month INTEGER,
		release_decade INTEGER,
		runtime INTEGER,
		budget BIGINT NOT NULL,
		revenue BIGINT NOT NULL,
		profit BIGINT NOT NULL,
		roi DOUBLE,
		popularity DOUBLE,
		vote_average DOUBLE,
		vote_count INTEGER,
		adult BOOLEAN,
		video BOOLEAN,
		homepage VARCHAR,
		poster_path VARCHAR,
		backdrop_path VARCHAR,
		has_budget BOOLEAN NOT NULL,
		has_revenue BOOLEAN NOT NULL,
		has_overview BOOLEAN NOT NULL,
		has_poster BOOLEAN NOT NULL,
		has_backdrop BOOLEAN NOT NULL,
		budget_category VARCHAR NOT NULL,
		quality_score INTEGER NOT NULL,
		extracted_at TIMESTAMP,
		PRIMARY KEY (movielens_id)
	)`,
	`CREATE TABLE IF NOT EXISTS silver_tmdb.genres_tmdb (
		movielens_id INTEGER NOT NULL,
		imdb_id VARCHAR,
		tmdb_id INTEGER,
		genre_id INTEGER NOT NULL,
		genre_name VARCHAR,
		PRIMARY KEY (movielens_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS silver_tmdb.production_companies_tmdb (
		movielens_id INTEGER NOT NULL,
		imdb_id VARCHAR,
		tmdb_id INTEGER,
		company_id INTEGER NOT NULL,
		company_name VARCHAR,
		company_logo_path VARCHAR,
		company_country VARCHAR,
		PRIMARY KEY (movielens_id, company_id)
	)`,
	`CREATE TABLE IF NOT EXISTS silver_tmdb.production_countries_tmdb (
		movielens_id INTEGER NOT NULL,
		imdb_id VARCHAR,
		tmdb_id INTEGER,
		country_code VARCHAR NOT NULL,
		country_name VARCHAR,
		PRIMARY KEY (movielens_id, country_code)
	)`,
	`CREATE TABLE IF NOT EXISTS silver_tmdb.spoken_languages_tmdb (
		movielens_id INTEGER NOT NULL,
		imdb_id VARCHAR,
		tmdb_id INTEGER,
		language_code VARCHAR NOT NULL,
		language_name VARCHAR,
		language_english_name VARCHAR,
		PRIMARY KEY (movielens_id, language_code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movies_tmdb_tmdb_id ON silver_tmdb.movies_tmdb(tmdb_id)`,
	`CREATE INDEX IF NOT EXISTS idx_genres_tmdb_genre_id ON silver_tmdb.genres_tmdb(genre_id)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_tmdb_company_id ON silver_tmdb.production_companies_tmdb(company_id)`,
	`CREATE INDEX IF NOT EXISTS idx_countries_tmdb_country_code ON silver_tmdb.production_countries_tmdb(country_code)`,
}

var goldSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS gold`,
	`CREATE TABLE IF NOT EXISTS gold.dim_genres (
		genre_id INTEGER NOT NULL,
		genre_name VARCHAR NOT NULL,
		total_movies BIGINT NOT NULL,
		total_ratings BIGINT NOT NULL,
		avg_rating DOUBLE,
		PRIMARY KEY (genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS gold.dim_movies (
		movieid INTEGER NOT NULL,
		title VARCHAR NOT NULL,
		release_year INTEGER,
		imdbid VARCHAR,
		tmdbid VARCHAR,
		avg_rating DOUBLE,
		total_ratings BIGINT NOT NULL,
		total_users BIGINT NOT NULL,
		total_tags BIGINT NOT NULL,
		PRIMARY KEY (movieid)
	)`,
	`CREATE TABLE IF NOT EXISTS gold.fact_movie_ratings (
		movieid INTEGER NOT NULL,
		total_ratings BIGINT NOT NULL,
		avg_rating DOUBLE,
		min_rating DOUBLE,
		max_rating DOUBLE,
		stddev_rating DOUBLE,
		total_users BIGINT NOT NULL,
		PRIMARY KEY (movieid)
	)`,
	`CREATE TABLE IF NOT EXISTS gold.fact_ratings_by_year (
		rating_year INTEGER NOT NULL,
		total_ratings BIGINT NOT NULL,
		avg_rating DOUBLE,
		active_users BIGINT NOT NULL,
		movies_rated BIGINT NOT NULL,
		PRIMARY KEY (rating_year)
	)`,
	`CREATE TABLE IF NOT EXISTS gold.fact_movie_genres (
		movieid INTEGER NOT NULL,
		genre_id INTEGER NOT NULL,
		PRIMARY KEY (movieid, genre_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_movie_genres_genre_id ON gold.fact_movie_genres(genre_id)`,
	`CREATE INDEX IF NOT EXISTS idx_dim_movies_release_year ON gold.dim_movies(release_year)`,
}

var goldTMDBSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS gold_tmdb`,
	`CREATE TABLE IF NOT EXISTS gold_tmdb.dim_movies_tmdb (
		movielens_id INTEGER NOT NULL,
		tmdb_id INTEGER,
		imdb_id VARCHAR,
		title VARCHAR,
		original_title VARCHAR,
		original_language VARCHAR,
		release_date DATE,
		release_year INTEGER,
		release_decade INTEGER,
		runtime INTEGER,
		budget BIGINT,
		revenue BIGINT,
		popularity DOUBLE,
		vote_average DOUBLE,
		vote_count INTEGER,
		total_genres INTEGER NOT NULL,
		genres_list VARCHAR,
		total_production_companies INTEGER NOT NULL,
		main_production_company VARCHAR,
		total_countries INTEGER NOT NULL,
		main_country VARCHAR,
		total_languages INTEGER NOT NULL,
		quality_score INTEGER,
		has_budget BOOLEAN,
		has_revenue BOOLEAN,
		has_overview BOOLEAN,
		has_poster BOOLEAN,
		PRIMARY KEY (movielens_id)
	)`,
	`CREATE TABLE IF NOT EXISTS gold_tmdb.fact_box_office (
		movielens_id INTEGER NOT NULL,
		tmdb_id INTEGER,
		title VARCHAR,
		release_year INTEGER,
		budget BIGINT NOT NULL,
		revenue BIGINT NOT NULL,
		profit BIGINT NOT NULL,
		roi DOUBLE,
		payback_ratio DOUBLE,
		budget_category VARCHAR NOT NULL,
		revenue_category VARCHAR NOT NULL,
		roi_category VARCHAR NOT NULL,
		is_profitable BOOLEAN NOT NULL,
		is_blockbuster BOOLEAN NOT NULL,
		PRIMARY KEY (movielens_id)
	)`,
	`CREATE TABLE IF NOT EXISTS gold_tmdb.fact_studio_performance (
		company_id INTEGER NOT NULL,
		company_name VARCHAR,
		total_movies BIGINT NOT NULL,
		total_budget BIGINT NOT NULL,
		total_revenue BIGINT NOT NULL,
		total_profit BIGINT NOT NULL,
		avg_budget DOUBLE,
		avg_revenue DOUBLE,
		avg_roi DOUBLE,
		profitable_movies BIGINT NOT NULL,
		success_rate DOUBLE,
		top_movie_title VARCHAR,
		top_movie_revenue BIGINT,
		PRIMARY KEY (company_id)
	)`,
	`CREATE TABLE IF NOT EXISTS gold_tmdb.fact_country_performance (
		country_code VARCHAR NOT NULL,
		country_name VARCHAR,
		total_movies BIGINT NOT NULL,
		total_budget BIGINT NOT NULL,
		total_revenue BIGINT NOT NULL,
		total_profit BIGINT NOT NULL,
		avg_budget DOUBLE,
		avg_revenue DOUBLE,
		avg_roi DOUBLE,
		top_genre VARCHAR,
		most_prolific_studio VARCHAR,
		PRIMARY KEY (country_code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_box_office_release_year ON gold_tmdb.fact_box_office(release_year)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_box_office_budget_category ON gold_tmdb.fact_box_office(budget_category)`,
}
