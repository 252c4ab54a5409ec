// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package silver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/bronze"
	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
)

// TMDB silver tables in load order.
var (
	MoviesTMDBTable = database.Table{
		Schema: database.SchemaSilverTMDB,
		Name:   "movies_tmdb",
		Columns: []string{
			"movielens_id", "imdb_id", "tmdb_id", "title", "original_title",
			"original_language", "overview", "tagline", "status",
			"release_date", "release_year", "release_month", "release_decade",
			"runtime", "budget", "revenue", "profit", "roi",
			"popularity", "vote_average", "vote_count",
			"adult", "video", "homepage", "poster_path", "backdrop_path",
			"has_budget", "has_revenue", "has_overview", "has_poster", "has_backdrop",
			"budget_category", "quality_score", "extracted_at",
		},
		Dependents: []string{
			"silver_tmdb.genres_tmdb",
			"silver_tmdb.production_companies_tmdb",
			"silver_tmdb.production_countries_tmdb",
			"silver_tmdb.spoken_languages_tmdb",
		},
	}
	GenresTMDBTable = database.Table{
		Schema:  database.SchemaSilverTMDB,
		Name:    "genres_tmdb",
		Columns: []string{"movielens_id", "imdb_id", "tmdb_id", "genre_id", "genre_name"},
	}
	CompaniesTMDBTable = database.Table{
		Schema: database.SchemaSilverTMDB,
		Name:   "production_companies_tmdb",
		Columns: []string{
			"movielens_id", "imdb_id", "tmdb_id",
			"company_id", "company_name", "company_logo_path", "company_country",
		},
	}
	CountriesTMDBTable = database.Table{
		Schema:  database.SchemaSilverTMDB,
		Name:    "production_countries_tmdb",
		Columns: []string{"movielens_id", "imdb_id", "tmdb_id", "country_code", "country_name"},
	}
	LanguagesTMDBTable = database.Table{
		Schema: database.SchemaSilverTMDB,
		Name:   "spoken_languages_tmdb",
		Columns: []string{
			"movielens_id", "imdb_id", "tmdb_id",
			"language_code", "language_name", "language_english_name",
		},
	}
)

// TMDBStage loads the bronze TMDB movie batches into silver_tmdb.
type TMDBStage struct {
	db      *database.DB
	store   objectstore.Store
	codec   *database.ParquetCodec
	bucket  string
	prefix  string
	workDir string
	load    config.LoadConfig
}

// NewTMDBStage creates a TMDBStage reading prefix/batch_NNNNN.parquet objects.
func NewTMDBStage(db *database.DB, store objectstore.Store, codec *database.ParquetCodec, bucket, prefix, workDir string, load config.LoadConfig) *TMDBStage {
	return &TMDBStage{
		db:      db,
		store:   store,
		codec:   codec,
		bucket:  bucket,
		prefix:  prefix,
		workDir: workDir,
		load:    load,
	}
}

// Run replaces the silver TMDB tables with the contents of every bronze batch.
// Without any batch the stage is skipped and existing tables are left as is.
func (s *TMDBStage) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	keys, err := bronze.BatchKeys(ctx, s.store, s.bucket, s.prefix)
	if err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		return res, err
	}
	if len(keys) == 0 {
		logging.Warn().Str("bucket", s.bucket).Str("prefix", s.prefix).Msg("No bronze movie batches found, skipping")
		res.Skipped = append(res.Skipped, s.prefix)
		return res, nil
	}

	movies, unreadable, err := s.readBatches(ctx, keys)
	if err != nil {
		return res, err
	}
	res.Skipped = append(res.Skipped, unreadable...)
	if len(unreadable) == len(keys) {
		logging.Warn().Int("batches", len(keys)).Msg("No readable bronze movie batch, silver TMDB tables left unchanged")
		return res, nil
	}

	tr := NewMovieTMDBTransformer()
	ex := NewExploder()
	var (
		movieRows                               [][]any
		genres, companies, countries, languages [][]any
	)
	for i := range movies {
		b := &movies[i]
		m, ok := tr.Apply(b)
		if !ok {
			continue
		}
		movieRows = append(movieRows, m.Row())
		genres = append(genres, ex.Genres(b)...)
		companies = append(companies, ex.Companies(b)...)
		countries = append(countries, ex.Countries(b)...)
		languages = append(languages, ex.Languages(b)...)
	}

	n, err := s.db.LoadRows(ctx, withSizes(MoviesTMDBTable, s.load.TMDBBatchSize, 0), movieRows)
	if err != nil {
		return res, fmt.Errorf("load movies_tmdb: %w", err)
	}
	res.add(MoviesTMDBTable.FullName(), n, tr.Drops)

	bridges := []struct {
		table database.Table
		rows  [][]any
	}{
		{GenresTMDBTable, genres},
		{CompaniesTMDBTable, companies},
		{CountriesTMDBTable, countries},
		{LanguagesTMDBTable, languages},
	}
	for _, br := range bridges {
		n, err := s.db.LoadRows(ctx, withSizes(br.table, s.load.DimensionBatchSize, 0), br.rows)
		if err != nil {
			return res, fmt.Errorf("load %s: %w", br.table.Name, err)
		}
		res.add(br.table.FullName(), n, ex.Drops[br.table.Name])
		if empty := ex.Empty[br.table.Name]; empty > 0 {
			logging.Info().Str("table", br.table.FullName()).Int("movies", empty).Msg("Movies with no entries for bridge table")
		}
	}

	res.Duration = time.Since(start)
	logging.Info().
		Int("batches", len(keys)).
		Int("movies", len(movies)).
		Dur("duration", res.Duration).
		Msg("Silver TMDB stage complete")
	return res, nil
}

// readBatches decodes every batch in keys. A batch that cannot be downloaded
// or decoded is logged and returned in unreadable; its rows are dropped.
func (s *TMDBStage) readBatches(ctx context.Context, keys []string) (movies []BronzeMovie, unreadable []string, err error) {
	dir, err := os.MkdirTemp(s.workDir, "dataflix-silver-")
	if err != nil {
		return nil, nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cols := make([]string, len(bronze.MovieColumns))
	for i, c := range bronze.MovieColumns {
		cols[i] = c.Name
	}

	for _, key := range keys {
		batch, err := s.readBatch(ctx, dir, key, cols)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			logging.Warn().Err(err).Str("batch", key).Msg("Unreadable bronze batch, skipping")
			unreadable = append(unreadable, key)
			continue
		}
		movies = append(movies, batch...)
		logging.Debug().Str("batch", key).Int("movies", len(batch)).Msg("Bronze batch read")
	}
	return movies, unreadable, nil
}

func (s *TMDBStage) readBatch(ctx context.Context, dir, key string, cols []string) ([]BronzeMovie, error) {
	local := filepath.Join(dir, filepath.Base(key))
	defer os.Remove(local)

	if err := s.store.GetFile(ctx, s.bucket, key, local); err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	var batch []BronzeMovie
	err := s.codec.Read(ctx, local, cols, func(rows *sql.Rows) error {
		var b BronzeMovie
		if err := rows.Scan(b.scanDest()...); err != nil {
			return err
		}
		batch = append(batch, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return batch, nil
}
