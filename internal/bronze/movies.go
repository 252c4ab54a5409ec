// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package bronze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
	"github.com/joaoVMiguez/DataFlix/internal/tmdb"
)

// MovieColumns is the layout of a movies batch object. Nested lists are
// stored as JSON strings; absent lists are NULL.
var MovieColumns = []database.Column{
	{Name: "movielens_id", Type: "INTEGER"},
	{Name: "imdb_id", Type: "VARCHAR"},
	{Name: "tmdb_id", Type: "INTEGER"},
	{Name: "title", Type: "VARCHAR"},
	{Name: "original_title", Type: "VARCHAR"},
	{Name: "original_language", Type: "VARCHAR"},
	{Name: "overview", Type: "VARCHAR"},
	{Name: "tagline", Type: "VARCHAR"},
	{Name: "status", Type: "VARCHAR"},
	{Name: "release_date", Type: "VARCHAR"},
	{Name: "runtime", Type: "INTEGER"},
	{Name: "budget", Type: "BIGINT"},
	{Name: "revenue", Type: "BIGINT"},
	{Name: "popularity", Type: "DOUBLE"},
	{Name: "vote_average", Type: "DOUBLE"},
	{Name: "vote_count", Type: "INTEGER"},
	{Name: "adult", Type: "BOOLEAN"},
	{Name: "video", Type: "BOOLEAN"},
	{Name: "homepage", Type: "VARCHAR"},
	{Name: "poster_path", Type: "VARCHAR"},
	{Name: "backdrop_path", Type: "VARCHAR"},
	{Name: "genres", Type: "VARCHAR"},
	{Name: "production_companies", Type: "VARCHAR"},
	{Name: "production_countries", Type: "VARCHAR"},
	{Name: "spoken_languages", Type: "VARCHAR"},
	{Name: "extracted_at", Type: "TIMESTAMP"},
}

// MovieRecord is a resolved TMDB movie tied to its MovieLens id.
type MovieRecord struct {
	Ref         MovieRef
	Movie       *tmdb.Movie
	ExtractedAt time.Time
}

// MoviesExtractor resolves MovieLens movies to TMDB movie details and
// writes them as numbered Parquet batches.
type MoviesExtractor struct {
	api     tmdb.API
	codec   *database.ParquetCodec
	store   objectstore.Store
	bucket  string
	prefix  string
	workDir string
}

// NewMoviesExtractor creates a MoviesExtractor writing under bucket/prefix.
// workDir holds temporary Parquet files; empty means the system temp dir.
func NewMoviesExtractor(api tmdb.API, codec *database.ParquetCodec, store objectstore.Store, bucket, prefix, workDir string) *MoviesExtractor {
	return &MoviesExtractor{api: api, codec: codec, store: store, bucket: bucket, prefix: prefix, workDir: workDir}
}

// Extract implements Extractor. The lookup falls back from the TMDB id to
// the IMDb id and finally to a title search; only ErrNotFound moves to the
// next step.
func (e *MoviesExtractor) Extract(ctx context.Context, ref MovieRef) (MovieRecord, error) {
	movie, err := e.lookup(ctx, ref)
	if err != nil {
		return MovieRecord{}, err
	}
	return MovieRecord{Ref: ref, Movie: movie, ExtractedAt: time.Now().UTC()}, nil
}

func (e *MoviesExtractor) lookup(ctx context.Context, ref MovieRef) (*tmdb.Movie, error) {
	if ref.TMDBID > 0 {
		movie, err := e.api.MovieDetails(ctx, ref.TMDBID)
		if !errors.Is(err, tmdb.ErrNotFound) {
			return movie, err
		}
	}

	if ref.IMDbID != "" {
		id, err := e.api.FindByIMDbID(ctx, ref.IMDbID)
		switch {
		case err == nil:
			return e.api.MovieDetails(ctx, id)
		case !errors.Is(err, tmdb.ErrNotFound):
			return nil, err
		}
	}

	if ref.Title == "" {
		return nil, fmt.Errorf("movie %d: %w", ref.MovieLensID, tmdb.ErrNotFound)
	}
	id, err := e.api.SearchMovie(ctx, ref.Title, ref.Year)
	if err != nil {
		return nil, err
	}
	return e.api.MovieDetails(ctx, id)
}

// BatchKey implements Extractor.
func (e *MoviesExtractor) BatchKey(n int) string {
	return BatchKey(e.prefix, n)
}

// WriteBatch implements Extractor.
func (e *MoviesExtractor) WriteBatch(ctx context.Context, n int, records []MovieRecord) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		row, err := movieRow(r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return writeParquetObject(ctx, e.codec, e.store, e.bucket, e.BatchKey(n), e.workDir, MovieColumns, rows)
}

func movieRow(r MovieRecord) ([]any, error) {
	m := r.Movie
	imdbID := m.IMDbID
	if imdbID == "" {
		imdbID = r.Ref.IMDbID
	}

	var runtime any
	if m.Runtime != nil {
		runtime = *m.Runtime
	}

	genres, err := jsonColumn(m.Genres)
	if err != nil {
		return nil, err
	}
	companies, err := jsonColumn(m.ProductionCompanies)
	if err != nil {
		return nil, err
	}
	countries, err := jsonColumn(m.ProductionCountries)
	if err != nil {
		return nil, err
	}
	languages, err := jsonColumn(m.SpokenLanguages)
	if err != nil {
		return nil, err
	}

	return []any{
		r.Ref.MovieLensID, nullString(imdbID), m.ID, m.Title, m.OriginalTitle,
		m.OriginalLanguage, m.Overview, m.Tagline, m.Status, nullString(m.ReleaseDate),
		runtime, m.Budget, m.Revenue, m.Popularity, m.VoteAverage,
		m.VoteCount, m.Adult, m.Video, nullString(m.Homepage), nullString(m.PosterPath),
		nullString(m.BackdropPath), genres, companies, countries, languages,
		r.ExtractedAt,
	}, nil
}

// jsonColumn serializes a nested list; a nil list is stored as NULL.
func jsonColumn[T any](items []T) (any, error) {
	if items == nil {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal nested field: %w", err)
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// writeParquetObject encodes rows to a temporary Parquet file and uploads it.
func writeParquetObject(ctx context.Context, codec *database.ParquetCodec, store objectstore.Store, bucket, key, workDir string, columns []database.Column, rows [][]any) error {
	dir, err := os.MkdirTemp(workDir, "dataflix-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, filepath.Base(key))
	if err := codec.Write(ctx, local, columns, rows); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.PutFile(ctx, bucket, key, local, objectstore.ContentTypeParquet); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
