// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package silver

import (
	"context"
	"fmt"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
)

// MovieLens silver tables in load order.
var (
	MoviesTable = database.Table{
		Schema:  database.SchemaSilver,
		Name:    "movies",
		Columns: []string{"movieid", "title", "year", "genres"},
		Dependents: []string{
			"silver.movie_genres", "silver.ratings", "silver.tags", "silver.links",
		},
	}
	GenresTable = database.Table{
		Schema:     database.SchemaSilver,
		Name:       "genres",
		Columns:    []string{"genre_id", "genre_name"},
		Dependents: []string{"silver.movie_genres"},
	}
	MovieGenresTable = database.Table{
		Schema:  database.SchemaSilver,
		Name:    "movie_genres",
		Columns: []string{"movieid", "genre_id"},
	}
	RatingsTable = database.Table{
		Schema:  database.SchemaSilver,
		Name:    "ratings",
		Columns: []string{"userid", "movieid", "rating", "timestamp"},
	}
	TagsTable = database.Table{
		Schema:  database.SchemaSilver,
		Name:    "tags",
		Columns: []string{"userid", "movieid", "tag", "timestamp"},
	}
	LinksTable = database.Table{
		Schema:  database.SchemaSilver,
		Name:    "links",
		Columns: []string{"movieid", "imdbid", "tmdbid"},
	}
)

// MovieLensStage loads the MovieLens CSV files from the bronze bucket into
// the silver schema.
type MovieLensStage struct {
	db     *database.DB
	store  objectstore.Store
	bucket string
	load   config.LoadConfig
}

// NewMovieLensStage creates a MovieLensStage.
func NewMovieLensStage(db *database.DB, store objectstore.Store, bucket string, load config.LoadConfig) *MovieLensStage {
	return &MovieLensStage{db: db, store: store, bucket: bucket, load: load}
}

// Run replaces the silver MovieLens tables. Missing source files are skipped
// with a warning; the first load failure stops the stage.
func (s *MovieLensStage) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	if err := s.loadMovies(ctx, res); err != nil {
		return res, err
	}

	// children are filtered against what silver.movies holds now
	movies, err := s.knownMovies(ctx)
	if err != nil {
		return res, err
	}

	steps := []func(context.Context, MovieSet, *Result) error{
		s.loadRatings,
		s.loadTags,
		s.loadLinks,
	}
	for _, step := range steps {
		if err := step(ctx, movies, res); err != nil {
			return res, err
		}
	}

	res.Duration = time.Since(start)
	logging.Info().
		Int("tables", len(res.Tables)).
		Strs("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("Silver MovieLens stage complete")
	return res, nil
}

func (s *MovieLensStage) source(ctx context.Context, res *Result, name string, required ...string) (*csvSource, func(), error) {
	rc, err := openObject(ctx, s.store, s.bucket, name)
	if err != nil {
		return nil, nil, err
	}
	if rc == nil {
		logging.Warn().Str("bucket", s.bucket).Str("object", name).Msg("Source file not found, skipping")
		res.Skipped = append(res.Skipped, name)
		return nil, nil, nil
	}
	src, err := newCSVSource(rc, required...)
	if err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return src, func() { _ = rc.Close() }, nil
}

func (s *MovieLensStage) loadMovies(ctx context.Context, res *Result) error {
	cols := []string{"movieid", "title", "genres"}
	src, done, err := s.source(ctx, res, "movies.csv", cols...)
	if err != nil || src == nil {
		return err
	}
	defer done()

	tr := NewMovieTransformer()
	var movies []Movie
	for rec, err := range src.records(cols...) {
		if err != nil {
			return fmt.Errorf("movies.csv: %w", err)
		}
		if m, ok := tr.Apply(rec[0], rec[1], rec[2]); ok {
			movies = append(movies, m)
		}
	}
	genres, bridge := ExplodeGenres(movies)

	movieRows := make([][]any, len(movies))
	for i, m := range movies {
		movieRows[i] = []any{m.ID, m.Title, m.Year, m.Genres}
	}
	n, err := s.db.LoadRows(ctx, withSizes(MoviesTable, s.load.DimensionBatchSize, 0), movieRows)
	if err != nil {
		return fmt.Errorf("load movies: %w", err)
	}
	res.add(MoviesTable.FullName(), n, tr.Drops)

	genreRows := make([][]any, len(genres))
	for i, g := range genres {
		genreRows[i] = []any{g.ID, g.Name}
	}
	if n, err = s.db.LoadRows(ctx, withSizes(GenresTable, s.load.DimensionBatchSize, 0), genreRows); err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	res.add(GenresTable.FullName(), n, nil)

	bridgeRows := make([][]any, len(bridge))
	for i, mg := range bridge {
		bridgeRows[i] = []any{mg.MovieID, mg.GenreID}
	}
	if n, err = s.db.LoadRows(ctx, withSizes(MovieGenresTable, s.load.DimensionBatchSize, 0), bridgeRows); err != nil {
		return fmt.Errorf("load movie genres: %w", err)
	}
	res.add(MovieGenresTable.FullName(), n, nil)
	return nil
}

func (s *MovieLensStage) knownMovies(ctx context.Context) (MovieSet, error) {
	rows, err := s.db.Conn().QueryContext(ctx, "SELECT movieid FROM silver.movies")
	if err != nil {
		return nil, fmt.Errorf("query known movies: %w", err)
	}
	defer rows.Close()

	set := make(MovieSet)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan movie id: %w", err)
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

func (s *MovieLensStage) loadRatings(ctx context.Context, movies MovieSet, res *Result) error {
	cols := []string{"userid", "movieid", "rating", "timestamp"}
	src, done, err := s.source(ctx, res, "ratings.csv", cols...)
	if err != nil || src == nil {
		return err
	}
	defer done()

	tr := NewRatingTransformer(movies)
	rows := transformed(src.records(cols...), func(rec []string) ([]any, bool) {
		r, ok := tr.Apply(rec[0], rec[1], rec[2], rec[3])
		return []any{r.UserID, r.MovieID, r.Rating, r.Timestamp}, ok
	})
	n, err := s.db.TruncateAndLoad(ctx, withSizes(RatingsTable, s.load.FactBatchSize, s.load.ChunkSize), rows)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	res.add(RatingsTable.FullName(), n, tr.Drops)
	return nil
}

func (s *MovieLensStage) loadTags(ctx context.Context, movies MovieSet, res *Result) error {
	cols := []string{"userid", "movieid", "tag", "timestamp"}
	src, done, err := s.source(ctx, res, "tags.csv", cols...)
	if err != nil || src == nil {
		return err
	}
	defer done()

	tr := NewTagTransformer(movies)
	rows := transformed(src.records(cols...), func(rec []string) ([]any, bool) {
		t, ok := tr.Apply(rec[0], rec[1], rec[2], rec[3])
		return []any{t.UserID, t.MovieID, t.Tag, t.Timestamp}, ok
	})
	n, err := s.db.TruncateAndLoad(ctx, withSizes(TagsTable, s.load.FactBatchSize, s.load.ChunkSize), rows)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	res.add(TagsTable.FullName(), n, tr.Drops)
	return nil
}

func (s *MovieLensStage) loadLinks(ctx context.Context, movies MovieSet, res *Result) error {
	cols := []string{"movieid", "imdbid", "tmdbid"}
	src, done, err := s.source(ctx, res, "links.csv", "movieid")
	if err != nil || src == nil {
		return err
	}
	defer done()

	tr := NewLinkTransformer(movies)
	rows := transformed(src.records(cols...), func(rec []string) ([]any, bool) {
		l, ok := tr.Apply(rec[0], rec[1], rec[2])
		return []any{l.MovieID, nullable(l.IMDbID), nullable(l.TMDBID)}, ok
	})
	n, err := s.db.TruncateAndLoad(ctx, withSizes(LinksTable, s.load.DimensionBatchSize, 0), rows)
	if err != nil {
		return fmt.Errorf("load links: %w", err)
	}
	res.add(LinksTable.FullName(), n, tr.Drops)
	return nil
}
