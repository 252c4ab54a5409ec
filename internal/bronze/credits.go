// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package bronze

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
	"github.com/joaoVMiguez/DataFlix/internal/tmdb"
)

// Credit types.
const (
	CreditCast = "cast"
	CreditCrew = "crew"
)

// CreditColumns is the layout of a per-movie credits object.
var CreditColumns = []database.Column{
	{Name: "movielens_id", Type: "INTEGER"},
	{Name: "tmdb_id", Type: "INTEGER"},
	{Name: "credit_type", Type: "VARCHAR"},
	{Name: "person_id", Type: "INTEGER"},
	{Name: "name", Type: "VARCHAR"},
	{Name: "character", Type: "VARCHAR"},
	{Name: "job", Type: "VARCHAR"},
	{Name: "department", Type: "VARCHAR"},
	{Name: "cast_order", Type: "INTEGER"},
	{Name: "extracted_at", Type: "TIMESTAMP"},
}

// CreditsRecord holds the credits of one movie.
type CreditsRecord struct {
	Ref         MovieRef
	Credits     *tmdb.Credits
	ExtractedAt time.Time
}

// CreditsExtractor fetches cast and crew for movies already present in the
// movies batches and writes one object per movie.
type CreditsExtractor struct {
	api     tmdb.API
	codec   *database.ParquetCodec
	store   objectstore.Store
	bucket  string
	prefix  string
	workDir string
}

// NewCreditsExtractor creates a CreditsExtractor writing under bucket/prefix.
func NewCreditsExtractor(api tmdb.API, codec *database.ParquetCodec, store objectstore.Store, bucket, prefix, workDir string) *CreditsExtractor {
	return &CreditsExtractor{api: api, codec: codec, store: store, bucket: bucket, prefix: prefix, workDir: workDir}
}

// ObjectKey returns the credits object of a movie.
func (e *CreditsExtractor) ObjectKey(movieLensID int) string {
	return path.Join(e.prefix, strconv.Itoa(movieLensID)+".parquet")
}

// SkipItem implements ItemSkipper.
func (e *CreditsExtractor) SkipItem(ctx context.Context, ref MovieRef) (bool, error) {
	return e.store.Exists(ctx, e.bucket, e.ObjectKey(ref.MovieLensID))
}

// Extract implements Extractor.
func (e *CreditsExtractor) Extract(ctx context.Context, ref MovieRef) (CreditsRecord, error) {
	if ref.TMDBID <= 0 {
		return CreditsRecord{}, fmt.Errorf("movie %d has no tmdb id: %w", ref.MovieLensID, tmdb.ErrNotFound)
	}
	credits, err := e.api.MovieCredits(ctx, ref.TMDBID)
	if err != nil {
		return CreditsRecord{}, err
	}
	return CreditsRecord{Ref: ref, Credits: credits, ExtractedAt: time.Now().UTC()}, nil
}

// BatchKey implements Extractor. Credits are stored per movie.
func (e *CreditsExtractor) BatchKey(int) string { return "" }

// WriteBatch implements Extractor.
func (e *CreditsExtractor) WriteBatch(ctx context.Context, _ int, records []CreditsRecord) error {
	for _, r := range records {
		key := e.ObjectKey(r.Ref.MovieLensID)
		if err := writeParquetObject(ctx, e.codec, e.store, e.bucket, key, e.workDir, CreditColumns, creditRows(r)); err != nil {
			return err
		}
	}
	return nil
}

func creditRows(r CreditsRecord) [][]any {
	c := r.Credits
	rows := make([][]any, 0, len(c.Cast)+len(c.Crew))
	for _, m := range c.Cast {
		rows = append(rows, []any{
			r.Ref.MovieLensID, r.Ref.TMDBID, CreditCast, m.ID, m.Name,
			nullString(m.Character), nil, nil, m.Order, r.ExtractedAt,
		})
	}
	for _, m := range c.Crew {
		rows = append(rows, []any{
			r.Ref.MovieLensID, r.Ref.TMDBID, CreditCrew, m.ID, m.Name,
			nil, nullString(m.Job), nullString(m.Department), nil, r.ExtractedAt,
		})
	}
	return rows
}

// ExtractedMovieRefs reads every movies batch under prefix and returns the
// movies that were resolved, ordered by MovieLens id.
func ExtractedMovieRefs(ctx context.Context, codec *database.ParquetCodec, store objectstore.Store, bucket, prefix, workDir string) ([]MovieRef, error) {
	keys, err := BatchKeys(ctx, store, bucket, prefix)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(workDir, "dataflix-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	seen := make(map[int]struct{})
	var refs []MovieRef
	for _, key := range keys {
		local := filepath.Join(dir, filepath.Base(key))
		if err := store.GetFile(ctx, bucket, key, local); err != nil {
			return nil, fmt.Errorf("download %s: %w", key, err)
		}
		err := codec.Read(ctx, local, []string{"movielens_id", "tmdb_id", "title"}, func(rows *sql.Rows) error {
			var (
				ref    MovieRef
				tmdbID sql.NullInt64
				title  sql.NullString
			)
			if err := rows.Scan(&ref.MovieLensID, &tmdbID, &title); err != nil {
				return err
			}
			if _, dup := seen[ref.MovieLensID]; dup {
				return nil
			}
			seen[ref.MovieLensID] = struct{}{}
			ref.TMDBID = int(tmdbID.Int64)
			ref.Title = title.String
			refs = append(refs, ref)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		_ = os.Remove(local)
	}

	slices.SortFunc(refs, func(a, b MovieRef) int { return a.MovieLensID - b.MovieLensID })
	return refs, nil
}
