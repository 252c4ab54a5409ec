// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package bronze

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/tmdb"
)

const movieRefsQuery = `
SELECT m.movieid, m.title, m.year, l.imdbid, l.tmdbid
FROM silver.movies m
JOIN silver.links l ON l.movieid = m.movieid
WHERE l.imdbid IS NOT NULL
ORDER BY m.movieid`

// LoadMovieRefs reads the movies to extract from the silver MovieLens tables.
// limit <= 0 means no limit.
func LoadMovieRefs(ctx context.Context, db *database.DB, limit int) ([]MovieRef, error) {
	query := movieRefsQuery
	var args []any
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movie refs: %w", err)
	}
	defer rows.Close()

	var refs []MovieRef
	for rows.Next() {
		var (
			ref    MovieRef
			year   sql.NullInt64
			imdbID sql.NullString
			tmdbID sql.NullString
		)
		if err := rows.Scan(&ref.MovieLensID, &ref.Title, &year, &imdbID, &tmdbID); err != nil {
			return nil, fmt.Errorf("scan movie ref: %w", err)
		}
		ref.Year = int(year.Int64)
		ref.IMDbID = tmdb.FormatIMDbID(imdbID.String)
		ref.TMDBID = parseTMDBID(tmdbID.String)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movie refs: %w", err)
	}
	return refs, nil
}

// parseTMDBID accepts "862" or "862.0"; anything else is treated as unknown.
func parseTMDBID(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// FilterRefs keeps the refs whose MovieLens id is in ids, preserving order.
func FilterRefs(refs []MovieRef, ids []int) []MovieRef {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return slices.DeleteFunc(slices.Clone(refs), func(r MovieRef) bool {
		_, ok := want[r.MovieLensID]
		return !ok
	})
}
