// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package silver

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/joaoVMiguez/DataFlix/internal/bucket"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/tmdb"
)

// BronzeMovie is one row of a bronze movies batch.
type BronzeMovie struct {
	MovieLensID         int
	IMDbID              sql.NullString
	TMDBID              sql.NullInt64
	Title               sql.NullString
	OriginalTitle       sql.NullString
	OriginalLanguage    sql.NullString
	Overview            sql.NullString
	Tagline             sql.NullString
	Status              sql.NullString
	ReleaseDate         sql.NullString
	Runtime             sql.NullInt64
	Budget              sql.NullInt64
	Revenue             sql.NullInt64
	Popularity          sql.NullFloat64
	VoteAverage         sql.NullFloat64
	VoteCount           sql.NullInt64
	Adult               sql.NullBool
	Video               sql.NullBool
	Homepage            sql.NullString
	PosterPath          sql.NullString
	BackdropPath        sql.NullString
	Genres              sql.NullString
	ProductionCompanies sql.NullString
	ProductionCountries sql.NullString
	SpokenLanguages     sql.NullString
	ExtractedAt         sql.NullTime
}

// scanDest returns the scan targets in bronze column order.
func (b *BronzeMovie) scanDest() []any {
	return []any{
		&b.MovieLensID, &b.IMDbID, &b.TMDBID, &b.Title, &b.OriginalTitle,
		&b.OriginalLanguage, &b.Overview, &b.Tagline, &b.Status, &b.ReleaseDate,
		&b.Runtime, &b.Budget, &b.Revenue, &b.Popularity, &b.VoteAverage,
		&b.VoteCount, &b.Adult, &b.Video, &b.Homepage, &b.PosterPath,
		&b.BackdropPath, &b.Genres, &b.ProductionCompanies, &b.ProductionCountries, &b.SpokenLanguages,
		&b.ExtractedAt,
	}
}

// MovieTMDB is a silver TMDB movie with its derived fields.
type MovieTMDB struct {
	Source *BronzeMovie

	ReleaseDate   *time.Time
	ReleaseYear   *int
	ReleaseMonth  *int
	ReleaseDecade *int

	Budget  int64
	Revenue int64
	Profit  int64
	ROI     *float64 // nil when budget is 0

	HasBudget   bool
	HasRevenue  bool
	HasOverview bool
	HasPoster   bool
	HasBackdrop bool

	BudgetCategory string
	QualityScore   int
}

// QualityFlagWeight is the quality score contributed by each true flag.
const QualityFlagWeight = 20

// MovieTMDBTransformer applies the TMDB movie rules.
type MovieTMDBTransformer struct {
	seen  map[int]struct{}
	Drops *Drops
}

// NewMovieTMDBTransformer returns an empty MovieTMDBTransformer.
func NewMovieTMDBTransformer() *MovieTMDBTransformer {
	return &MovieTMDBTransformer{seen: make(map[int]struct{}), Drops: newDrops("movies_tmdb")}
}

// Apply transforms one bronze movie. The first occurrence of a MovieLens id wins.
func (t *MovieTMDBTransformer) Apply(b *BronzeMovie) (MovieTMDB, bool) {
	if b.MovieLensID <= 0 {
		t.Drops.add(ReasonUnparseable)
		return MovieTMDB{}, false
	}
	if _, dup := t.seen[b.MovieLensID]; dup {
		t.Drops.add(ReasonDuplicate)
		return MovieTMDB{}, false
	}
	t.seen[b.MovieLensID] = struct{}{}

	if b.Budget.Int64 < 0 || b.Revenue.Int64 < 0 ||
		(b.VoteAverage.Valid && (b.VoteAverage.Float64 < 0 || b.VoteAverage.Float64 > 10)) {
		t.Drops.add(ReasonOutOfRange)
		return MovieTMDB{}, false
	}

	m := MovieTMDB{
		Source:  b,
		Budget:  b.Budget.Int64,
		Revenue: b.Revenue.Int64,
	}
	m.Profit = m.Revenue - m.Budget
	if m.Budget > 0 {
		roi := float64(m.Profit) / float64(m.Budget) * 100
		m.ROI = &roi
	}

	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(b.ReleaseDate.String)); err == nil {
		year, month := d.Year(), int(d.Month())
		decade := year / 10 * 10
		m.ReleaseDate, m.ReleaseYear, m.ReleaseMonth, m.ReleaseDecade = &d, &year, &month, &decade
	}

	m.HasBudget = m.Budget > 0
	m.HasRevenue = m.Revenue > 0
	m.HasOverview = strings.TrimSpace(b.Overview.String) != ""
	m.HasPoster = b.PosterPath.String != ""
	m.HasBackdrop = b.BackdropPath.String != ""
	for _, f := range []bool{m.HasBudget, m.HasRevenue, m.HasOverview, m.HasPoster, m.HasBackdrop} {
		if f {
			m.QualityScore += QualityFlagWeight
		}
	}
	m.BudgetCategory = bucket.SilverBudget.Label(float64(m.Budget))
	return m, true
}

// Row returns the values of m in silver_tmdb.movies_tmdb column order.
func (m MovieTMDB) Row() []any {
	b := m.Source
	return []any{
		b.MovieLensID, nullString(b.IMDbID), nullInt(b.TMDBID), nullString(b.Title), nullString(b.OriginalTitle),
		nullString(b.OriginalLanguage), nullString(b.Overview), nullString(b.Tagline), nullString(b.Status),
		ptr(m.ReleaseDate), ptr(m.ReleaseYear), ptr(m.ReleaseMonth), ptr(m.ReleaseDecade),
		nullInt(b.Runtime), m.Budget, m.Revenue, m.Profit, ptr(m.ROI),
		nullFloat(b.Popularity), nullFloat(b.VoteAverage), nullInt(b.VoteCount),
		nullBool(b.Adult), nullBool(b.Video), nullString(b.Homepage), nullString(b.PosterPath), nullString(b.BackdropPath),
		m.HasBudget, m.HasRevenue, m.HasOverview, m.HasPoster, m.HasBackdrop,
		m.BudgetCategory, m.QualityScore, nullTime(b.ExtractedAt),
	}
}

// Bridge rows share the movie key prefix (movielens_id, imdb_id, tmdb_id).
func bridgeKey(b *BronzeMovie) []any {
	return []any{b.MovieLensID, nullString(b.IMDbID), nullInt(b.TMDBID)}
}

// Exploder turns the JSON list columns of bronze movies into bridge rows.
// A list that fails to decode, or holds an element without its key, is
// skipped for that movie only.
type Exploder struct {
	Drops map[string]*Drops

	// Empty counts movies per bridge table whose list was absent or empty.
	Empty map[string]int
}

// NewExploder returns an Exploder counting drops per bridge table.
func NewExploder() *Exploder {
	return &Exploder{Empty: make(map[string]int), Drops: map[string]*Drops{
		"genres_tmdb":               newDrops("genres_tmdb"),
		"production_companies_tmdb": newDrops("production_companies_tmdb"),
		"production_countries_tmdb": newDrops("production_countries_tmdb"),
		"spoken_languages_tmdb":     newDrops("spoken_languages_tmdb"),
	}}
}

// Genres returns the genres_tmdb rows of b.
func (e *Exploder) Genres(b *BronzeMovie) [][]any {
	items, ok := decodeList[tmdb.Genre](e, "genres_tmdb", b, b.Genres, func(g tmdb.Genre) bool { return g.ID > 0 })
	if !ok {
		return nil
	}
	var rows [][]any
	seen := make(map[int]struct{}, len(items))
	for _, g := range items {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		rows = append(rows, append(bridgeKey(b), g.ID, emptyToNil(g.Name)))
	}
	return rows
}

// Companies returns the production_companies_tmdb rows of b.
func (e *Exploder) Companies(b *BronzeMovie) [][]any {
	items, ok := decodeList[tmdb.Company](e, "production_companies_tmdb", b, b.ProductionCompanies, func(c tmdb.Company) bool { return c.ID > 0 })
	if !ok {
		return nil
	}
	var rows [][]any
	seen := make(map[int]struct{}, len(items))
	for _, c := range items {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		rows = append(rows, append(bridgeKey(b), c.ID, emptyToNil(c.Name), emptyToNil(c.LogoPath), emptyToNil(c.OriginCountry)))
	}
	return rows
}

// Countries returns the production_countries_tmdb rows of b.
func (e *Exploder) Countries(b *BronzeMovie) [][]any {
	items, ok := decodeList[tmdb.Country](e, "production_countries_tmdb", b, b.ProductionCountries, func(c tmdb.Country) bool { return c.ISO31661 != "" })
	if !ok {
		return nil
	}
	var rows [][]any
	seen := make(map[string]struct{}, len(items))
	for _, c := range items {
		if _, dup := seen[c.ISO31661]; dup {
			continue
		}
		seen[c.ISO31661] = struct{}{}
		rows = append(rows, append(bridgeKey(b), c.ISO31661, emptyToNil(c.Name)))
	}
	return rows
}

// Languages returns the spoken_languages_tmdb rows of b.
func (e *Exploder) Languages(b *BronzeMovie) [][]any {
	items, ok := decodeList[tmdb.Language](e, "spoken_languages_tmdb", b, b.SpokenLanguages, func(l tmdb.Language) bool { return l.ISO6391 != "" })
	if !ok {
		return nil
	}
	var rows [][]any
	seen := make(map[string]struct{}, len(items))
	for _, l := range items {
		if _, dup := seen[l.ISO6391]; dup {
			continue
		}
		seen[l.ISO6391] = struct{}{}
		rows = append(rows, append(bridgeKey(b), l.ISO6391, emptyToNil(l.Name), emptyToNil(l.EnglishName)))
	}
	return rows
}

func decodeList[T any](e *Exploder, table string, b *BronzeMovie, raw sql.NullString, valid func(T) bool) ([]T, bool) {
	if !raw.Valid || raw.String == "" {
		e.empty(table, b)
		return nil, false
	}
	var items []T
	err := json.Unmarshal([]byte(raw.String), &items)
	if err == nil {
		for _, it := range items {
			if !valid(it) {
				err = errMissingKey
				break
			}
		}
	}
	if err != nil {
		e.Drops[table].add(ReasonMalformed)
		logging.Warn().
			Str("table", table).
			Int("movielens_id", b.MovieLensID).
			Err(err).
			Msg("Skipping malformed nested field")
		return nil, false
	}
	if len(items) == 0 {
		e.empty(table, b)
		return nil, false
	}
	return items, true
}

func (e *Exploder) empty(table string, b *BronzeMovie) {
	e.Empty[table]++
	logging.Debug().
		Str("table", table).
		Int("movielens_id", b.MovieLensID).
		Msg("Nested list absent or empty")
}

var errMissingKey = errors.New("list element without key")

func nullString(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

func nullInt(v sql.NullInt64) any {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

func nullFloat(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func nullBool(v sql.NullBool) any {
	if !v.Valid {
		return nil
	}
	return v.Bool
}

func nullTime(v sql.NullTime) any {
	if !v.Valid {
		return nil
	}
	return v.Time
}

func ptr[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
