// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package silver turns bronze data into validated, deduplicated tables.
//
// Transformers apply the per-entity rules one record at a time: duplicates
// by natural key keep the first occurrence, absent fields get defaults,
// out-of-domain values are dropped rather than clamped, and every drop is
// counted by reason. Stages read the bronze objects, run the transformers
// and replace the destination tables through database.TruncateAndLoad.
package silver

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Defaults for absent MovieLens fields.
const (
	UnknownTitle   = "Unknown"
	NoGenresListed = "(no genres listed)"
	genreSeparator = "|"
	minRating      = 0.5
	maxRating      = 5.0
)

// Movie is a silver MovieLens movie.
type Movie struct {
	ID     int
	Title  string
	Year   int
	Genres string
}

// Genre is a silver genre with its surrogate id.
type Genre struct {
	ID   int
	Name string
}

// MovieGenre links a movie to a genre.
type MovieGenre struct {
	MovieID int
	GenreID int
}

// Rating is a silver rating.
type Rating struct {
	UserID    int
	MovieID   int
	Rating    float64
	Timestamp int64
}

// Tag is a silver tag.
type Tag struct {
	UserID    int
	MovieID   int
	Tag       string
	Timestamp int64
}

// Link holds the external ids of a movie. Empty ids are nil.
type Link struct {
	MovieID int
	IMDbID  *string
	TMDBID  *string
}

// MovieSet is the set of known movie ids.
type MovieSet map[int]struct{}

// Has reports whether id is a known movie.
func (s MovieSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

var yearSuffix = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)

// SplitTitleYear separates the trailing "(YYYY)" from a MovieLens title.
// The year is 0 when the title has none.
func SplitTitleYear(raw string) (string, int) {
	title := strings.TrimSpace(raw)
	m := yearSuffix.FindStringSubmatchIndex(title)
	if m == nil {
		return title, 0
	}
	year, _ := strconv.Atoi(title[m[2]:m[3]])
	return strings.TrimSpace(title[:m[0]]), year
}

// MovieTransformer applies the movie rules.
type MovieTransformer struct {
	seen  map[int]struct{}
	Drops *Drops
}

// NewMovieTransformer returns an empty MovieTransformer.
func NewMovieTransformer() *MovieTransformer {
	return &MovieTransformer{seen: make(map[int]struct{}), Drops: newDrops("movies")}
}

// Apply transforms one movies.csv record.
func (t *MovieTransformer) Apply(movieID, title, genres string) (Movie, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(movieID))
	if err != nil {
		t.Drops.add(ReasonUnparseable)
		return Movie{}, false
	}
	if _, dup := t.seen[id]; dup {
		t.Drops.add(ReasonDuplicate)
		return Movie{}, false
	}
	t.seen[id] = struct{}{}

	m := Movie{ID: id, Genres: strings.TrimSpace(genres)}
	m.Title, m.Year = SplitTitleYear(title)
	if m.Title == "" {
		m.Title = UnknownTitle
	}
	if m.Genres == "" {
		m.Genres = NoGenresListed
	}
	return m, true
}

// ExplodeGenres derives the genre dimension and the movie-genre bridge.
// Genre ids are assigned 1..n in name order; a genre repeated within one
// movie yields a single bridge row.
func ExplodeGenres(movies []Movie) ([]Genre, []MovieGenre) {
	perMovie := make([][]string, len(movies))
	names := make(map[string]struct{})
	for i, m := range movies {
		for _, g := range strings.Split(m.Genres, genreSeparator) {
			g = strings.TrimSpace(g)
			if g == "" || g == NoGenresListed || slices.Contains(perMovie[i], g) {
				continue
			}
			perMovie[i] = append(perMovie[i], g)
			names[g] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	slices.Sort(sorted)

	genres := make([]Genre, len(sorted))
	ids := make(map[string]int, len(sorted))
	for i, n := range sorted {
		genres[i] = Genre{ID: i + 1, Name: n}
		ids[n] = i + 1
	}

	var bridge []MovieGenre
	for i, m := range movies {
		for _, g := range perMovie[i] {
			bridge = append(bridge, MovieGenre{MovieID: m.ID, GenreID: ids[g]})
		}
	}
	return genres, bridge
}

type ratingKey struct {
	user, movie int
	ts          int64
}

// RatingTransformer applies the rating rules.
type RatingTransformer struct {
	movies MovieSet
	seen   map[ratingKey]struct{}
	Drops  *Drops
}

// NewRatingTransformer returns a RatingTransformer accepting ratings of movies.
func NewRatingTransformer(movies MovieSet) *RatingTransformer {
	return &RatingTransformer{movies: movies, seen: make(map[ratingKey]struct{}), Drops: newDrops("ratings")}
}

// Apply transforms one ratings.csv record.
func (t *RatingTransformer) Apply(userID, movieID, rating, timestamp string) (Rating, bool) {
	var (
		r    Rating
		errs [4]error
	)
	r.UserID, errs[0] = strconv.Atoi(strings.TrimSpace(userID))
	r.MovieID, errs[1] = strconv.Atoi(strings.TrimSpace(movieID))
	r.Rating, errs[2] = strconv.ParseFloat(strings.TrimSpace(rating), 64)
	r.Timestamp, errs[3] = strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	for _, err := range errs {
		if err != nil {
			t.Drops.add(ReasonUnparseable)
			return Rating{}, false
		}
	}

	key := ratingKey{r.UserID, r.MovieID, r.Timestamp}
	if _, dup := t.seen[key]; dup {
		t.Drops.add(ReasonDuplicate)
		return Rating{}, false
	}
	t.seen[key] = struct{}{}

	if !(r.Rating >= minRating && r.Rating <= maxRating) {
		t.Drops.add(ReasonOutOfRange)
		return Rating{}, false
	}
	if !t.movies.Has(r.MovieID) {
		t.Drops.add(ReasonUnknownMovie)
		return Rating{}, false
	}
	return r, true
}

// TagTransformer applies the tag rules. A user tags a movie at most once per
// timestamp; later rows with the same key are dropped.
type TagTransformer struct {
	movies MovieSet
	seen   map[ratingKey]struct{}
	Drops  *Drops
}

// NewTagTransformer returns a TagTransformer accepting tags of movies.
func NewTagTransformer(movies MovieSet) *TagTransformer {
	return &TagTransformer{movies: movies, seen: make(map[ratingKey]struct{}), Drops: newDrops("tags")}
}

// Apply transforms one tags.csv record.
func (t *TagTransformer) Apply(userID, movieID, tag, timestamp string) (Tag, bool) {
	var (
		out  Tag
		errs [3]error
	)
	out.UserID, errs[0] = strconv.Atoi(strings.TrimSpace(userID))
	out.MovieID, errs[1] = strconv.Atoi(strings.TrimSpace(movieID))
	out.Timestamp, errs[2] = strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	for _, err := range errs {
		if err != nil {
			t.Drops.add(ReasonUnparseable)
			return Tag{}, false
		}
	}

	out.Tag = strings.ToLower(strings.TrimSpace(tag))
	if out.Tag == "" {
		t.Drops.add(ReasonEmpty)
		return Tag{}, false
	}
	key := ratingKey{out.UserID, out.MovieID, out.Timestamp}
	if _, dup := t.seen[key]; dup {
		t.Drops.add(ReasonDuplicate)
		return Tag{}, false
	}
	t.seen[key] = struct{}{}

	if !t.movies.Has(out.MovieID) {
		t.Drops.add(ReasonUnknownMovie)
		return Tag{}, false
	}
	return out, true
}

// LinkTransformer applies the link rules.
type LinkTransformer struct {
	movies MovieSet
	seen   map[int]struct{}
	Drops  *Drops
}

// NewLinkTransformer returns a LinkTransformer accepting links of movies.
func NewLinkTransformer(movies MovieSet) *LinkTransformer {
	return &LinkTransformer{movies: movies, seen: make(map[int]struct{}), Drops: newDrops("links")}
}

// Apply transforms one links.csv record.
func (t *LinkTransformer) Apply(movieID, imdbID, tmdbID string) (Link, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(movieID))
	if err != nil {
		t.Drops.add(ReasonUnparseable)
		return Link{}, false
	}
	if _, dup := t.seen[id]; dup {
		t.Drops.add(ReasonDuplicate)
		return Link{}, false
	}
	t.seen[id] = struct{}{}

	if !t.movies.Has(id) {
		t.Drops.add(ReasonUnknownMovie)
		return Link{}, false
	}
	return Link{MovieID: id, IMDbID: optional(imdbID), TMDBID: optional(tmdbID)}, true
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
