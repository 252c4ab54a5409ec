// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package tmdb

// Movie is the raw movie record returned by GET movie/{id}.
// Validation tags reject responses that cannot become a silver row.
type Movie struct {
	ID                  int        `json:"id" validate:"gt=0"`
	IMDbID              string     `json:"imdb_id" validate:"omitempty,imdbid"`
	Title               string     `json:"title"`
	OriginalTitle       string     `json:"original_title"`
	OriginalLanguage    string     `json:"original_language" validate:"omitempty,max=8"`
	Overview            string     `json:"overview"`
	Tagline             string     `json:"tagline"`
	Status              string     `json:"status"`
	ReleaseDate         string     `json:"release_date" validate:"omitempty,tmdbdate"`
	Runtime             *int       `json:"runtime" validate:"omitempty,gte=0"`
	Budget              int64      `json:"budget" validate:"gte=0"`
	Revenue             int64      `json:"revenue" validate:"gte=0"`
	Popularity          float64    `json:"popularity" validate:"gte=0"`
	VoteAverage         float64    `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount           int        `json:"vote_count" validate:"gte=0"`
	Adult               bool       `json:"adult"`
	Video               bool       `json:"video"`
	Homepage            string     `json:"homepage"`
	PosterPath          string     `json:"poster_path"`
	BackdropPath        string     `json:"backdrop_path"`
	Genres              []Genre    `json:"genres" validate:"dive"`
	ProductionCompanies []Company  `json:"production_companies" validate:"dive"`
	ProductionCountries []Country  `json:"production_countries"`
	SpokenLanguages     []Language `json:"spoken_languages"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id" validate:"gt=0"`
	Name string `json:"name"`
}

// Company is a production company.
type Company struct {
	ID            int    `json:"id" validate:"gt=0"`
	Name          string `json:"name"`
	LogoPath      string `json:"logo_path"`
	OriginCountry string `json:"origin_country"`
}

// Country is a production country keyed by ISO 3166-1 code.
type Country struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

// Language is a spoken language keyed by ISO 639-1 code.
type Language struct {
	ISO6391     string `json:"iso_639_1"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

// findResponse is the body of GET find/{external_id}.
type findResponse struct {
	MovieResults []movieRef `json:"movie_results"`
}

// searchResponse is the body of GET search/movie.
type searchResponse struct {
	Page         int        `json:"page"`
	Results      []movieRef `json:"results"`
	TotalResults int        `json:"total_results"`
}

type movieRef struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

// Credits is the body of GET movie/{id}/credits.
type Credits struct {
	ID   int          `json:"id" validate:"gt=0"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one acting credit.
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
	CreditID  string `json:"credit_id"`
}

// CrewMember is one crew credit.
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
	CreditID   string `json:"credit_id"`
}
