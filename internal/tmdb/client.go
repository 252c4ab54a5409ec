// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package tmdb is a client for The Movie Database v3 API.
//
// The client is safe for concurrent use: all workers share one http.Client
// and one token-bucket limiter, so the configured requests-per-second ceiling
// holds for the whole process. Every request goes through a retry policy:
// transient failures are retried with exponential backoff, HTTP 429 waits
// for Retry-After against a separate budget, and other 4xx are permanent.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
	"github.com/joaoVMiguez/DataFlix/internal/retry"
	"github.com/joaoVMiguez/DataFlix/internal/validation"
)

// ErrNotFound is returned when TMDB has no record for the requested key.
var ErrNotFound = errors.New("tmdb: not found")

// ErrMalformed is returned when a response cannot be decoded or fails validation.
var ErrMalformed = errors.New("tmdb: malformed response")

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// API is the subset of TMDB used by the extraction jobs.
type API interface {
	// MovieDetails fetches the full movie record.
	MovieDetails(ctx context.Context, tmdbID int) (*Movie, error)
	// FindByIMDbID resolves an IMDb id (tt-prefixed) to a TMDB id.
	FindByIMDbID(ctx context.Context, imdbID string) (int, error)
	// SearchMovie resolves a title, optionally narrowed by release year, to a TMDB id.
	SearchMovie(ctx context.Context, title string, year int) (int, error)
	// MovieCredits fetches cast and crew.
	MovieCredits(ctx context.Context, tmdbID int) (*Credits, error)
}

// maxErrorBodySize limits the maximum amount of response body read for error reporting
const maxErrorBodySize = 4 * 1024

// defaultRateLimitDelay is waited after a 429 without a usable Retry-After header.
const defaultRateLimitDelay = 5 * time.Second

// Client calls the TMDB API.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	client   *http.Client
	limiter  *rate.Limiter
	policy   retry.Policy
}

// NewClient creates a TMDB client from cfg.
func NewClient(cfg config.TMDBConfig) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
	c.policy = retry.Policy{
		MaxAttempts:       cfg.MaxAttempts,
		Backoff:           retry.Exponential(cfg.RetryBaseDelay),
		Retryable:         isTransient,
		MaxRateLimitWaits: cfg.MaxRateLimitWaits,
		RateLimitDelay:    defaultRateLimitDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			reason := "transient"
			var rl *retry.RateLimitError
			if errors.As(err, &rl) {
				reason = "rate_limited"
			}
			metrics.APIRetries.WithLabelValues(reason).Inc()
			logging.Debug().
				Int("attempt", attempt).
				Str("reason", reason).
				Dur("delay", delay).
				Str("error", logging.RedactError(err, c.apiKey)).
				Msg("Retrying TMDB request")
		},
	}
	return c
}

// isTransient reports whether a failed request may succeed when repeated.
func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrMalformed)
}

// MovieDetails implements API.
func (c *Client) MovieDetails(ctx context.Context, tmdbID int) (*Movie, error) {
	var m Movie
	if err := c.get(ctx, "movie", fmt.Sprintf("movie/%d", tmdbID), nil, &m); err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&m); verr != nil {
		return nil, fmt.Errorf("%w: movie %d: %w", ErrMalformed, tmdbID, verr)
	}
	return &m, nil
}

// FindByIMDbID implements API.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (int, error) {
	params := url.Values{}
	params.Set("external_source", "imdb_id")

	var resp findResponse
	if err := c.get(ctx, "find", "find/"+url.PathEscape(imdbID), params, &resp); err != nil {
		return 0, err
	}
	if len(resp.MovieResults) == 0 || resp.MovieResults[0].ID <= 0 {
		return 0, fmt.Errorf("%w: imdb id %s", ErrNotFound, imdbID)
	}
	return resp.MovieResults[0].ID, nil
}

// SearchMovie implements API. The first result is taken, as ranked by TMDB.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (int, error) {
	params := url.Values{}
	params.Set("query", title)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var resp searchResponse
	if err := c.get(ctx, "search", "search/movie", params, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 || resp.Results[0].ID <= 0 {
		return 0, fmt.Errorf("%w: title %q (%d)", ErrNotFound, title, year)
	}
	return resp.Results[0].ID, nil
}

// MovieCredits implements API.
func (c *Client) MovieCredits(ctx context.Context, tmdbID int) (*Credits, error) {
	var cr Credits
	if err := c.get(ctx, "credits", fmt.Sprintf("movie/%d/credits", tmdbID), nil, &cr); err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&cr); verr != nil {
		return nil, fmt.Errorf("%w: credits %d: %w", ErrMalformed, tmdbID, verr)
	}
	return &cr, nil
}

// get performs a GET against path with retries and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	_, err := c.policy.Do(ctx, func(ctx context.Context) error {
		return c.attempt(ctx, endpoint, reqURL, out)
	})
	if err != nil {
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	return nil
}

// attempt performs one rate-limited request.
func (c *Client) attempt(ctx context.Context, endpoint, reqURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.APIRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return redactURLError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.APIRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode %s: %w", ErrMalformed, endpoint, err)
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		drain(resp.Body)
		return &retry.RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusNotFound:
		drain(resp.Body)
		return retry.Permanent(ErrNotFound)
	default:
		body := readBodyForError(resp.Body)
		se := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: body}
		if resp.StatusCode < 500 {
			return retry.Permanent(se)
		}
		return se
	}
}

// parseRetryAfter reads a Retry-After header given in seconds.
// HTTP-date values and garbage yield zero, which means "use the default delay".
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// readBodyForError reads a bounded amount of the response body for error reporting.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxErrorBodySize))
}

// redactURLError masks the api_key query parameter embedded in *url.Error.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = logging.RedactURL(ue.URL)
	}
	return err
}
