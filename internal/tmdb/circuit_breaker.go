// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

// CircuitBreakerClient wraps an API with the circuit breaker pattern.
// When TMDB is down every worker would otherwise burn its full retry budget
// per item; an open circuit fails items fast until the half-open probe succeeds.
//
// ErrNotFound and ErrMalformed describe the item, not the service, and are
// not counted as failures.
type CircuitBreakerClient struct {
	api  API
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// BreakerSettings tunes the circuit breaker.
type BreakerSettings struct {
	MinRequests  uint32        // requests in the window before the breaker may trip
	FailureRatio float64       // failure ratio that opens the circuit
	Interval     time.Duration // closed-state counting window
	Timeout      time.Duration // open-state duration before a half-open probe
}

// DefaultBreakerSettings opens after a 60% failure rate over at least 10 requests
// and probes again after one minute.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		Timeout:      time.Minute,
	}
}

// NewCircuitBreakerClient wraps api.
func NewCircuitBreakerClient(api API, s BreakerSettings) *CircuitBreakerClient {
	cbName := "tmdb-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3, // Allow 3 concurrent requests in half-open state
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrMalformed) ||
				errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{api: api, cb: cb, name: cbName}
}

// State returns the current breaker state.
func (cbc *CircuitBreakerClient) State() gobreaker.State {
	return cbc.cb.State()
}

// execute wraps an API call with circuit breaker protection
func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Debug().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)

	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MovieDetails implements API with circuit breaker protection.
func (cbc *CircuitBreakerClient) MovieDetails(ctx context.Context, tmdbID int) (*Movie, error) {
	return castResult[*Movie](cbc.execute(func() (any, error) {
		return cbc.api.MovieDetails(ctx, tmdbID)
	}))
}

// FindByIMDbID implements API with circuit breaker protection.
func (cbc *CircuitBreakerClient) FindByIMDbID(ctx context.Context, imdbID string) (int, error) {
	return castResult[int](cbc.execute(func() (any, error) {
		return cbc.api.FindByIMDbID(ctx, imdbID)
	}))
}

// SearchMovie implements API with circuit breaker protection.
func (cbc *CircuitBreakerClient) SearchMovie(ctx context.Context, title string, year int) (int, error) {
	return castResult[int](cbc.execute(func() (any, error) {
		return cbc.api.SearchMovie(ctx, title, year)
	}))
}

// MovieCredits implements API with circuit breaker protection.
func (cbc *CircuitBreakerClient) MovieCredits(ctx context.Context, tmdbID int) (*Credits, error) {
	return castResult[*Credits](cbc.execute(func() (any, error) {
		return cbc.api.MovieCredits(ctx, tmdbID)
	}))
}
