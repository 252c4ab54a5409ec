// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package retry provides a reusable retry policy for calls to external
// collaborators (the TMDB API, the object store).
//
// A Policy is configured with a maximum number of attempts, a backoff
// function and a predicate deciding which errors are worth retrying.
// Rate-limit responses are handled separately: a *RateLimitError carries the
// server-supplied delay and is retried against its own budget, so a burst of
// 429s never consumes the attempts reserved for transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BackoffFunc returns the delay before retry number attempt (0-based).
type BackoffFunc func(attempt int) time.Duration

// Exponential returns base * 2^attempt: 1s, 2s, 4s for base=1s.
func Exponential(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<uint(attempt))
	}
}

// Linear returns step * (attempt+1): 5s, 10s, 15s for step=5s.
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return step * time.Duration(attempt+1)
	}
}

// RateLimitError reports that the remote side asked us to slow down.
type RateLimitError struct {
	// RetryAfter is the server-supplied delay; zero means unspecified.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// permanentError marks an error that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// ErrExhausted is wrapped into the error returned when all attempts failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts for non-rate-limit failures.
	MaxAttempts int

	// Backoff computes the wait between failed attempts.
	Backoff BackoffFunc

	// Retryable decides whether an error is transient. Nil means every error
	// that is not Permanent is retried.
	Retryable func(error) bool

	// MaxRateLimitWaits bounds how many *RateLimitError responses are waited out.
	MaxRateLimitWaits int

	// RateLimitDelay is used when a *RateLimitError carries no RetryAfter.
	RateLimitDelay time.Duration

	// OnRetry is called before each wait. Used for logging and metrics.
	OnRetry func(attempt int, err error, delay time.Duration)

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Stats describes what happened during Do.
type Stats struct {
	Attempts    int
	RateLimited int
}

// Do runs op until it succeeds, returns a non-retryable error, the attempts
// are exhausted, or ctx is done. Each call of op receives ctx unchanged.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) (Stats, error) {
	var stats Stats
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = Sleep
	}

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Attempts++
		err := op(ctx)
		if err == nil {
			return stats, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return stats, perm.err
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		var rl *RateLimitError
		if errors.As(err, &rl) {
			if stats.RateLimited >= p.MaxRateLimitWaits {
				return stats, fmt.Errorf("%w: %d rate-limit waits: %w", ErrExhausted, stats.RateLimited, err)
			}
			delay := rl.RetryAfter
			if delay <= 0 {
				delay = p.RateLimitDelay
			}
			if delay <= 0 {
				delay = time.Second
			}
			stats.RateLimited++
			if p.OnRetry != nil {
				p.OnRetry(stats.Attempts, err, delay)
			}
			if serr := sleep(ctx, delay); serr != nil {
				return stats, serr
			}
			continue
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return stats, err
		}

		failures++
		if failures >= maxAttempts {
			return stats, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, failures, err)
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(failures - 1)
		}
		if p.OnRetry != nil {
			p.OnRetry(stats.Attempts, err, delay)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return stats, serr
		}
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
