// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordSleeps replaces real waits with a recorder.
func recordSleeps(p *Policy) *[]time.Duration {
	var waits []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestBackoffFunctions(t *testing.T) {
	exp := Exponential(time.Second)
	for i, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		if got := exp(i); got != want {
			t.Errorf("Exponential(%d) = %v, want %v", i, got, want)
		}
	}
	lin := Linear(5 * time.Second)
	for i, want := range []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second} {
		if got := lin(i); got != want {
			t.Errorf("Linear(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: Exponential(time.Second)}
	waits := recordSleeps(&p)

	calls := 0
	stats, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", stats.Attempts)
	}
	if len(*waits) != 2 || (*waits)[0] != time.Second || (*waits)[1] != 2*time.Second {
		t.Errorf("waits = %v, want [1s 2s]", *waits)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: Exponential(time.Millisecond)}
	recordSleeps(&p)

	cause := errors.New("503 service unavailable")
	calls := 0
	stats, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return cause
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if stats.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", stats.Attempts)
	}
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapping ErrExhausted and cause", err)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 5}
	waits := recordSleeps(&p)

	notFound := errors.New("404")
	calls := 0
	_, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(notFound)
	})
	if calls != 1 || len(*waits) != 0 {
		t.Errorf("calls=%d waits=%v, want one call and no waits", calls, *waits)
	}
	if !errors.Is(err, notFound) {
		t.Errorf("err = %v, want %v", err, notFound)
	}
}

func TestDo_RetryablePredicate(t *testing.T) {
	fatal := errors.New("bad request")
	p := Policy{MaxAttempts: 3, Retryable: func(err error) bool { return !errors.Is(err, fatal) }}
	recordSleeps(&p)

	calls := 0
	_, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	if calls != 1 || !errors.Is(err, fatal) {
		t.Errorf("calls=%d err=%v, want single call returning fatal", calls, err)
	}
}

func TestDo_RateLimitUsesSeparateBudget(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: Exponential(time.Second), MaxRateLimitWaits: 5}
	waits := recordSleeps(&p)

	// Two 429s followed by two transient failures and a success: the 429s
	// must not consume the 3 attempts reserved for transient failures.
	script := []error{
		&RateLimitError{RetryAfter: 7 * time.Second},
		&RateLimitError{},
		errors.New("timeout"),
		errors.New("timeout"),
		nil,
	}
	calls := 0
	stats, err := p.Do(context.Background(), func(context.Context) error {
		e := script[calls]
		calls++
		return e
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RateLimited != 2 {
		t.Errorf("RateLimited = %d, want 2", stats.RateLimited)
	}
	if stats.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", stats.Attempts)
	}
	if (*waits)[0] != 7*time.Second {
		t.Errorf("first wait = %v, want Retry-After of 7s", (*waits)[0])
	}
	if (*waits)[1] != time.Second {
		t.Errorf("second wait = %v, want 1s default", (*waits)[1])
	}
}

func TestDo_RateLimitBudgetExhausted(t *testing.T) {
	p := Policy{MaxAttempts: 3, MaxRateLimitWaits: 2}
	recordSleeps(&p)

	calls := 0
	stats, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return &RateLimitError{RetryAfter: time.Second}
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (2 waits + final)", calls)
	}
	if stats.RateLimited != 2 {
		t.Errorf("RateLimited = %d, want 2", stats.RateLimited)
	}
	var rl *RateLimitError
	if !errors.Is(err, ErrExhausted) || !errors.As(err, &rl) {
		t.Errorf("err = %v, want exhausted rate-limit error", err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, Backoff: Exponential(time.Hour)}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := p.Do(ctx, func(context.Context) error {
			calls++
			return errors.New("transient")
		})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not observe cancellation")
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var seen []int
	p := Policy{
		MaxAttempts: 2,
		OnRetry:     func(attempt int, _ error, _ time.Duration) { seen = append(seen, attempt) },
	}
	recordSleeps(&p)

	_, _ = p.Do(context.Background(), func(context.Context) error { return errors.New("x") })
	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("OnRetry attempts = %v, want [1]", seen)
	}
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v", err)
	}
}
