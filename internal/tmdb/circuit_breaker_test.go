// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// stubAPI returns err for every call, or a fixed record when err is nil.
type stubAPI struct {
	err   error
	calls int
}

func (s *stubAPI) MovieDetails(context.Context, int) (*Movie, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Movie{ID: 862, Title: "Toy Story"}, nil
}

func (s *stubAPI) FindByIMDbID(context.Context, string) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return 862, nil
}

func (s *stubAPI) SearchMovie(context.Context, string, int) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return 8844, nil
}

func (s *stubAPI) MovieCredits(context.Context, int) (*Credits, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Credits{ID: 862}, nil
}

func testBreakerSettings() BreakerSettings {
	return BreakerSettings{MinRequests: 3, FailureRatio: 0.5, Interval: time.Minute, Timeout: time.Hour}
}

func TestCircuitBreaker_PassesThrough(t *testing.T) {
	cbc := NewCircuitBreakerClient(&stubAPI{}, testBreakerSettings())
	ctx := context.Background()

	m, err := cbc.MovieDetails(ctx, 862)
	if err != nil || m.ID != 862 {
		t.Errorf("MovieDetails = %+v, %v", m, err)
	}
	id, err := cbc.FindByIMDbID(ctx, "tt0114709")
	if err != nil || id != 862 {
		t.Errorf("FindByIMDbID = %d, %v", id, err)
	}
	id, err = cbc.SearchMovie(ctx, "Jumanji", 1995)
	if err != nil || id != 8844 {
		t.Errorf("SearchMovie = %d, %v", id, err)
	}
	cr, err := cbc.MovieCredits(ctx, 862)
	if err != nil || cr.ID != 862 {
		t.Errorf("MovieCredits = %+v, %v", cr, err)
	}
}

func TestCircuitBreaker_OpensOnServiceFailures(t *testing.T) {
	stub := &stubAPI{err: &StatusError{Endpoint: "movie", StatusCode: 503}}
	cbc := NewCircuitBreakerClient(stub, testBreakerSettings())

	for i := 0; i < 3; i++ {
		if _, err := cbc.MovieDetails(context.Background(), i+1); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cbc.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", cbc.State())
	}

	_, err := cbc.MovieDetails(context.Background(), 99)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if stub.calls != 3 {
		t.Errorf("calls reaching the API = %d, want 3", stub.calls)
	}
}

func TestCircuitBreaker_ItemErrorsDoNotTrip(t *testing.T) {
	for _, itemErr := range []error{
		fmt.Errorf("wrapped: %w", ErrNotFound),
		fmt.Errorf("wrapped: %w", ErrMalformed),
	} {
		stub := &stubAPI{err: itemErr}
		cbc := NewCircuitBreakerClient(stub, testBreakerSettings())

		for i := 0; i < 10; i++ {
			_, err := cbc.FindByIMDbID(context.Background(), "tt0000001")
			if !errors.Is(err, itemErr) {
				t.Fatalf("err = %v, want %v", err, itemErr)
			}
		}
		if cbc.State() != gobreaker.StateClosed {
			t.Errorf("%v: state = %v, want closed", itemErr, cbc.State())
		}
	}
}

func TestStateConversions(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		f     float64
		s     string
	}{
		{gobreaker.StateClosed, 0, "closed"},
		{gobreaker.StateHalfOpen, 1, "half-open"},
		{gobreaker.StateOpen, 2, "open"},
		{gobreaker.State(42), -1, "unknown"},
	}
	for _, tt := range tests {
		if got := stateToFloat(tt.state); got != tt.f {
			t.Errorf("stateToFloat(%v) = %v", tt.state, got)
		}
		if got := stateToString(tt.state); got != tt.s {
			t.Errorf("stateToString(%v) = %v", tt.state, got)
		}
	}
}
