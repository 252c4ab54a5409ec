// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package bronze extracts raw data into the object store.
//
// MovieLens CSV files are uploaded as-is. TMDB movie details and credits are
// fetched through a bounded worker pool and written as Parquet objects, with
// a checkpoint saved after every durably written batch so an interrupted run
// can resume where it stopped.
package bronze

import (
	"fmt"
	"time"
)

// MovieRef identifies a MovieLens movie and the external keys used to find it on TMDB.
type MovieRef struct {
	MovieLensID int
	IMDbID      string // tt-prefixed, zero padded; empty when unknown
	TMDBID      int    // 0 when unknown
	Title       string
	Year        int // 0 when unknown
}

// Mode selects how an extraction run treats previous progress.
type Mode string

// Extraction modes.
const (
	// ModeTest processes a small fixed number of items from scratch.
	ModeTest Mode = "test"
	// ModeFull processes everything, skipping batches already present.
	ModeFull Mode = "full"
	// ModeResume continues from the saved checkpoint.
	ModeResume Mode = "resume"
	// ModeReset clears the checkpoint and overwrites existing batches.
	ModeReset Mode = "reset"
	// ModeRetryFailed re-extracts the items listed in the failure manifest
	// into new batches numbered after the highest existing one.
	ModeRetryFailed Mode = "retry-failed"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeTest, ModeFull, ModeResume, ModeReset, ModeRetryFailed:
		return m, nil
	default:
		return "", fmt.Errorf("unknown extraction mode %q", s)
	}
}

// resumes reports whether the saved checkpoint is honoured.
func (m Mode) resumes() bool {
	return m == ModeFull || m == ModeResume || m == ModeRetryFailed
}

// skipsExisting reports whether batches already in the object store are skipped.
func (m Mode) skipsExisting() bool {
	return m == ModeFull || m == ModeResume || m == ModeRetryFailed
}

// Stats holds statistics about one extraction run.
type Stats struct {
	Job string

	// TotalItems is the number of input items handed to the job.
	TotalItems int

	// Success and Failed count items resolved in this run.
	Success int
	Failed  int

	// Skipped counts items not attempted because their output already existed.
	Skipped int

	BatchesWritten int
	BatchesSkipped int

	// Interrupted is set when the run stopped on cancellation.
	Interrupted bool

	StartTime time.Time
	EndTime   time.Time
}

// Processed returns the number of items handled in this run.
func (s *Stats) Processed() int {
	return s.Success + s.Failed + s.Skipped
}

// Duration returns the duration of the run.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Progress returns the run progress as a percentage (0-100).
func (s *Stats) Progress() float64 {
	if s.TotalItems == 0 {
		return 0
	}
	return float64(s.Processed()) / float64(s.TotalItems) * 100
}

// ItemsPerSecond returns the extraction rate.
func (s *Stats) ItemsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.Processed()) / duration
}
