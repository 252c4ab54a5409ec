// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package checkpoint persists the progress of long-running extraction jobs
// so that an interrupted run can resume without reprocessing completed
// batches.
//
// Three stores are provided: an atomic JSON file (the default), a Badger
// key-value store, and an in-memory store for tests.
package checkpoint

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/config"
)

// Checkpoint is the durable progress record of one extraction job.
type Checkpoint struct {
	LastBatch        int       `json:"last_batch"`
	CompletedBatches []int     `json:"completed_batches"`
	TotalSuccess     int       `json:"total_success"`
	TotalErrors      int       `json:"total_errors"`
	FailedIDs        []int     `json:"failed_ids,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// New returns an empty checkpoint.
func New() *Checkpoint {
	return &Checkpoint{CompletedBatches: []int{}}
}

// IsCompleted reports whether batch was already written by a previous run.
// Batches are written in increasing order, so everything up to LastBatch is done.
func (c *Checkpoint) IsCompleted(batch int) bool {
	if c == nil {
		return false
	}
	return batch <= c.LastBatch || slices.Contains(c.CompletedBatches, batch)
}

// RecordBatch folds the outcome of a durably written batch into the checkpoint.
func (c *Checkpoint) RecordBatch(batch, success, failed int, failedIDs []int) {
	if batch > c.LastBatch {
		c.LastBatch = batch
	}
	if !slices.Contains(c.CompletedBatches, batch) {
		c.CompletedBatches = append(c.CompletedBatches, batch)
	}
	c.TotalSuccess += success
	c.TotalErrors += failed
	c.FailedIDs = append(c.FailedIDs, failedIDs...)
	c.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.CompletedBatches = slices.Clone(c.CompletedBatches)
	cp.FailedIDs = slices.Clone(c.FailedIDs)
	return &cp
}

// Store persists checkpoints for one job.
type Store interface {
	// Load returns the saved checkpoint, or nil, nil when none exists.
	Load(ctx context.Context) (*Checkpoint, error)
	// Save replaces the saved checkpoint.
	Save(ctx context.Context, cp *Checkpoint) error
	// Clear removes the saved checkpoint.
	Clear(ctx context.Context) error
}

// Open returns the Store configured in cfg for the named job.
// The returned closer releases backend resources and must be called once.
func Open(cfg config.CheckpointConfig, job string) (Store, func() error, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.Path, job), func() error { return nil }, nil
	case "badger":
		db, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return NewBadgerStore(db, job), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}
