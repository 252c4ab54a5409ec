// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package checkpoint

import (
	"context"
	"sync"
)

// MemoryStore implements Store in memory. Used by tests and dry runs.
type MemoryStore struct {
	mu    sync.Mutex
	cp    *Checkpoint
	saves int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store. A copy is kept so later mutation by the caller has no effect.
func (s *MemoryStore) Save(_ context.Context, cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = cp.Clone()
	s.saves++
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cp.Clone(), nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cp = nil
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
