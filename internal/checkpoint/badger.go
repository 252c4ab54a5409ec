// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerStore implements Store using BadgerDB for persistence.
type BadgerStore struct {
	db  *badger.DB
	key []byte
}

// OpenBadger opens (or creates) a Badger database at path tuned for small records.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil                // Suppress BadgerDB internal logs
	opts.ValueLogFileSize = 16 << 20 // 16MB; checkpoints are tiny
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger checkpoint store: %w", err)
	}
	return db, nil
}

// NewBadgerStore creates a checkpoint store for job using the provided BadgerDB instance.
func NewBadgerStore(db *badger.DB, job string) *BadgerStore {
	return &BadgerStore{db: db, key: []byte("extract:" + job + ":checkpoint")}
}

// Save implements Store.
func (s *BadgerStore) Save(_ context.Context, cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
}

// Load implements Store. Returns nil, nil if no checkpoint has been saved.
func (s *BadgerStore) Load(_ context.Context) (*Checkpoint, error) {
	var cp *Checkpoint

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			cp = New()
			return json.Unmarshal(val, cp)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	return cp, nil
}

// Clear implements Store.
func (s *BadgerStore) Clear(_ context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(s.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already cleared
		}
		return err
	})
}
