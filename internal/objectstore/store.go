// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package objectstore stores raw and intermediate pipeline artifacts
// (CSV files, Parquet batches, JSON manifests) addressed by bucket and key.
//
// Two backends are provided: a local filesystem layout where each bucket is
// a directory, and an S3-compatible MinIO backend. Buckets are created
// idempotently by EnsureBucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/joaoVMiguez/DataFlix/internal/config"
)

// ErrNotFound is returned when a bucket or key does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the contract the pipeline needs from an object store.
type Store interface {
	// EnsureBucket creates bucket if it does not exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// Put writes size bytes from r under bucket/key, replacing any previous object.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error

	// PutFile uploads a local file.
	PutFile(ctx context.Context, bucket, key, path, contentType string) error

	// Get opens bucket/key for reading. Callers must close the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// GetFile downloads bucket/key into a local file.
	GetFile(ctx context.Context, bucket, key, path string) error

	// Exists reports whether bucket/key exists.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// List returns the keys under prefix, sorted lexicographically.
	List(ctx context.Context, bucket, prefix string) ([]string, error)

	// Delete removes bucket/key. Deleting a missing key is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// Backend names the implementation for logs and metrics.
	Backend() string
}

// Content types used by the pipeline.
const (
	ContentTypeCSV     = "text/csv"
	ContentTypeParquet = "application/vnd.apache.parquet"
	ContentTypeJSON    = "application/json"
)

// New builds the Store selected by cfg.Backend.
func New(cfg config.ObjectStoreConfig) (Store, error) {
	switch cfg.Backend {
	case "filesystem":
		return NewFileStore(cfg.Root)
	case "minio":
		return NewMinioStore(cfg)
	default:
		return nil, fmt.Errorf("unknown object store backend %q", cfg.Backend)
	}
}
