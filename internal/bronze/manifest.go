// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package bronze

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
)

// ManifestName is the object name of the failure manifest inside a job prefix.
const ManifestName = "_failed.json"

// Manifest lists the items a completed job could not resolve.
type Manifest struct {
	Job         string    `json:"job"`
	FailedIDs   []int     `json:"failed_ids"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ManifestKey returns the manifest key for objects stored under prefix.
func ManifestKey(prefix string) string {
	return path.Join(prefix, ManifestName)
}

// WriteManifest stores the failure manifest for job.
func WriteManifest(ctx context.Context, store objectstore.Store, bucket, key, job string, failedIDs []int) error {
	if failedIDs == nil {
		failedIDs = []int{}
	}
	data, err := json.MarshalIndent(Manifest{
		Job:         job,
		FailedIDs:   failedIDs,
		GeneratedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return store.Put(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), objectstore.ContentTypeJSON)
}

// ReadManifest returns the failed ids recorded at key.
// A missing manifest yields an error wrapping objectstore.ErrNotFound.
func ReadManifest(ctx context.Context, store objectstore.Store, bucket, key string) ([]int, error) {
	rc, err := store.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", key, err)
	}
	return m.FailedIDs, nil
}

var batchKeyPattern = regexp.MustCompile(`batch_(\d{5})\.parquet$`)

// BatchKey returns the object key of batch n under prefix.
func BatchKey(prefix string, n int) string {
	return fmt.Sprintf("%s/batch_%05d.parquet", prefix, n)
}

// BatchKeys lists the batch objects under prefix in batch order.
func BatchKeys(ctx context.Context, store objectstore.Store, bucket, prefix string) ([]string, error) {
	keys, err := store.List(ctx, bucket, prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list %s batches: %w", prefix, err)
	}
	batches := keys[:0]
	for _, k := range keys {
		if batchKeyPattern.MatchString(k) {
			batches = append(batches, k)
		}
	}
	return batches, nil
}

// NextBatchNumber returns one past the highest batch number under prefix,
// or 1 when no batch exists.
func NextBatchNumber(ctx context.Context, store objectstore.Store, bucket, prefix string) (int, error) {
	keys, err := BatchKeys(ctx, store, bucket, prefix)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, k := range keys {
		m := batchKeyPattern.FindStringSubmatch(k)
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return highest + 1, nil
}
