// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

// FileStore keeps objects on the local filesystem under root/bucket/key.
type FileStore struct {
	root string
}

// NewFileStore creates root if needed and returns a store rooted there.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("filesystem object store requires a root directory")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Backend implements Store.
func (s *FileStore) Backend() string { return "filesystem" }

// objectPath maps bucket/key to a path, rejecting keys that escape the bucket.
func (s *FileStore) objectPath(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(clean[1:])), nil
}

// EnsureBucket implements Store.
func (s *FileStore) EnsureBucket(_ context.Context, bucket string) error {
	if _, err := s.objectPath(bucket, "probe"); err != nil {
		return err
	}
	err := os.MkdirAll(filepath.Join(s.root, bucket), 0o750)
	metrics.RecordObjectStoreOp(s.Backend(), "ensure_bucket", err)
	return err
}

// Put implements Store. The object is written to a temp file and renamed so
// readers never observe a partial object.
func (s *FileStore) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64, _ string) (err error) {
	defer func() { metrics.RecordObjectStoreOp(s.Backend(), "put", err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(filepath.Join(s.root, bucket)); statErr != nil {
		return fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close object %s/%s: %w", bucket, key, err)
	}
	if err = os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("commit object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PutFile implements Store.
func (s *FileStore) PutFile(ctx context.Context, bucket, key, src, contentType string) error {
	f, err := os.Open(src) //nolint:gosec // path comes from pipeline configuration
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()
	return s.Put(ctx, bucket, key, f, -1, contentType)
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p) //nolint:gosec // path is confined to the store root
	metrics.RecordObjectStoreOp(s.Backend(), "get", ignoreNotExist(err))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFile implements Store.
func (s *FileStore) GetFile(ctx context.Context, bucket, key, dst string) error {
	rc, err := s.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	return writeLocalFile(dst, rc)
}

// Exists implements Store.
func (s *FileStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	metrics.RecordObjectStoreOp(s.Backend(), "stat", ignoreNotExist(err))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// List implements Store.
func (s *FileStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	base := filepath.Join(s.root, bucket)
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("bucket %s: %w", bucket, ErrNotFound)
	}

	var keys []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	metrics.RecordObjectStoreOp(s.Backend(), "list", err)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, bucket, key string) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	metrics.RecordObjectStoreOp(s.Backend(), "delete", err)
	return err
}

func ignoreNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// writeLocalFile copies r into dst through a temp file in the same directory.
func writeLocalFile(dst string, r io.Reader) (err error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", dst, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".get-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("download to %s: %w", dst, err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
