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
	"net/http"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

// MinioStore keeps objects in an S3-compatible service.
type MinioStore struct {
	client *minio.Client
	region string
}

// NewMinioStore connects to the endpoint in cfg. No request is issued until first use.
func NewMinioStore(cfg config.ObjectStoreConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client, region: cfg.Region}, nil
}

// Backend implements Store.
func (s *MinioStore) Backend() string { return "minio" }

// EnsureBucket implements Store.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) (err error) {
	defer func() { metrics.RecordObjectStoreOp(s.Backend(), "ensure_bucket", err) }()

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		// Another run may have created it between the check and the create.
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Put implements Store.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	metrics.RecordObjectStoreOp(s.Backend(), "put", err)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, translate(err))
	}
	return nil
}

// PutFile implements Store.
func (s *MinioStore) PutFile(ctx context.Context, bucket, key, path, contentType string) error {
	_, err := s.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{ContentType: contentType})
	metrics.RecordObjectStoreOp(s.Backend(), "put", err)
	if err != nil {
		return fmt.Errorf("upload %s to %s/%s: %w", path, bucket, key, translate(err))
	}
	return nil
}

// Get implements Store. The object is stat'ed first because GetObject
// defers errors until the first Read.
func (s *MinioStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if _, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		metrics.RecordObjectStoreOp(s.Backend(), "get", ignoreMissing(err))
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, translate(err))
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	metrics.RecordObjectStoreOp(s.Backend(), "get", err)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, translate(err))
	}
	return obj, nil
}

// GetFile implements Store.
func (s *MinioStore) GetFile(ctx context.Context, bucket, key, path string) error {
	rc, err := s.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	return writeLocalFile(path, rc)
}

// Exists implements Store.
func (s *MinioStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	metrics.RecordObjectStoreOp(s.Backend(), "stat", ignoreMissing(err))
	if err == nil {
		return true, nil
	}
	if errors.Is(translate(err), ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
}

// List implements Store.
func (s *MinioStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			metrics.RecordObjectStoreOp(s.Backend(), "list", obj.Err)
			return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, translate(obj.Err))
		}
		keys = append(keys, obj.Key)
	}
	metrics.RecordObjectStoreOp(s.Backend(), "list", nil)
	sort.Strings(keys)
	return keys, nil
}

// Delete implements Store.
func (s *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	metrics.RecordObjectStoreOp(s.Backend(), "delete", ignoreMissing(err))
	if err != nil && !errors.Is(translate(err), ErrNotFound) {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// translate maps S3 "not found" responses onto ErrNotFound.
func translate(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Message)
	}
	return err
}

func ignoreMissing(err error) error {
	if err != nil && errors.Is(translate(err), ErrNotFound) {
		return nil
	}
	return err
}
