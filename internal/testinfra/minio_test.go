// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

//go:build integration

package testinfra

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/joaoVMiguez/DataFlix/internal/bronze"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
)

func startMinIO(t *testing.T) (*MinIOContainer, *objectstore.MinioStore) {
	t.Helper()
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	c, err := NewMinIOContainer(ctx, WithStartTimeout(90*time.Second))
	if err != nil {
		t.Fatalf("Failed to create MinIO container: %v", err)
	}
	t.Cleanup(func() { CleanupContainer(t, context.Background(), c.Container) })

	store, err := objectstore.NewMinioStore(c.ObjectStoreConfig())
	if err != nil {
		t.Fatalf("NewMinioStore: %v", err)
	}
	return c, store
}

func TestMinioStore_Integration(t *testing.T) {
	_, store := startMinIO(t)
	ctx := context.Background()
	const bucket = "bronze-tmdb"

	for range 2 {
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			t.Fatalf("EnsureBucket: %v", err)
		}
	}

	body := `{"job":"tmdb_movies","failed_ids":[3,7]}`
	if err := store.Put(ctx, bucket, "movies_v3/_failed.json", strings.NewReader(body), int64(len(body)), objectstore.ContentTypeJSON); err != nil {
		t.Fatalf("Put: %v", err)
	}

	src := filepath.Join(t.TempDir(), "batch.parquet")
	if err := os.WriteFile(src, []byte("PAR1"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"movies_v3/batch_00002.parquet", "movies_v3/batch_00001.parquet"} {
		if err := store.PutFile(ctx, bucket, key, src, objectstore.ContentTypeParquet); err != nil {
			t.Fatalf("PutFile %s: %v", key, err)
		}
	}

	rc, err := store.Get(ctx, bucket, "movies_v3/_failed.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil || string(got) != body {
		t.Errorf("Get body = %q (%v), want %q", got, err, body)
	}

	dst := filepath.Join(t.TempDir(), "nested", "copy.parquet")
	if err := store.GetFile(ctx, bucket, "movies_v3/batch_00001.parquet", dst); err != nil {
		t.Fatalf("GetFile: %v", err)
	}

	keys, err := bronze.BatchKeys(ctx, store, bucket, "movies_v3")
	if err != nil {
		t.Fatalf("BatchKeys: %v", err)
	}
	want := []string{"movies_v3/batch_00001.parquet", "movies_v3/batch_00002.parquet"}
	if !slices.Equal(keys, want) {
		t.Errorf("BatchKeys = %v, want %v", keys, want)
	}

	if ok, err := store.Exists(ctx, bucket, "movies_v3/batch_00009.parquet"); err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
	if _, err := store.Get(ctx, bucket, "movies_v3/batch_00009.parquet"); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := store.Delete(ctx, bucket, "movies_v3/batch_00002.parquet"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, bucket, "movies_v3/batch_00002.parquet"); err != nil {
		t.Errorf("Delete of a missing object should succeed: %v", err)
	}
	if ok, _ := store.Exists(ctx, bucket, "movies_v3/batch_00002.parquet"); ok {
		t.Error("object still exists after Delete")
	}
}

func TestIngestMovieLens_MinIO(t *testing.T) {
	c, store := startMinIO(t)
	ctx := context.Background()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "movies.csv"), []byte("movieId,title,genres\n1,Toy Story (1995),Animation\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	bucket := c.ObjectStoreConfig().BronzeMovieLensBucket
	res, err := bronze.IngestMovieLens(ctx, store, bucket, dir, []string{"movies.csv", "ratings.csv"})
	if err != nil {
		t.Fatalf("IngestMovieLens: %v", err)
	}
	if !slices.Equal(res.Uploaded, []string{"movies.csv"}) || !slices.Equal(res.Missing, []string{"ratings.csv"}) {
		t.Errorf("result = %+v", res)
	}
	if ok, err := store.Exists(ctx, bucket, "movies.csv"); err != nil || !ok {
		t.Errorf("movies.csv not uploaded: %v, %v", ok, err)
	}
}
