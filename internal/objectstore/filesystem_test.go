// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/joaoVMiguez/DataFlix/internal/config"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStore_EnsureBucketIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.EnsureBucket(ctx, "bronze-tmdb"); err != nil {
			t.Fatalf("EnsureBucket call %d: %v", i+1, err)
		}
	}
	if err := s.EnsureBucket(ctx, "../escape"); err == nil {
		t.Error("expected error for bucket with path separator")
	}
}

func TestFileStore_PutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.EnsureBucket(ctx, "bronze-movielens"); err != nil {
		t.Fatal(err)
	}

	body := "movieId,title,genres\n1,Toy Story (1995),Animation|Comedy\n"
	if err := s.Put(ctx, "bronze-movielens", "movies.csv", strings.NewReader(body), int64(len(body)), ContentTypeCSV); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := s.Get(ctx, "bronze-movielens", "movies.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != body {
		t.Errorf("Get = %q, want %q", got, body)
	}

	ok, err := s.Exists(ctx, "bronze-movielens", "movies.csv")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v; want true", ok, err)
	}
}

func TestFileStore_PutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.EnsureBucket(ctx, "b")

	_ = s.Put(ctx, "b", "k.json", strings.NewReader("old"), 3, ContentTypeJSON)
	_ = s.Put(ctx, "b", "k.json", strings.NewReader("new"), 3, ContentTypeJSON)

	dst := filepath.Join(t.TempDir(), "out", "k.json")
	if err := s.GetFile(ctx, "b", "k.json", dst); err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "new" {
		t.Errorf("content = %q, want new", data)
	}
}

func TestFileStore_MissingObjects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.EnsureBucket(ctx, "b")

	if _, err := s.Get(ctx, "b", "absent.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
	ok, err := s.Exists(ctx, "b", "absent.csv")
	if err != nil || ok {
		t.Errorf("Exists missing = %v, %v", ok, err)
	}
	if err := s.Put(ctx, "nobucket", "k", strings.NewReader("x"), 1, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Put into missing bucket = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "b", "absent.csv"); err != nil {
		t.Errorf("Delete missing = %v, want nil", err)
	}
	if _, err := s.List(ctx, "nobucket", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("List missing bucket = %v, want ErrNotFound", err)
	}
}

func TestFileStore_ListSortedByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.EnsureBucket(ctx, "bronze-tmdb")

	for _, k := range []string{
		"movies_v3/batch_00002.parquet",
		"movies_v3/batch_00001.parquet",
		"credits/1.parquet",
		"movies_v3/_failed.json",
	} {
		if err := s.Put(ctx, "bronze-tmdb", k, strings.NewReader("x"), 1, ""); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.List(ctx, "bronze-tmdb", "movies_v3/batch_")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"movies_v3/batch_00001.parquet", "movies_v3/batch_00002.parquet"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("List = %v, want %v", keys, want)
	}
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	s := newTestStore(t)
	p, err := s.objectPath("b", "../../etc/passwd")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(p, filepath.Join(s.root, "b")) {
		t.Errorf("path %s escapes bucket", p)
	}
	if _, err := s.objectPath("b", ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestNew(t *testing.T) {
	st, err := New(config.ObjectStoreConfig{Backend: "filesystem", Root: t.TempDir()})
	if err != nil || st.Backend() != "filesystem" {
		t.Fatalf("New filesystem = %v, %v", st, err)
	}
	if _, err := New(config.ObjectStoreConfig{Backend: "gcs"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	mst, err := New(config.ObjectStoreConfig{Backend: "minio", Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	if err != nil || mst.Backend() != "minio" {
		t.Fatalf("New minio = %v, %v", mst, err)
	}
}
