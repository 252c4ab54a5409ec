// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run the services the pipeline talks
// to in production, so the object store code is exercised against a real
// S3-compatible server instead of the filesystem backend.
//
// # MinIO Container
//
// The MinIOContainer provides a throwaway MinIO server:
//
//	func TestBronzeUpload(t *testing.T) {
//	    ctx := context.Background()
//	    minio, err := testinfra.NewMinIOContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, minio.Container)
//
//	    store, err := objectstore.NewMinioStore(minio.ObjectStoreConfig())
//	    // ...
//	}
//
// # Build Tags
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/testinfra/...
//
// Tests call SkipIfNoDocker so they skip cleanly where no Docker daemon is reachable.
package testinfra
