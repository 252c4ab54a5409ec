// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/joaoVMiguez/DataFlix/internal/config"
)

const (
	// DefaultMinIOImage is the MinIO server image used by default.
	DefaultMinIOImage = "minio/minio:RELEASE.2024-11-07T00-52-20Z"

	// DefaultMinIOPort is the S3 API port.
	DefaultMinIOPort = "9000/tcp"

	DefaultMinIOUser     = "dataflix"
	DefaultMinIOPassword = "dataflix-secret"
)

// MinIOContainer is a running MinIO server.
type MinIOContainer struct {
	testcontainers.Container
	Endpoint  string
	AccessKey string
	SecretKey string
}

// MinIOOption configures the MinIO container.
type MinIOOption func(*minioConfig)

type minioConfig struct {
	image        string
	user         string
	password     string
	startTimeout time.Duration
}

// WithMinIOImage sets a custom MinIO image.
func WithMinIOImage(image string) MinIOOption {
	return func(c *minioConfig) {
		c.image = image
	}
}

// WithCredentials sets the root user and password.
func WithCredentials(user, password string) MinIOOption {
	return func(c *minioConfig) {
		c.user = user
		c.password = password
	}
}

// WithStartTimeout sets the timeout for waiting for MinIO to become healthy.
func WithStartTimeout(timeout time.Duration) MinIOOption {
	return func(c *minioConfig) {
		c.startTimeout = timeout
	}
}

// NewMinIOContainer starts a MinIO server and waits for its health endpoint.
func NewMinIOContainer(ctx context.Context, opts ...MinIOOption) (*MinIOContainer, error) {
	cfg := &minioConfig{
		image:        DefaultMinIOImage,
		user:         DefaultMinIOUser,
		password:     DefaultMinIOPassword,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMinIOPort},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     cfg.user,
			"MINIO_ROOT_PASSWORD": cfg.password,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMinIOPort),
			wait.ForHTTP("/minio/health/live").WithPort(DefaultMinIOPort),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	addr, err := endpoint(ctx, container, DefaultMinIOPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	return &MinIOContainer{
		Container: container,
		Endpoint:  addr,
		AccessKey: cfg.user,
		SecretKey: cfg.password,
	}, nil
}

// ObjectStoreConfig returns a minio backend configuration pointing at the container.
func (c *MinIOContainer) ObjectStoreConfig() config.ObjectStoreConfig {
	return config.ObjectStoreConfig{
		Backend:               "minio",
		Endpoint:              c.Endpoint,
		AccessKey:             c.AccessKey,
		SecretKey:             c.SecretKey,
		Region:                "us-east-1",
		BronzeMovieLensBucket: "bronze-movielens",
		BronzeTMDBBucket:      "bronze-tmdb",
	}
}
