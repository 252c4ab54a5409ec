// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package config

import (
	"fmt"
	"strings"
)

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	validLogFormats = map[string]bool{
		"json": true, "console": true,
	}
	validObjectStoreBackends = map[string]bool{
		"filesystem": true, "minio": true,
	}
	validCheckpointBackends = map[string]bool{
		"file": true, "badger": true,
	}
)

// Validate checks that required configuration is present and valid.
// The TMDB API key is not required here; only the TMDB extraction commands
// need it, and they check with RequireTMDB.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateObjectStore(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateCheckpoint(); err != nil {
		return err
	}
	if err := c.validateLoad(); err != nil {
		return err
	}
	if c.Quality.MissingWarnPercent < 0 || c.Quality.MissingWarnPercent > 100 {
		return fmt.Errorf("QUALITY_MISSING_WARN_PERCENT must be between 0 and 100, got %v", c.Quality.MissingWarnPercent)
	}
	return c.validateLogging()
}

// RequireTMDB reports whether the TMDB credentials needed by extraction are set.
func (c *Config) RequireTMDB() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		return fmt.Errorf("TMDB_API_KEY is required for TMDB extraction")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateObjectStore() error {
	s := c.ObjectStore
	if !validObjectStoreBackends[s.Backend] {
		return fmt.Errorf("OBJECT_STORE_BACKEND must be one of: filesystem, minio")
	}
	switch s.Backend {
	case "filesystem":
		if s.Root == "" {
			return fmt.Errorf("OBJECT_STORE_ROOT is required when OBJECT_STORE_BACKEND=filesystem")
		}
	case "minio":
		if err := validateEndpoint(s.Endpoint, "MINIO_ENDPOINT"); err != nil {
			return err
		}
		if s.AccessKey == "" || s.SecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when OBJECT_STORE_BACKEND=minio")
		}
	}
	if s.BronzeMovieLensBucket == "" || s.BronzeTMDBBucket == "" {
		return fmt.Errorf("bronze bucket names must not be empty")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if err := validateHTTPURL(c.TMDB.BaseURL, "TMDB_BASE_URL"); err != nil {
		return fmt.Errorf("TMDB_BASE_URL is invalid: %w", err)
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return fmt.Errorf("TMDB_MAX_REQUESTS_PER_SECOND must be > 0, got %v", c.TMDB.RequestsPerSecond)
	}
	if c.TMDB.MaxAttempts < 1 {
		return fmt.Errorf("TMDB_RETRY_ATTEMPTS must be at least 1, got %d", c.TMDB.MaxAttempts)
	}
	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateExtract() error {
	e := c.Extract
	if e.BatchSize < 1 {
		return fmt.Errorf("EXTRACT_BATCH_SIZE must be at least 1, got %d", e.BatchSize)
	}
	if e.Workers < 1 || e.TurboWorkers < 1 {
		return fmt.Errorf("EXTRACT_WORKERS and EXTRACT_TURBO_WORKERS must be at least 1")
	}
	if e.ItemTimeout <= 0 {
		return fmt.Errorf("EXTRACT_ITEM_TIMEOUT must be positive")
	}
	if e.TestLimit < 1 || e.CreditsTestLimit < 1 {
		return fmt.Errorf("test limits must be at least 1")
	}
	if e.SaveAttempts < 1 {
		return fmt.Errorf("EXTRACT_SAVE_ATTEMPTS must be at least 1, got %d", e.SaveAttempts)
	}
	if e.MoviesPrefix == "" || e.CreditsPrefix == "" {
		return fmt.Errorf("extract object prefixes must not be empty")
	}
	return nil
}

func (c *Config) validateCheckpoint() error {
	if !validCheckpointBackends[c.Checkpoint.Backend] {
		return fmt.Errorf("CHECKPOINT_BACKEND must be one of: file, badger")
	}
	if c.Checkpoint.Backend == "file" && c.Checkpoint.Path == "" {
		return fmt.Errorf("CHECKPOINT_PATH is required when CHECKPOINT_BACKEND=file")
	}
	if c.Checkpoint.Backend == "badger" && c.Checkpoint.BadgerPath == "" {
		return fmt.Errorf("CHECKPOINT_BADGER_PATH is required when CHECKPOINT_BACKEND=badger")
	}
	return nil
}

func (c *Config) validateLoad() error {
	l := c.Load
	sizes := map[string]int{
		"LOAD_DIMENSION_BATCH_SIZE": l.DimensionBatchSize,
		"LOAD_FACT_BATCH_SIZE":      l.FactBatchSize,
		"LOAD_CHUNK_SIZE":           l.ChunkSize,
		"LOAD_TMDB_BATCH_SIZE":      l.TMDBBatchSize,
		"LOAD_GOLD_BATCH_SIZE":      l.GoldBatchSize,
	}
	for name, v := range sizes {
		if v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, v)
		}
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
