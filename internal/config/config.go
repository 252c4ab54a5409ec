// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package config loads DataFlix pipeline configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. The resulting Config is passed explicitly to
// every stage constructor; no package keeps global configuration state.
package config

import (
	"time"
)

// Config holds all pipeline configuration.
type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	ObjectStore ObjectStoreConfig `koanf:"objectstore"`
	TMDB        TMDBConfig        `koanf:"tmdb"`
	MovieLens   MovieLensConfig   `koanf:"movielens"`
	Extract     ExtractConfig     `koanf:"extract"`
	Checkpoint  CheckpointConfig  `koanf:"checkpoint"`
	Load        LoadConfig        `koanf:"load"`
	Quality     QualityConfig     `koanf:"quality"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// DatabaseConfig holds DuckDB warehouse configuration.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// ObjectStoreConfig selects and configures the bronze object store.
type ObjectStoreConfig struct {
	// Backend is "filesystem" or "minio".
	Backend string `koanf:"backend"`

	// Root is the base directory of the filesystem backend; each bucket is a subdirectory.
	Root string `koanf:"root"`

	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	UseSSL    bool   `koanf:"use_ssl"`
	Region    string `koanf:"region"`

	BronzeMovieLensBucket string `koanf:"bronze_movielens_bucket"`
	BronzeTMDBBucket      string `koanf:"bronze_tmdb_bucket"`
}

// TMDBConfig holds TMDB API client configuration.
type TMDBConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Language          string        `koanf:"language"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
	MaxAttempts       int           `koanf:"max_attempts"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay"`
	MaxRateLimitWaits int           `koanf:"max_rate_limit_waits"`
	CircuitBreaker    bool          `koanf:"circuit_breaker"`
}

// MovieLensConfig points at the raw MovieLens dataset.
type MovieLensConfig struct {
	// SourceDir is the local directory holding the CSV files to ingest.
	SourceDir string   `koanf:"source_dir"`
	Files     []string `koanf:"files"`
}

// ExtractConfig holds bronze extraction tuning.
type ExtractConfig struct {
	BatchSize        int           `koanf:"batch_size"`
	Workers          int           `koanf:"workers"`
	TurboWorkers     int           `koanf:"turbo_workers"`
	ItemTimeout      time.Duration `koanf:"item_timeout"`
	TestLimit        int           `koanf:"test_limit"`
	CreditsTestLimit int           `koanf:"credits_test_limit"`
	SaveAttempts     int           `koanf:"save_attempts"`
	SaveRetryDelay   time.Duration `koanf:"save_retry_delay"`
	MoviesPrefix     string        `koanf:"movies_prefix"`
	CreditsPrefix    string        `koanf:"credits_prefix"`
	WorkDir          string        `koanf:"work_dir"`
}

// CheckpointConfig selects where extraction progress is persisted.
type CheckpointConfig struct {
	// Backend is "file" or "badger".
	Backend    string `koanf:"backend"`
	Path       string `koanf:"path"`
	BadgerPath string `koanf:"badger_path"`
}

// LoadConfig holds batched-insert sizes per table family.
type LoadConfig struct {
	DimensionBatchSize int `koanf:"dimension_batch_size"`
	FactBatchSize      int `koanf:"fact_batch_size"`
	ChunkSize          int `koanf:"chunk_size"`
	TMDBBatchSize      int `koanf:"tmdb_batch_size"`
	GoldBatchSize      int `koanf:"gold_batch_size"`
}

// QualityConfig holds validator thresholds.
type QualityConfig struct {
	// MissingWarnPercent is the coverage gap above which a warning issue is raised.
	MissingWarnPercent float64 `koanf:"missing_warn_percent"`
	// FailOnError makes the validate command exit non-zero on error issues.
	FailOnError bool `koanf:"fail_on_error"`
}

// MetricsConfig controls the Prometheus textfile export written at the end of a run.
type MetricsConfig struct {
	TextfilePath string `koanf:"textfile_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, the config file and the environment.
// explicitPath, when non-empty, takes precedence over CONFIG_PATH and the default paths.
func Load(explicitPath string) (*Config, error) {
	return LoadWithKoanf(explicitPath)
}
