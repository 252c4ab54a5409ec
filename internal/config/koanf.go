// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dataflix/config.yaml",
	"/etc/dataflix/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:                   "data/dataflix.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		ObjectStore: ObjectStoreConfig{
			Backend:               "filesystem",
			Root:                  "data/lake",
			Endpoint:              "localhost:9000",
			Region:                "us-east-1",
			BronzeMovieLensBucket: "bronze-movielens",
			BronzeTMDBBucket:      "bronze-tmdb",
		},
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			Language:          "en-US",
			RequestsPerSecond: 4,
			Timeout:           30 * time.Second,
			MaxAttempts:       3,
			RetryBaseDelay:    1 * time.Second,
			MaxRateLimitWaits: 5,
			CircuitBreaker:    true,
		},
		MovieLens: MovieLensConfig{
			SourceDir: "data/movielens",
			Files:     []string{"movies.csv", "ratings.csv", "tags.csv", "links.csv"},
		},
		Extract: ExtractConfig{
			BatchSize:        2000,
			Workers:          10,
			TurboWorkers:     20,
			ItemTimeout:      30 * time.Second,
			TestLimit:        2000,
			CreditsTestLimit: 10,
			SaveAttempts:     3,
			SaveRetryDelay:   5 * time.Second,
			MoviesPrefix:     "movies_v3",
			CreditsPrefix:    "credits",
			WorkDir:          "",
		},
		Checkpoint: CheckpointConfig{
			Backend:    "file",
			Path:       "data/checkpoints",
			BadgerPath: "data/checkpoints/badger",
		},
		Load: LoadConfig{
			DimensionBatchSize: 1000,
			FactBatchSize:      1000,
			ChunkSize:          50000,
			TMDBBatchSize:      50,
			GoldBatchSize:      100,
		},
		Quality: QualityConfig{
			MissingWarnPercent: 10,
			FailOnError:        false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := explicitPath
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// TMDB_API_KEY -> tmdb.api_key, EXTRACT_WORKERS -> extract.workers
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"movielens.files",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps supported environment variables to koanf config paths.
var envMappings = map[string]string{
	// Database
	"duckdb_path":                     "database.path",
	"duckdb_max_memory":               "database.max_memory",
	"duckdb_threads":                  "database.threads",
	"duckdb_preserve_insertion_order": "database.preserve_insertion_order",

	// Object store
	"object_store_backend":    "objectstore.backend",
	"object_store_root":       "objectstore.root",
	"minio_endpoint":          "objectstore.endpoint",
	"minio_access_key":        "objectstore.access_key",
	"minio_secret_key":        "objectstore.secret_key",
	"minio_use_ssl":           "objectstore.use_ssl",
	"minio_region":            "objectstore.region",
	"bucket_bronze_movielens": "objectstore.bronze_movielens_bucket",
	"bucket_bronze_tmdb":      "objectstore.bronze_tmdb_bucket",

	// TMDB
	"tmdb_api_key":                 "tmdb.api_key",
	"tmdb_base_url":                "tmdb.base_url",
	"tmdb_language":                "tmdb.language",
	"tmdb_max_requests_per_second": "tmdb.requests_per_second",
	"tmdb_timeout":                 "tmdb.timeout",
	"tmdb_retry_attempts":          "tmdb.max_attempts",
	"tmdb_retry_base_delay":        "tmdb.retry_base_delay",
	"tmdb_max_rate_limit_waits":    "tmdb.max_rate_limit_waits",
	"tmdb_circuit_breaker":         "tmdb.circuit_breaker",

	// MovieLens
	"movielens_source_dir": "movielens.source_dir",
	"movielens_files":      "movielens.files",

	// Extraction
	"extract_batch_size":         "extract.batch_size",
	"extract_workers":            "extract.workers",
	"extract_turbo_workers":      "extract.turbo_workers",
	"extract_item_timeout":       "extract.item_timeout",
	"extract_test_limit":         "extract.test_limit",
	"extract_credits_test_limit": "extract.credits_test_limit",
	"extract_save_attempts":      "extract.save_attempts",
	"extract_work_dir":           "extract.work_dir",

	// Checkpoint
	"checkpoint_backend":     "checkpoint.backend",
	"checkpoint_path":        "checkpoint.path",
	"checkpoint_badger_path": "checkpoint.badger_path",

	// Load
	"load_dimension_batch_size": "load.dimension_batch_size",
	"load_fact_batch_size":      "load.fact_batch_size",
	"load_chunk_size":           "load.chunk_size",
	"load_tmdb_batch_size":      "load.tmdb_batch_size",
	"load_gold_batch_size":      "load.gold_batch_size",

	// Quality
	"quality_missing_warn_percent": "quality.missing_warn_percent",
	"quality_fail_on_error":        "quality.fail_on_error",

	// Metrics
	"metrics_textfile_path": "metrics.textfile_path",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - TMDB_API_KEY -> tmdb.api_key
//   - TMDB_MAX_REQUESTS_PER_SECOND -> tmdb.requests_per_second
//   - DUCKDB_PATH -> database.path
//   - EXTRACT_WORKERS -> extract.workers
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// Unmapped keys are skipped so unrelated environment variables never leak into config.
	return ""
}
