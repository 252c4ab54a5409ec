// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package metrics holds the Prometheus collectors of the DataFlix pipeline.
//
// The pipeline is a batch job, so metrics are not scraped from a live
// endpoint. Instead WriteTextfile dumps the default registry at the end of
// a run for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataflix_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_duckdb_query_errors_total",
			Help: "Total number of DuckDB statement errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Load Metrics (silver and gold)
	TableRowsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataflix_table_rows_loaded",
			Help: "Rows inserted into a table by the last full-refresh load",
		},
		[]string{"table"},
	)

	TableLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataflix_table_load_duration_seconds",
			Help:    "Duration of a truncate-and-load transaction",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"table"},
	)

	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_records_dropped_total",
			Help: "Source records dropped during transformation",
		},
		[]string{"entity", "reason"}, // reason: duplicate, out_of_range, orphan, malformed
	)

	// Extraction Metrics (bronze)
	ExtractItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_extract_items_total",
			Help: "Items processed by an extraction job",
		},
		[]string{"job", "status"}, // status: success, failed, skipped
	)

	ExtractBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_extract_batches_total",
			Help: "Batches handled by an extraction job",
		},
		[]string{"job", "status"}, // status: written, skipped, discarded
	)

	ExtractBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataflix_extract_batch_duration_seconds",
			Help:    "Time to resolve and write one extraction batch",
			Buckets: []float64{1, 5, 15, 60, 180, 600, 1800},
		},
		[]string{"job"},
	)

	// External API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataflix_tmdb_request_duration_seconds",
			Help:    "Duration of TMDB API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	APIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_tmdb_retries_total",
			Help: "Retries issued against the TMDB API",
		},
		[]string{"reason"}, // reason: transient, rate_limited
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataflix_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_circuit_breaker_requests_total",
			Help: "Total requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataflix_circuit_breaker_consecutive_failures",
			Help: "Current consecutive failures count",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_circuit_breaker_transitions_total",
			Help: "Total state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Object Store Metrics
	ObjectStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataflix_object_store_operations_total",
			Help: "Object store operations by type and outcome",
		},
		[]string{"backend", "op", "status"},
	)

	// Data Quality Metrics
	QualityIssues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataflix_quality_issues",
			Help: "Issues raised by the last validation of a layer",
		},
		[]string{"layer", "severity"},
	)

	QualityPassed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataflix_quality_passed",
			Help: "1 when the last validation of a layer passed, else 0",
		},
		[]string{"layer"},
	)

	// Stage Metrics
	StageDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataflix_stage_duration_seconds",
			Help: "Duration of the last run of a pipeline stage",
		},
		[]string{"stage"},
	)

	StageLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataflix_stage_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run of a pipeline stage",
		},
		[]string{"stage"},
	)
)

// RecordDBQuery records a DuckDB statement metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordTableLoad records the outcome of a full-refresh table load.
func RecordTableLoad(table string, rows int64, duration time.Duration) {
	TableRowsLoaded.WithLabelValues(table).Set(float64(rows))
	TableLoadDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// RecordStage records the duration of a stage and, on success, its completion time.
func RecordStage(stage string, duration time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Set(duration.Seconds())
	if err == nil {
		StageLastSuccess.WithLabelValues(stage).SetToCurrentTime()
	}
}

// RecordObjectStoreOp counts one object store operation.
func RecordObjectStoreOp(backend, op string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	ObjectStoreOperations.WithLabelValues(backend, op, status).Inc()
}

// WriteTextfile writes every registered metric to path in the text exposition format.
// The parent directory is created when missing.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
