// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// histogramCount extracts the sample count from a Prometheus histogram.
func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	var m io_prometheus_client.Metric
	if err := o.(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

// TestRecordDBQuery tests database query metric recording
func TestRecordDBQuery(t *testing.T) {
	long := errors.New("this is a very long error message that exceeds fifty characters and should be truncated properly")

	RecordDBQuery("INSERT", "silver.ratings", 10*time.Millisecond, nil)
	RecordDBQuery("DELETE", "silver.movies", 5*time.Millisecond, long)

	got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("DELETE", "silver.movies", long.Error()[:50]))
	if got < 1 {
		t.Errorf("expected truncated error label to be counted, got %v", got)
	}
	if n := testutil.CollectAndCount(DBQueryDuration); n == 0 {
		t.Error("expected query duration series to be recorded")
	}
}

func TestRecordTableLoad_Histogram(t *testing.T) {
	before := histogramCount(t, TableLoadDuration.WithLabelValues("silver.tags"))
	RecordTableLoad("silver.tags", 7, 120*time.Millisecond)
	RecordTableLoad("silver.tags", 9, 80*time.Millisecond)
	if got := histogramCount(t, TableLoadDuration.WithLabelValues("silver.tags")); got != before+2 {
		t.Errorf("expected 2 new load observations, got %d", got-before)
	}
}

func TestRecordTableLoad(t *testing.T) {
	RecordTableLoad("gold.dim_movies", 42, time.Second)

	if got := testutil.ToFloat64(TableRowsLoaded.WithLabelValues("gold.dim_movies")); got != 42 {
		t.Errorf("rows loaded = %v, want 42", got)
	}

	// A reload replaces, not accumulates.
	RecordTableLoad("gold.dim_movies", 40, time.Second)
	if got := testutil.ToFloat64(TableRowsLoaded.WithLabelValues("gold.dim_movies")); got != 40 {
		t.Errorf("rows loaded after reload = %v, want 40", got)
	}
}

func TestRecordStage(t *testing.T) {
	RecordStage("silver-test", 2*time.Second, nil)
	if got := testutil.ToFloat64(StageDuration.WithLabelValues("silver-test")); got != 2 {
		t.Errorf("stage duration = %v, want 2", got)
	}
	if got := testutil.ToFloat64(StageLastSuccess.WithLabelValues("silver-test")); got == 0 {
		t.Error("expected last success timestamp to be set")
	}

	RecordStage("gold-test", time.Second, errors.New("boom"))
	if got := testutil.ToFloat64(StageLastSuccess.WithLabelValues("gold-test")); got != 0 {
		t.Errorf("failed stage must not set success timestamp, got %v", got)
	}
}

func TestRecordObjectStoreOp(t *testing.T) {
	RecordObjectStoreOp("filesystem", "put", nil)
	RecordObjectStoreOp("filesystem", "put", errors.New("disk full"))

	if got := testutil.ToFloat64(ObjectStoreOperations.WithLabelValues("filesystem", "put", "success")); got < 1 {
		t.Errorf("success count = %v", got)
	}
	if got := testutil.ToFloat64(ObjectStoreOperations.WithLabelValues("filesystem", "put", "failure")); got < 1 {
		t.Errorf("failure count = %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	ExtractItems.WithLabelValues("tmdb_movies", "success").Add(3)

	path := filepath.Join(t.TempDir(), "nested", "dataflix.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "dataflix_extract_items_total") {
		t.Errorf("textfile missing extraction metric:\n%s", data)
	}

	if err := WriteTextfile(""); err != nil {
		t.Errorf("empty path should be a no-op, got %v", err)
	}
}
