// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package quality runs read-only data-quality checks after each layer.
//
// A validation never changes data. It returns a Report listing every
// observed measure and the issues raised; warnings are advisory and only
// error issues make a report fail.
package quality

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/joaoVMiguez/DataFlix/internal/config"
	"github.com/joaoVMiguez/DataFlix/internal/database"
	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

// Layers that can be validated.
const (
	LayerSilver     = "silver"
	LayerSilverTMDB = "silver_tmdb"
	LayerGold       = "gold"
	LayerGoldTMDB   = "gold_tmdb"
)

// Layers lists every layer in pipeline order.
var Layers = []string{LayerSilver, LayerSilverTMDB, LayerGold, LayerGoldTMDB}

// Severity of an issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Check is one observed measure.
type Check struct {
	Name  string
	Value float64
	// Valid is false when the measure is NULL, e.g. the minimum of an empty table.
	Valid bool
}

// Issue is a problem found by a check.
type Issue struct {
	Check    string
	Severity Severity
	Message  string
}

// Report is the outcome of validating one layer.
type Report struct {
	Layer    string
	Checks   []Check
	Issues   []Issue
	Passed   bool
	Duration time.Duration
}

// Count returns the number of issues of severity s.
func (r *Report) Count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// Value returns the measure recorded by the named check.
func (r *Report) Value(name string) (float64, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c.Value, c.Valid
		}
	}
	return 0, false
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r *Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("layer", r.Layer).
		Bool("passed", r.Passed).
		Int("checks", len(r.Checks)).
		Int("errors", r.Count(SeverityError)).
		Int("warnings", r.Count(SeverityWarning)).
		Dur("duration", r.Duration)
}

// Validator runs the layer checks against the warehouse.
type Validator struct {
	db  *database.DB
	cfg config.QualityConfig
}

// NewValidator creates a Validator.
func NewValidator(db *database.DB, cfg config.QualityConfig) *Validator {
	return &Validator{db: db, cfg: cfg}
}

// Validate runs the checks of layer. A query failure aborts the validation
// and is returned; problems in the data are reported as issues.
func (v *Validator) Validate(ctx context.Context, layer string) (*Report, error) {
	checks, ok := layerChecks[layer]
	if !ok {
		return nil, fmt.Errorf("unknown layer %q (want one of %s)", layer, strings.Join(Layers, ", "))
	}

	start := time.Now()
	r := &Report{Layer: layer}
	for _, c := range checks {
		if err := c.run(ctx, v, r); err != nil {
			return nil, fmt.Errorf("%s check %s: %w", layer, c.name(), err)
		}
	}
	r.Passed = r.Count(SeverityError) == 0
	r.Duration = time.Since(start)

	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityError} {
		metrics.QualityIssues.WithLabelValues(layer, string(s)).Set(float64(r.Count(s)))
	}
	passed := 0.0
	if r.Passed {
		passed = 1
	}
	metrics.QualityPassed.WithLabelValues(layer).Set(passed)

	for _, i := range r.Issues {
		ev := logging.Info()
		switch i.Severity {
		case SeverityWarning:
			ev = logging.Warn()
		case SeverityError:
			ev = logging.Error()
		}
		ev.Str("layer", layer).Str("check", i.Check).Msg(i.Message)
	}
	logging.Info().EmbedObject(r).Msg("Validation complete")
	return r, nil
}

// ValidateAll validates every layer in order.
func (v *Validator) ValidateAll(ctx context.Context) ([]*Report, error) {
	reports := make([]*Report, 0, len(Layers))
	for _, l := range Layers {
		r, err := v.Validate(ctx, l)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (r *Report) observe(name string, value float64, valid bool) {
	r.Checks = append(r.Checks, Check{Name: name, Value: value, Valid: valid})
}

func (r *Report) raise(check string, s Severity, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Check: check, Severity: s, Message: fmt.Sprintf(format, args...)})
}
