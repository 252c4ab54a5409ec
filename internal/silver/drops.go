// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package silver

import (
	"maps"
	"slices"

	"github.com/rs/zerolog"

	"github.com/joaoVMiguez/DataFlix/internal/metrics"
)

// Reasons a source record is dropped.
const (
	ReasonUnparseable  = "unparseable"
	ReasonDuplicate    = "duplicate"
	ReasonOutOfRange   = "out_of_range"
	ReasonUnknownMovie = "unknown_movie"
	ReasonEmpty        = "empty"
	ReasonMalformed    = "malformed_json"
)

// Drops counts dropped records of one entity by reason.
type Drops struct {
	entity string
	counts map[string]int
}

func newDrops(entity string) *Drops {
	return &Drops{entity: entity, counts: make(map[string]int)}
}

func (d *Drops) add(reason string) {
	d.counts[reason]++
	metrics.RecordsDropped.WithLabelValues(d.entity, reason).Inc()
}

// Count returns the number of records dropped for reason.
func (d *Drops) Count(reason string) int {
	return d.counts[reason]
}

// Total returns the number of dropped records.
func (d *Drops) Total() int {
	total := 0
	for _, n := range d.counts {
		total += n
	}
	return total
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (d *Drops) MarshalZerologObject(e *zerolog.Event) {
	for _, reason := range slices.Sorted(maps.Keys(d.counts)) {
		e.Int(reason, d.counts[reason])
	}
}
