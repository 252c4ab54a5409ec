// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

// Package bucket defines the ordered threshold categories used by the
// silver and gold layers.
//
// A Scheme is the single definition of a categorisation: Label computes the
// category in Go and SQL renders the equivalent CASE expression, so values
// derived in either place agree.
package bucket

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tier is a labelled interval ending at Upper.
type Tier struct {
	Upper float64
	Label string
}

// Scheme maps a number onto ordered tiers. The last tier is open ended;
// its Upper is ignored.
type Scheme struct {
	Name string

	// Unknown labels NULL and NaN values, and zero when ZeroIsUnknown is set.
	Unknown       string
	ZeroIsUnknown bool

	// UpperInclusive makes each tier include its upper bound (v <= Upper);
	// otherwise tiers are lower-inclusive (v < Upper).
	UpperInclusive bool

	Tiers []Tier
}

// Validate checks that the tiers are non-empty and strictly increasing.
func (s Scheme) Validate() error {
	if len(s.Tiers) == 0 {
		return fmt.Errorf("bucket scheme %s has no tiers", s.Name)
	}
	for i := 1; i < len(s.Tiers)-1; i++ {
		if !(s.Tiers[i].Upper > s.Tiers[i-1].Upper) {
			return fmt.Errorf("bucket scheme %s: tier %q bound %v does not increase", s.Name, s.Tiers[i].Label, s.Tiers[i].Upper)
		}
	}
	for _, t := range s.Tiers {
		if t.Label == "" {
			return errors.New("bucket scheme " + s.Name + " has an unlabelled tier")
		}
	}
	return nil
}

// Label returns the tier of v.
func (s Scheme) Label(v float64) string {
	if math.IsNaN(v) || (s.ZeroIsUnknown && v == 0) {
		return s.Unknown
	}
	last := len(s.Tiers) - 1
	for _, t := range s.Tiers[:last] {
		if v < t.Upper || (s.UpperInclusive && v == t.Upper) {
			return t.Label
		}
	}
	return s.Tiers[last].Label
}

// Index returns the position of label in the scheme: -1 for Unknown or an
// unknown label, otherwise the tier number. Used to compare tiers.
func (s Scheme) Index(label string) int {
	for i, t := range s.Tiers {
		if t.Label == label {
			return i
		}
	}
	return -1
}

// SQL renders the scheme as a CASE expression over expr.
func (s Scheme) SQL(expr string) string {
	op := "<"
	if s.UpperInclusive {
		op = "<="
	}

	var b strings.Builder
	b.WriteString("CASE")
	fmt.Fprintf(&b, " WHEN %s IS NULL THEN %s", expr, quote(s.Unknown))
	if s.ZeroIsUnknown {
		fmt.Fprintf(&b, " WHEN %s = 0 THEN %s", expr, quote(s.Unknown))
	}
	last := len(s.Tiers) - 1
	for _, t := range s.Tiers[:last] {
		fmt.Fprintf(&b, " WHEN %s %s %s THEN %s", expr, op, strconv.FormatFloat(t.Upper, 'f', -1, 64), quote(t.Label))
	}
	fmt.Fprintf(&b, " ELSE %s END", quote(s.Tiers[last].Label))
	return b.String()
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Schemes used by the pipeline.
var (
	// SilverBudget is the coarse budget category stored on silver TMDB movies.
	SilverBudget = Scheme{
		Name:           "silver_budget",
		Unknown:        "Unknown",
		ZeroIsUnknown:  true,
		UpperInclusive: true,
		Tiers: []Tier{
			{Upper: 1_000_000, Label: "Micro"},
			{Upper: 10_000_000, Label: "Small"},
			{Upper: 50_000_000, Label: "Medium"},
			{Label: "Large"},
		},
	}

	// Budget is the box office budget category.
	Budget = Scheme{
		Name:          "budget",
		Unknown:       "Unknown",
		ZeroIsUnknown: true,
		Tiers: []Tier{
			{Upper: 1_000_000, Label: "Micro"},
			{Upper: 10_000_000, Label: "Small"},
			{Upper: 50_000_000, Label: "Medium"},
			{Upper: 100_000_000, Label: "Large"},
			{Label: "Blockbuster"},
		},
	}

	// Revenue is the box office revenue category.
	Revenue = Scheme{
		Name:          "revenue",
		Unknown:       "Unknown",
		ZeroIsUnknown: true,
		Tiers: []Tier{
			{Upper: 1_000_000, Label: "Flop"},
			{Upper: 50_000_000, Label: "Modest"},
			{Upper: 200_000_000, Label: "Success"},
			{Upper: 500_000_000, Label: "Hit"},
			{Label: "Mega Hit"},
		},
	}

	// ROI is the return-on-investment category, ROI given in percent.
	ROI = Scheme{
		Name:    "roi",
		Unknown: "Unknown",
		Tiers: []Tier{
			{Upper: 0, Label: "Loss"},
			{Upper: 50, Label: "Low"},
			{Upper: 200, Label: "Medium"},
			{Upper: 500, Label: "High"},
			{Label: "Exceptional"},
		},
	}
)

// BlockbusterRevenue is the revenue from which a movie counts as a blockbuster.
const BlockbusterRevenue = 200_000_000
