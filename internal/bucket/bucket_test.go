// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package bucket

import (
	"math"
	"strings"
	"testing"
)

var allSchemes = []Scheme{SilverBudget, Budget, Revenue, ROI}

func TestSchemes_Valid(t *testing.T) {
	for _, s := range allSchemes {
		if err := s.Validate(); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
	}

	bad := Scheme{Name: "bad", Tiers: []Tier{{Upper: 10, Label: "a"}, {Upper: 5, Label: "b"}, {Label: "c"}}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for decreasing bounds")
	}
}

func TestScheme_Label(t *testing.T) {
	tests := []struct {
		scheme Scheme
		value  float64
		want   string
	}{
		{SilverBudget, 0, "Unknown"},
		{SilverBudget, 1, "Micro"},
		{SilverBudget, 1_000_000, "Micro"},
		{SilverBudget, 1_000_001, "Small"},
		{SilverBudget, 50_000_000, "Medium"},
		{SilverBudget, 250_000_000, "Large"},

		{Budget, 0, "Unknown"},
		{Budget, 999_999, "Micro"},
		{Budget, 1_000_000, "Small"},
		{Budget, 99_999_999, "Large"},
		{Budget, 100_000_000, "Blockbuster"},

		{Revenue, 500, "Flop"},
		{Revenue, 200_000_000, "Hit"},
		{Revenue, 2_000_000_000, "Mega Hit"},

		{ROI, math.NaN(), "Unknown"},
		{ROI, -20, "Loss"},
		{ROI, 0, "Low"},
		{ROI, 199.9, "Medium"},
		{ROI, 500, "Exceptional"},
	}

	for _, tt := range tests {
		if got := tt.scheme.Label(tt.value); got != tt.want {
			t.Errorf("%s.Label(%v) = %q, want %q", tt.scheme.Name, tt.value, got, tt.want)
		}
	}
}

// Larger values never land in a lower tier.
func TestScheme_Monotonic(t *testing.T) {
	for _, s := range allSchemes {
		prev := -1
		for v := -1000.0; v <= 3e9; v = v*1.7 + 1000 {
			if s.ZeroIsUnknown && v == 0 {
				continue
			}
			idx := s.Index(s.Label(v))
			if idx == -1 {
				continue
			}
			if idx < prev {
				t.Fatalf("%s: value %v maps to tier %d after tier %d", s.Name, v, idx, prev)
			}
			prev = idx
		}
	}
}

func TestScheme_SQL(t *testing.T) {
	got := Budget.SQL("budget")
	want := "CASE WHEN budget IS NULL THEN 'Unknown' WHEN budget = 0 THEN 'Unknown'" +
		" WHEN budget < 1000000 THEN 'Micro' WHEN budget < 10000000 THEN 'Small'" +
		" WHEN budget < 50000000 THEN 'Medium' WHEN budget < 100000000 THEN 'Large'" +
		" ELSE 'Blockbuster' END"
	if got != want {
		t.Errorf("SQL =\n%s\nwant\n%s", got, want)
	}

	if sql := SilverBudget.SQL("b"); !strings.Contains(sql, "b <= 1000000 THEN 'Micro'") {
		t.Errorf("upper-inclusive scheme renders %s", sql)
	}
}
