// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package silver

import (
	"slices"
	"strings"
	"testing"
)

func TestCSVSource_Records(t *testing.T) {
	in := "\ufeffmovieId,imdbId,tmdbId\n1,0114709,862\n2,0113497\n3,\"0113228\",15602\n"
	src, err := newCSVSource(strings.NewReader(in), "movieid")
	if err != nil {
		t.Fatalf("newCSVSource: %v", err)
	}

	var got [][]string
	for rec, err := range src.records("movieid", "tmdbid", "missing") {
		if err != nil {
			t.Fatalf("records: %v", err)
		}
		got = append(got, slices.Clone(rec))
	}
	want := [][]string{
		{"1", "862", ""},
		{"2", "", ""},
		{"3", "15602", ""},
	}
	if !slices.EqualFunc(got, want, slices.Equal) {
		t.Errorf("records = %q, want %q", got, want)
	}
}

func TestCSVSource_HeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"empty", "", "no header"},
		{"missing column", "userId,rating\n1,4.0\n", "missing column movieid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newCSVSource(strings.NewReader(tt.in), "userid", "movieid")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCSVSource_StopsEarly(t *testing.T) {
	src, err := newCSVSource(strings.NewReader("a\n1\n2\n3\n"), "a")
	if err != nil {
		t.Fatalf("newCSVSource: %v", err)
	}
	n := 0
	for range src.records("a") {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("read %d records, want 2", n)
	}
}
