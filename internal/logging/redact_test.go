// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package logging

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "***"},
		{"0123456789abcdef0123", "0123...0123"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	raw := "https://api.themoviedb.org/3/movie/603?api_key=0123456789abcdef0123&language=en-US"
	got := RedactURL(raw)

	if strings.Contains(got, "0123456789abcdef0123") {
		t.Errorf("api key leaked: %s", got)
	}
	if !strings.Contains(got, "language=en-US") {
		t.Errorf("non-sensitive parameter dropped: %s", got)
	}
	if !strings.HasPrefix(got, "https://api.themoviedb.org/3/movie/603?") {
		t.Errorf("path changed: %s", got)
	}
}

func TestRedactError(t *testing.T) {
	t.Parallel()

	err := errors.New(`Get "https://x/3/find/tt0133093?api_key=0123456789abcdef0123": timeout`)
	got := RedactError(err, "0123456789abcdef0123")
	if strings.Contains(got, "0123456789abcdef0123") {
		t.Errorf("secret leaked: %s", got)
	}
	if RedactError(nil, "x") != "" {
		t.Error("expected empty string for nil error")
	}
}
