// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package tmdb

import (
	"fmt"
	"strings"
)

// FormatIMDbID normalizes a MovieLens imdbId ("114709", "0114709" or
// "tt0114709") to the tt-prefixed, zero-padded form TMDB expects.
// An empty or non-numeric id yields "".
func FormatIMDbID(raw string) string {
	digits := strings.TrimPrefix(strings.TrimSpace(raw), "tt")
	if digits == "" {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if len(digits) < 7 {
		digits = strings.Repeat("0", 7-len(digits)) + digits
	}
	return fmt.Sprintf("tt%s", digits)
}
