// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package silver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// csvSource reads a CSV file with a header row. Columns are addressed by
// lower-cased header name so "movieId" and "movieid" are the same column.
type csvSource struct {
	r   *csv.Reader
	idx map[string]int
}

func newCSVSource(r io.Reader, required ...string) (*csvSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv is missing column %s", col)
		}
	}
	return &csvSource{r: cr, idx: idx}, nil
}

// records yields the value of the named columns for every data row.
// A short row yields empty strings for the missing fields.
func (s *csvSource) records(cols ...string) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		pos := make([]int, len(cols))
		for i, c := range cols {
			p, ok := s.idx[c]
			if !ok {
				p = -1
			}
			pos[i] = p
		}

		out := make([]string, len(cols))
		line := 1
		for {
			rec, err := s.r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			line++
			if err != nil {
				yield(nil, fmt.Errorf("csv line %d: %w", line, err))
				return
			}
			for i, p := range pos {
				if p >= 0 && p < len(rec) {
					out[i] = rec[p]
				} else {
					out[i] = ""
				}
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}
