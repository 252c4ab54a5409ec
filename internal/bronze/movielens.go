// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package bronze

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joaoVMiguez/DataFlix/internal/logging"
	"github.com/joaoVMiguez/DataFlix/internal/objectstore"
)

// MovieLensFiles are the dataset files the silver stage knows how to parse.
var MovieLensFiles = []string{"movies.csv", "ratings.csv", "tags.csv", "links.csv"}

// IngestResult lists which files were uploaded and which were missing.
type IngestResult struct {
	Uploaded []string
	Missing  []string
}

// IngestMovieLens uploads the MovieLens CSV files from sourceDir into bucket,
// keyed by file name. A missing file is reported, not fatal.
func IngestMovieLens(ctx context.Context, store objectstore.Store, bucket, sourceDir string, files []string) (*IngestResult, error) {
	if len(files) == 0 {
		files = MovieLensFiles
	}
	if err := store.EnsureBucket(ctx, bucket); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
	}

	log := logging.WithComponent("bronze")
	result := &IngestResult{}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		src := filepath.Join(sourceDir, name)
		info, err := os.Stat(src)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("file", src).Msg("MovieLens file not found, skipping")
			result.Missing = append(result.Missing, name)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("stat %s: %w", src, err)
		}

		if err := store.PutFile(ctx, bucket, name, src, objectstore.ContentTypeCSV); err != nil {
			return result, fmt.Errorf("upload %s: %w", name, err)
		}
		result.Uploaded = append(result.Uploaded, name)
		log.Info().Str("file", name).Int64("bytes", info.Size()).Str("bucket", bucket).Msg("Uploaded MovieLens file")
	}

	log.Info().
		Int("uploaded", len(result.Uploaded)).
		Int("missing", len(result.Missing)).
		Msg("MovieLens ingest complete")
	return result, nil
}
