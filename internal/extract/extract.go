// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract drives the generation service over every sanitized slide
// PDF, validating and tagging the returned cards and writing one JSON
// intermediate per document.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/deck-engine/internal/backend"
	"github.com/pdiddy/deck-engine/internal/cards"
	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/internal/fsutil"
	"github.com/pdiddy/deck-engine/internal/prompts"
	"github.com/pdiddy/deck-engine/pkg/types"
)

const stage = "extract"

// BatchResult holds the outcome of an extract run.
type BatchResult struct {
	Extracted int
	Failed    int
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int { return r.Extracted + r.Failed }

// HasFailures reports whether any documents failed.
func (r BatchResult) HasFailures() bool { return r.Failed > 0 }

// Run processes every PDF in the slides directory through the backend.
// A missing prompt or an unusable backend aborts the stage before any
// document is touched; per-document failures are logged and skipped.
// Failed lists the file names of skipped documents so the coordinator can
// route them during housekeeping.
func Run(ctx context.Context, b backend.Backend, promptName string, cfg types.ExtractionConfig, dirs types.DirsConfig, tagPrefix string, elog *errorlog.Log, w io.Writer) (BatchResult, []string, error) {
	promptText, err := prompts.Get(cfg.PromptsDir, promptName)
	if err != nil {
		elog.Stagef(stage, "", "%v", err)
		return BatchResult{}, nil, err
	}

	files, err := fsutil.ListFiles(dirs.Slides, ".pdf")
	if err != nil {
		elog.Stagef(stage, "", "slides directory unavailable: %v", err)
		return BatchResult{}, nil, err
	}
	fmt.Fprintf(w, "[extract] found %d PDF file(s) to process with %s\n", len(files), b.Name())

	var result BatchResult
	var failed []string
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return result, failed, err
		}

		fmt.Fprintf(w, "[extract] (%d/%d) processing %s\n", i+1, len(files), name)

		if err := extractOne(ctx, b, promptName, promptText, dirs, tagPrefix, name, elog, w); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, failed, err
			}
			fmt.Fprintf(w, "[extract] skipping %s: %v\n", name, err)
			result.Failed++
			failed = append(failed, name)
			continue
		}
		result.Extracted++
	}

	fmt.Fprintf(w, "[extract] done: %d extracted, %d failed\n", result.Extracted, result.Failed)
	return result, failed, nil
}

func extractOne(ctx context.Context, b backend.Backend, promptName, promptText string, dirs types.DirsConfig, tagPrefix, name string, elog *errorlog.Log, w io.Writer) error {
	pdfPath := filepath.Join(dirs.Slides, name)

	payload, err := b.Process(ctx, pdfPath, promptText)
	if err != nil {
		elog.Put(errorlog.Entry{
			Stage:         stage,
			PromptFile:    promptName,
			UploadedFile:  name,
			ProcessedFile: name,
			Message:       fmt.Sprintf("%s backend error: %v", b.Name(), err),
		})
		return err
	}

	records, report, err := cards.Validate(payload)
	if err != nil {
		raw, _ := json.Marshal(payload)
		elog.Put(errorlog.Entry{
			Stage:         stage,
			PromptFile:    promptName,
			UploadedFile:  name,
			ProcessedFile: name,
			Message:       fmt.Sprintf("invalid card structure: %v", err),
			RawResponse:   string(raw),
		})
		return err
	}
	if report.Dropped > 0 {
		fmt.Fprintf(w, "[extract] %s: %s\n", name, report)
		elog.Stagef(stage, name, "%s", report)
	}

	cards.Normalize(records)
	cards.AppendTag(records, cards.FileTag(name, tagPrefix))

	outName := strings.TrimSuffix(name, filepath.Ext(name)) + ".json"
	if err := writeIntermediate(filepath.Join(dirs.JSON, outName), records); err != nil {
		elog.Stagef(stage, name, "failed to write JSON output: %v", err)
		return err
	}

	fmt.Fprintf(w, "[extract] wrote %d card(s) to %s\n", len(records), outName)
	return nil
}

// writeIntermediate stores the validated records as a pretty-printed JSON
// array, the format the convert stage consumes.
func writeIntermediate(path string, records []types.Card) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cards: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
