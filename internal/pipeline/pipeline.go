// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the deck-engine stages over the directory tree.
// The coordinator is the sole writer of the tree: documents advance lifecycle
// state only through its directory moves, and stages run strictly one after
// another with no concurrent document processing.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deck-engine/internal/backend"
	"github.com/pdiddy/deck-engine/internal/compress"
	"github.com/pdiddy/deck-engine/internal/convert"
	"github.com/pdiddy/deck-engine/internal/deck"
	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/internal/extract"
	"github.com/pdiddy/deck-engine/internal/fsutil"
	"github.com/pdiddy/deck-engine/internal/journal"
	"github.com/pdiddy/deck-engine/internal/pdfpage"
	"github.com/pdiddy/deck-engine/internal/prompts"
	"github.com/pdiddy/deck-engine/internal/sanitize"
	"github.com/pdiddy/deck-engine/pkg/types"
)

// DefaultPrompt is the prompt used when the caller names none.
const DefaultPrompt = "QAClozeSourceYield"

// reportFileName is the base name of the per-run YAML summary.
const reportFileName = "report.yaml"

// newBackend builds the extraction backend; a variable so tests can
// substitute a fake without real credentials.
var newBackend = backend.New

// Options selects what a run does beyond the static configuration.
type Options struct {
	// PromptName is the prompt to extract with (DefaultPrompt when empty).
	PromptName string

	// Backend overrides the configured extraction backend when non-empty.
	Backend string

	// TagPrefix is prepended to the per-document tag appended to each card.
	TagPrefix string

	// MergeOutput enables the merge stage when non-nil; the value is the
	// merged deck's base name, with "" selecting the default.
	MergeOutput *string

	// SkipSanitize starts the run at the extract stage.
	SkipSanitize bool

	// Cleanup removes JSON intermediates and merged-away CSVs after a run.
	Cleanup bool
}

// StageCounts reports per-stage document outcomes.
type StageCounts struct {
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
}

// Report summarizes a completed run. It is written as YAML next to the data
// tree so runs leave an inspectable trace beyond console output.
type Report struct {
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Backend    string    `yaml:"backend"`
	Prompt     string    `yaml:"prompt"`

	Sanitize StageCounts `yaml:"sanitize"`
	Extract  StageCounts `yaml:"extract"`
	Convert  StageCounts `yaml:"convert"`

	MergedDeck  string `yaml:"merged_deck,omitempty"`
	MergedFiles int    `yaml:"merged_files,omitempty"`
}

// HasFailures reports whether any document failed in any stage.
func (r Report) HasFailures() bool {
	return r.Sanitize.Failed > 0 || r.Extract.Failed > 0 || r.Convert.Failed > 0
}

// Run executes the pipeline stages in order: sanitize (unless skipped),
// extract, convert, and optionally merge. Stage-level failures abort the run
// immediately; per-document failures are isolated inside each stage.
// Housekeeping failures are warnings, never fatal.
func Run(ctx context.Context, cfg types.PipelineConfig, opts Options, w io.Writer) (Report, error) {
	report := Report{StartedAt: time.Now()}

	promptName := opts.PromptName
	if promptName == "" {
		promptName = DefaultPrompt
	}
	if opts.Backend != "" {
		cfg.Extraction.Backend = opts.Backend
	}
	report.Backend = cfg.Extraction.Backend
	report.Prompt = promptName

	for _, dir := range cfg.Dirs.All() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report, fmt.Errorf("preparing directory tree: %w", err)
		}
	}

	// Fail before touching any document: credentials and prompt are
	// stage-level concerns, not per-document ones.
	b, err := newBackend(cfg.Extraction, pdfpage.PDFCPUReader{}, w)
	if err != nil {
		return report, err
	}
	if _, err := prompts.Get(cfg.Extraction.PromptsDir, promptName); err != nil {
		return report, err
	}

	elog := errorlog.New(cfg.Dirs.Error)

	var jrn *journal.Store
	var runID int64
	if cfg.Journal.Path != "" {
		jrn, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			fmt.Fprintf(w, "[pipeline] warning: journal unavailable: %v\n", err)
			jrn = nil
		} else {
			defer jrn.Close()
			runID, err = jrn.BeginRun(cfg.Extraction.Backend, promptName)
			if err != nil {
				fmt.Fprintf(w, "[pipeline] warning: %v\n", err)
			}
		}
	}

	runErr := runStages(ctx, cfg, opts, promptName, b, elog, jrn, runID, &report, w)

	report.FinishedAt = time.Now()
	if jrn != nil {
		outcome := "completed"
		if runErr != nil {
			outcome = "aborted"
		} else if report.HasFailures() {
			outcome = "completed with failures"
		}
		if err := jrn.FinishRun(runID, outcome); err != nil {
			fmt.Fprintf(w, "[pipeline] warning: %v\n", err)
		}
	}
	if runErr != nil {
		return report, runErr
	}

	writeReport(cfg.Dirs, report, w)
	fmt.Fprintf(w, "[pipeline] run complete: %d sanitized, %d extracted, %d converted, %d failed\n",
		report.Sanitize.Succeeded, report.Extract.Succeeded, report.Convert.Succeeded,
		report.Sanitize.Failed+report.Extract.Failed+report.Convert.Failed)
	return report, nil
}

func runStages(ctx context.Context, cfg types.PipelineConfig, opts Options, promptName string, b backend.Backend, elog *errorlog.Log, jrn *journal.Store, runID int64, report *Report, w io.Writer) error {
	if !opts.SkipSanitize {
		res, err := sanitize.Run(cfg.Dirs, cfg.Sanitize, compress.NewGhostscript(), elog, w)
		if err != nil {
			return err
		}
		report.Sanitize = StageCounts{Succeeded: res.Sanitized, Failed: res.Failed}
	} else {
		fmt.Fprintln(w, "[pipeline] sanitize stage skipped")
	}

	extractRes, failedNames, err := extract.Run(ctx, b, promptName, cfg.Extraction, cfg.Dirs, opts.TagPrefix, elog, w)
	if err != nil {
		return err
	}
	report.Extract = StageCounts{Succeeded: extractRes.Extracted, Failed: extractRes.Failed}
	routeSlides(cfg.Dirs, failedNames, elog, jrn, runID, w)

	convertRes, err := convert.Run(cfg.Dirs, elog, w)
	if err != nil {
		return err
	}
	report.Convert = StageCounts{Succeeded: convertRes.Converted, Failed: convertRes.Failed}
	finishIntermediates(cfg.Dirs, opts, elog, w)

	if opts.MergeOutput != nil {
		res, err := deck.Merge(cfg.Dirs.CSV, *opts.MergeOutput, w)
		if err != nil {
			return err
		}
		if res.Merged > 0 {
			report.MergedFiles = res.Merged
			report.MergedDeck = finishMerged(cfg.Dirs, opts, res, elog, w)
		}
	}
	return nil
}

// routeSlides moves every processed slide out of the queue: extracted
// documents to slides/DONE, failed ones to the error directory.
func routeSlides(dirs types.DirsConfig, failedNames []string, elog *errorlog.Log, jrn *journal.Store, runID int64, w io.Writer) {
	failed := make(map[string]bool, len(failedNames))
	for _, name := range failedNames {
		failed[name] = true
	}

	names, err := fsutil.ListFiles(dirs.Slides, ".pdf")
	if err != nil {
		warn(elog, w, "extract", "", "housekeeping: listing slides: %v", err)
		return
	}
	for _, name := range names {
		dst, outcome := dirs.SlidesDone(), types.StateExtracted
		if failed[name] {
			dst, outcome = dirs.Error, types.StateError
		}
		if err := fsutil.Move(filepath.Join(dirs.Slides, name), fsutil.UniquePath(dst, name)); err != nil {
			warn(elog, w, "extract", name, "housekeeping: %v", err)
			continue
		}
		if jrn != nil {
			if err := jrn.RecordDocument(runID, "extract", name, string(outcome), ""); err != nil {
				fmt.Fprintf(w, "[pipeline] warning: %v\n", err)
			}
		}
	}
}

// finishIntermediates applies the intermediate retention policy. Without
// cleanup, JSON files stay in place so an interrupted run can resume from
// them. With cleanup they are deleted, except in skip-sanitize mode where
// they are preserved by moving to json/DONE instead.
func finishIntermediates(dirs types.DirsConfig, opts Options, elog *errorlog.Log, w io.Writer) {
	if !opts.Cleanup {
		return
	}
	names, err := fsutil.ListFiles(dirs.JSON, ".json")
	if err != nil {
		warn(elog, w, "convert", "", "housekeeping: listing intermediates: %v", err)
		return
	}
	for _, name := range names {
		src := filepath.Join(dirs.JSON, name)
		if opts.SkipSanitize {
			err = fsutil.Move(src, fsutil.UniquePath(dirs.JSONDone(), name))
		} else {
			err = os.Remove(src)
		}
		if err != nil {
			warn(elog, w, "convert", name, "housekeeping: %v", err)
		}
	}
}

// finishMerged moves the merged deck to csv/DONE and, with cleanup enabled,
// removes the merged-away per-document CSVs. Pre-existing master decks that
// the merge excluded are kept. Returns the deck's final path.
func finishMerged(dirs types.DirsConfig, opts Options, res deck.MergeResult, elog *errorlog.Log, w io.Writer) string {
	mergedName := filepath.Base(res.OutputPath)
	finalPath := fsutil.UniquePath(dirs.CSVDone(), mergedName)
	if err := fsutil.Move(res.OutputPath, finalPath); err != nil {
		warn(elog, w, "merge", mergedName, "housekeeping: %v", err)
		finalPath = res.OutputPath
	} else {
		fmt.Fprintf(w, "[merge] deck stored as %s\n", finalPath)
	}

	if opts.Cleanup {
		base := mergeBase(opts)
		names, err := fsutil.ListFiles(dirs.CSV, ".csv")
		if err != nil {
			warn(elog, w, "merge", "", "housekeeping: listing CSVs: %v", err)
			return finalPath
		}
		for _, name := range names {
			if deck.IsExcludedMaster(name, base) {
				continue
			}
			if err := os.Remove(filepath.Join(dirs.CSV, name)); err != nil {
				warn(elog, w, "merge", name, "housekeeping: %v", err)
			}
		}
	}
	return finalPath
}

// mergeBase mirrors the merge stage's base-name derivation.
func mergeBase(opts Options) string {
	name := ""
	if opts.MergeOutput != nil {
		name = *opts.MergeOutput
	}
	if name == "" {
		name = "_MASTERDECK"
	}
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// writeReport stores the run summary as YAML next to the data tree. A report
// write failure is a warning only.
func writeReport(dirs types.DirsConfig, report Report, w io.Writer) {
	data, err := yaml.Marshal(report)
	if err != nil {
		fmt.Fprintf(w, "[pipeline] warning: encoding run report: %v\n", err)
		return
	}
	path := fsutil.UniquePath(filepath.Dir(dirs.Raw), reportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(w, "[pipeline] warning: writing run report: %v\n", err)
		return
	}
	fmt.Fprintf(w, "[pipeline] run report written to %s\n", path)
}

func warn(elog *errorlog.Log, w io.Writer, stage, name, format string, args ...any) {
	fmt.Fprintf(w, "[%s] warning: %s\n", stage, fmt.Sprintf(format, args...))
	elog.Stagef(stage, name, format, args...)
}
