// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// DoneDirName is the subdirectory each stage directory uses for processed files.
const DoneDirName = "DONE"

// DirsConfig holds the directory-as-queue layout the pipeline operates on.
// Each stage directory owns a DONE subdirectory for processed files.
type DirsConfig struct {
	// Raw is the intake directory for unsanitized slide PDFs.
	Raw string `json:"raw" yaml:"raw"`

	// Slides is the directory of sanitized PDFs awaiting extraction.
	Slides string `json:"slides" yaml:"slides"`

	// JSON is the directory of intermediate card JSON files.
	JSON string `json:"json" yaml:"json"`

	// CSV is the directory of per-document and merged deck CSVs.
	CSV string `json:"csv" yaml:"csv"`

	// Error is the directory for failed documents and the error log.
	Error string `json:"error" yaml:"error"`
}

// DefaultDirs returns the standard data tree rooted at base.
func DefaultDirs(base string) DirsConfig {
	return DirsConfig{
		Raw:    filepath.Join(base, "raw_slides"),
		Slides: filepath.Join(base, "slides"),
		JSON:   filepath.Join(base, "json"),
		CSV:    filepath.Join(base, "csv"),
		Error:  filepath.Join(base, "error"),
	}
}

// RawDone returns the DONE subdirectory of the raw intake dir.
func (d DirsConfig) RawDone() string { return filepath.Join(d.Raw, DoneDirName) }

// SlidesDone returns the DONE subdirectory of the slides dir.
func (d DirsConfig) SlidesDone() string { return filepath.Join(d.Slides, DoneDirName) }

// JSONDone returns the DONE subdirectory of the JSON intermediate dir.
func (d DirsConfig) JSONDone() string { return filepath.Join(d.JSON, DoneDirName) }

// CSVDone returns the DONE subdirectory of the CSV dir.
func (d DirsConfig) CSVDone() string { return filepath.Join(d.CSV, DoneDirName) }

// All lists every directory the pipeline expects, DONE subdirectories included.
func (d DirsConfig) All() []string {
	return []string{
		d.Raw, d.RawDone(),
		d.Slides, d.SlidesDone(),
		d.JSON, d.JSONDone(),
		d.CSV, d.CSVDone(),
		d.Error,
	}
}

// AIConfig holds shared settings for backends that call a generation API.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the fixed pause between retry attempts (default 5s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// SegmentConfig bounds the page ranges oversized documents are split into.
type SegmentConfig struct {
	// MinPages is the preferred minimum pages per segment (default 25).
	MinPages int `json:"min_pages" yaml:"min_pages"`

	// MaxPages is the hard maximum pages per extraction call (default 40).
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// SanitizeConfig holds settings for the sanitize stage.
type SanitizeConfig struct {
	// CompressThresholdBytes is the file size above which a PDF is run
	// through the external compressor (default 50 MiB).
	CompressThresholdBytes int64 `json:"compress_threshold_bytes" yaml:"compress_threshold_bytes"`
}

// ExtractionConfig holds settings for the extract stage.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// Backend selects the extraction variant: "claude" or "gemini".
	Backend string `json:"backend" yaml:"backend"`

	// PromptsDir is the directory of prompt text files.
	PromptsDir string `json:"prompts_dir" yaml:"prompts_dir"`

	// Segments bounds per-call page ranges for the chunking variant.
	Segments SegmentConfig `json:"segments" yaml:"segments"`
}

// MergeConfig holds settings for the deck merge stage.
type MergeConfig struct {
	// Output is the target base name for the merged deck (default "_MASTERDECK").
	Output string `json:"output" yaml:"output"`
}

// JournalConfig holds settings for the run journal database.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Dirs       DirsConfig       `json:"dirs" yaml:"dirs"`
	Sanitize   SanitizeConfig   `json:"sanitize" yaml:"sanitize"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Merge      MergeConfig      `json:"merge" yaml:"merge"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}
