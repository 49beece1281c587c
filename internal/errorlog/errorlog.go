// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errorlog appends structured failure entries to the pipeline's
// error log. The log is append-only: entries are never mutated or deleted.
package errorlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the log file inside the error directory.
const FileName = "errors.log"

// Entry is one logged failure. Field names are the log's wire format; each
// log line is a one-element JSON array holding one Entry.
type Entry struct {
	Timestamp     string `json:"Timestamp"`
	Stage         string `json:"Script name"`
	PromptFile    string `json:"Prompt file name"`
	UploadedFile  string `json:"Uploaded file name"`
	Message       string `json:"Error message"`
	RawResponse   string `json:"Complete AI response"`
	ProcessedFile string `json:"Processed file name"`
}

// Log writes failure entries under an error directory.
type Log struct {
	dir string
	now func() time.Time
}

// New returns a Log writing to dir/errors.log. The directory is created on
// first append.
func New(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

// Append adds one entry to the log, stamping it with the current time.
// The entry's Timestamp field is always overwritten.
func (l *Log) Append(entry Entry) error {
	entry.Timestamp = l.now().Format("2006-01-02T15:04:05")

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating error directory: %w", err)
	}

	line, err := json.Marshal([]Entry{entry})
	if err != nil {
		return fmt.Errorf("encoding error entry: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(l.dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening error log: %w", err)
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("appending error entry: %w", err)
	}
	return f.Close()
}

// Put appends an entry, reporting log-write failures on stderr instead of
// returning them: the error log must never take the pipeline down with it.
func (l *Log) Put(entry Entry) {
	if err := l.Append(entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write error log: %v\n", err)
	}
}

// Stagef appends a stage-level entry with a formatted message via Put.
func (l *Log) Stagef(stage, processedFile, format string, args ...any) {
	l.Put(Entry{
		Stage:         stage,
		ProcessedFile: processedFile,
		Message:       fmt.Sprintf(format, args...),
	})
}
