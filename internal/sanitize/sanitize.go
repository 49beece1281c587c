// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sanitize normalizes intake PDF filenames and compresses oversized
// files before extraction. Sanitized copies land in the slides directory;
// processed originals move to the raw DONE subdirectory, and files the
// compressor cannot handle move to the error directory.
package sanitize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/deck-engine/internal/compress"
	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/internal/fsutil"
	"github.com/pdiddy/deck-engine/pkg/types"
)

const stage = "sanitize"

// turkishMap covers characters whose NFKD decomposition does not reduce to
// ASCII (dotless i and friends) plus the cedilla/breve set for completeness.
var turkishMap = map[rune]rune{
	'ç': 'c', 'Ç': 'C',
	'ğ': 'g', 'Ğ': 'G',
	'ı': 'i', 'İ': 'I',
	'ö': 'o', 'Ö': 'O',
	'ş': 's', 'Ş': 'S',
	'ü': 'u', 'Ü': 'U',
}

// StripDiacritics removes combining marks while preserving base characters.
func StripDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Name rewrites a file stem into its sanitized form: diacritics stripped,
// Turkish characters mapped to ASCII, spaces replaced with underscores.
func Name(s string) string {
	stripped := StripDiacritics(s)
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if mapped, ok := turkishMap[r]; ok {
			r = mapped
		}
		b.WriteRune(r)
	}
	return strings.ReplaceAll(b.String(), " ", "_")
}

// BatchResult holds the outcome of a sanitize run.
type BatchResult struct {
	Sanitized int
	Failed    int
}

// Total returns the number of files processed.
func (r BatchResult) Total() int { return r.Sanitized + r.Failed }

// Run sanitizes every PDF in the raw intake directory. Per-file failures are
// logged and skipped; only a missing intake directory fails the stage.
func Run(dirs types.DirsConfig, cfg types.SanitizeConfig, comp compress.Compressor, elog *errorlog.Log, w io.Writer) (BatchResult, error) {
	files, err := fsutil.ListFiles(dirs.Raw, ".pdf")
	if err != nil {
		elog.Stagef(stage, "", "raw intake directory unavailable: %v", err)
		return BatchResult{}, err
	}
	fmt.Fprintf(w, "[sanitize] found %d PDF file(s) to process\n", len(files))

	threshold := cfg.CompressThresholdBytes
	if threshold <= 0 {
		threshold = 50 << 20
	}

	var result BatchResult
	for i, name := range files {
		fmt.Fprintf(w, "[sanitize] (%d/%d) processing %s\n", i+1, len(files), name)

		if err := sanitizeOne(dirs, threshold, comp, name, w); err != nil {
			elog.Stagef(stage, name, "%v", err)
			fmt.Fprintf(w, "[sanitize] skipping %s: %v\n", name, err)
			result.Failed++
			continue
		}
		result.Sanitized++
	}

	fmt.Fprintf(w, "[sanitize] done: %d sanitized, %d failed\n", result.Sanitized, result.Failed)
	return result, nil
}

func sanitizeOne(dirs types.DirsConfig, threshold int64, comp compress.Compressor, name string, w io.Writer) error {
	srcPath := filepath.Join(dirs.Raw, name)
	ext := filepath.Ext(name)
	sanitized := Name(strings.TrimSuffix(name, ext)) + ext
	targetPath := fsutil.UniquePath(dirs.Slides, sanitized)

	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("reading file size: %w", err)
	}

	if info.Size() > threshold && comp != nil {
		return compressInto(dirs, comp, srcPath, targetPath, sanitized, w)
	}

	if err := copyFile(srcPath, targetPath); err != nil {
		return fmt.Errorf("copying to slides: %w", err)
	}
	return finishRaw(dirs, srcPath, name)
}

// compressInto compresses srcPath into the slides directory. A compressor
// failure moves the original to the error directory rather than skipping it,
// so oversized files never stall the intake queue.
func compressInto(dirs types.DirsConfig, comp compress.Compressor, srcPath, targetPath, sanitized string, w io.Writer) error {
	fmt.Fprintf(w, "[sanitize] %s exceeds the size threshold; compressing\n", filepath.Base(srcPath))

	if !comp.Available() {
		return failCompression(dirs, srcPath, sanitized, "compressor binary not on PATH")
	}

	tmp, err := os.CreateTemp(dirs.Raw, "compress-*.pdf")
	if err != nil {
		return fmt.Errorf("creating compression temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	ok, diagnostic := comp.Compress(srcPath, tmpPath)
	if !ok {
		return failCompression(dirs, srcPath, sanitized, diagnostic)
	}

	if err := fsutil.Move(tmpPath, targetPath); err != nil {
		return fmt.Errorf("moving compressed file to slides: %w", err)
	}
	fmt.Fprintf(w, "[sanitize] compressed %s into slides\n", filepath.Base(srcPath))
	return finishRaw(dirs, srcPath, filepath.Base(srcPath))
}

// failCompression moves an uncompressible original to the error directory so
// oversized files never stall the intake queue.
func failCompression(dirs types.DirsConfig, srcPath, sanitized, diagnostic string) error {
	errTarget := fsutil.UniquePath(dirs.Error, sanitized)
	if moveErr := fsutil.Move(srcPath, errTarget); moveErr != nil {
		return fmt.Errorf("compression failed (%s) and move to error dir failed: %w", diagnostic, moveErr)
	}
	return fmt.Errorf("compression failed; file moved to error dir: %s", diagnostic)
}

// finishRaw moves a processed original into the raw DONE subdirectory.
func finishRaw(dirs types.DirsConfig, srcPath, name string) error {
	doneTarget := fsutil.UniquePath(dirs.RawDone(), name)
	if err := fsutil.Move(srcPath, doneTarget); err != nil {
		return fmt.Errorf("moving original to DONE: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
