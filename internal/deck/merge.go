// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deck

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/deck-engine/internal/fsutil"
)

// MergeResult describes a completed merge.
type MergeResult struct {
	// OutputPath is the path the merged deck was written to.
	OutputPath string

	// Merged is the number of constituent files concatenated.
	Merged int
}

// Merge concatenates the per-document CSVs in dir into one deck named after
// outputBase (".csv" appended when missing). Existing master decks, meaning
// files whose stem equals the target base or the base plus a purely numeric
// "_N" suffix, are excluded from the inputs. Constituents are ordered by
// ascending modification time, and a newline is inserted between files
// whenever the preceding content did not end with one. The output goes to
// the first unused of base.csv, base_2.csv, base_3.csv, …; nothing is
// overwritten. With no eligible inputs, Merge returns a zero result.
func Merge(dir, outputBase string, w io.Writer) (MergeResult, error) {
	outputName := outputBase
	if outputName == "" {
		outputName = "_MASTERDECK"
	}
	if !strings.HasSuffix(strings.ToLower(outputName), ".csv") {
		outputName += ".csv"
	}
	base := strings.TrimSuffix(outputName, filepath.Ext(outputName))

	names, err := collectInputs(dir, base)
	if err != nil {
		return MergeResult{}, err
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "[merge] no CSV files found; nothing to merge")
		return MergeResult{}, nil
	}

	if err := sortByModTime(dir, names); err != nil {
		return MergeResult{}, err
	}

	outputPath := fsutil.UniquePath(dir, outputName)
	fmt.Fprintf(w, "[merge] merging %d file(s) into %s\n", len(names), filepath.Base(outputPath))

	if err := concat(dir, names, outputPath); err != nil {
		return MergeResult{}, err
	}
	return MergeResult{OutputPath: outputPath, Merged: len(names)}, nil
}

// IsExcludedMaster reports whether name matches the target base name or a
// numeric "_N" suffix variant of it, i.e. a pre-existing master deck.
func IsExcludedMaster(name, base string) bool {
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == base {
		return true
	}
	suffix, ok := strings.CutPrefix(stem, base+"_")
	if !ok || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func collectInputs(dir, base string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading CSV directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		if IsExcludedMaster(name, base) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func sortByModTime(dir string, names []string) error {
	modTimes := make(map[string]int64, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("stat %s: %w", name, err)
		}
		modTimes[name] = info.ModTime().UnixNano()
	}
	sort.SliceStable(names, func(i, j int) bool {
		return modTimes[names[i]] < modTimes[names[j]]
	})
	return nil
}

// concat appends each input to the output, inserting a newline when the
// previous file's content did not end with one.
func concat(dir string, names []string, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer out.Close()

	endedWithNewline := true
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if len(content) == 0 {
			continue
		}
		if !endedWithNewline {
			if _, err := out.WriteString("\n"); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}
		}
		if _, err := out.Write(content); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		endedWithNewline = content[len(content)-1] == '\n'
	}

	return out.Close()
}
