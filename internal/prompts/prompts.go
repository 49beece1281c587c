// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompts loads prompt text files by logical name from a prompts
// directory. A prompt name maps to <name>.txt; the extension may be given
// explicitly.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Get returns the text of the named prompt from dir. A missing prompt is a
// configuration failure for the caller; the underlying os.ErrNotExist is
// preserved for errors.Is checks.
func Get(dir, name string) (string, error) {
	if !strings.HasSuffix(name, ".txt") {
		name += ".txt"
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("loading prompt %s: %w", name, err)
	}
	return string(data), nil
}

// List returns the available prompt names (without extension), sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading prompts directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(names)
	return names, nil
}
