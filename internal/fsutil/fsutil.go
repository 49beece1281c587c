// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fsutil holds the small filesystem helpers the pipeline stages share.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles returns the regular files in dir whose names carry ext
// (case-insensitive), sorted case-insensitively. A missing directory is an
// error; an empty one is not.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name()), strings.ToLower(ext)) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// UniquePath returns dir/name if unused, otherwise the first free variant
// with _2, _3, … inserted before the extension.
func UniquePath(dir, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for counter := 2; ; counter++ {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

// Move renames src to dst, falling back to copy-and-remove when the rename
// crosses filesystems.
func Move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("moving %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	in.Close()
	return os.Remove(src)
}
