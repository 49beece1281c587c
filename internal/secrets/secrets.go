// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend API keys from a directory of plain-text
// files. Only the key files the engine understands are read; anything else
// in the directory is flagged so a mistyped filename does not silently
// leave a backend without credentials.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key file names the engine reads, one per extraction backend.
const (
	AnthropicKeyFile = "anthropic-api-key"
	GeminiKeyFile    = "gemini-api-key"
)

var knownKeys = []string{AnthropicKeyFile, GeminiKeyFile}

// Load reads the known key files from dir and returns a map of filename to
// trimmed contents. A missing directory or missing key files are not errors.
// Unreadable key files produce a warning on stderr but do not abort; so do
// unrecognized files, which are never read.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string, len(knownKeys))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !isKnownKey(name) {
			fmt.Fprintf(os.Stderr, "warning: ignoring unrecognized secret file %s\n", name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

func isKnownKey(name string) bool {
	for _, key := range knownKeys {
		if name == key {
			return true
		}
	}
	return false
}
