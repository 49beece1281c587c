// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/pkg/types"
)

func testDirs(t *testing.T) types.DirsConfig {
	t.Helper()
	dirs := types.DefaultDirs(t.TempDir())
	for _, dir := range dirs.All() {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return dirs
}

func writeIntermediate(t *testing.T, dirs types.DirsConfig, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dirs.JSON, name), []byte(content), 0o644))
}

func TestRunConvertsIntermediates(t *testing.T) {
	dirs := testDirs(t)
	writeIntermediate(t, dirs, "lecture1.json", `[
		{"main_content": "What is ATP?", "extra_field": "energy currency", "importance_value": "High lecture1"},
		{"main_content": "Q2", "extra_field": "A2", "importance_value": "lecture1"}
	]`)

	result, err := Run(dirs, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
	assert.Zero(t, result.Failed)

	data, err := os.ReadFile(filepath.Join(dirs.CSV, "lecture1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "What is ATP?|energy currency|High lecture1\nQ2|A2|lecture1\n", string(data))
}

func TestRunDropsElementsFailingSchema(t *testing.T) {
	dirs := testDirs(t)
	writeIntermediate(t, dirs, "mixed.json", `[
		{"main_content": "keep", "extra_field": "me", "importance_value": "t"},
		{"main_content": "no extra field", "importance_value": "t"},
		{"main_content": "wrong type", "extra_field": 7, "importance_value": "t"}
	]`)

	result, err := Run(dirs, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
	assert.Zero(t, result.Failed, "dropped elements reduce the deck, they do not fail the file")

	data, err := os.ReadFile(filepath.Join(dirs.CSV, "mixed.csv"))
	require.NoError(t, err)
	assert.Equal(t, "keep|me|t\n", string(data))

	logged, err := os.ReadFile(filepath.Join(dirs.Error, errorlog.FileName))
	require.NoError(t, err, "drops leave a trace in the error log")
	assert.Contains(t, string(logged), "dropped 2 record(s)")
	assert.Contains(t, string(logged), "extra_field")
}

func TestRunNonObjectElementFailsFile(t *testing.T) {
	dirs := testDirs(t)
	writeIntermediate(t, dirs, "stray.json", `[
		{"main_content": "q", "extra_field": "a", "importance_value": "t"},
		"stray"
	]`)

	result, err := Run(dirs, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Zero(t, result.Converted)
	assert.Equal(t, 1, result.Failed)

	assert.NoFileExists(t, filepath.Join(dirs.CSV, "stray.csv"))

	logged, err := os.ReadFile(filepath.Join(dirs.Error, errorlog.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "card #2 is not an object")
}

func TestRunNonArrayIntermediateFailsFile(t *testing.T) {
	dirs := testDirs(t)
	writeIntermediate(t, dirs, "bad.json", `{"main_content": "not a list"}`)
	writeIntermediate(t, dirs, "good.json", `[{"main_content": "q", "extra_field": "a", "importance_value": "t"}]`)

	result, err := Run(dirs, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err, "per-file failures never fail the stage")
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Failed)

	assert.NoFileExists(t, filepath.Join(dirs.CSV, "bad.csv"))
	assert.FileExists(t, filepath.Join(dirs.CSV, "good.csv"))
	assert.FileExists(t, filepath.Join(dirs.Error, errorlog.FileName))
}

func TestRunMalformedJSONFailsFile(t *testing.T) {
	dirs := testDirs(t)
	writeIntermediate(t, dirs, "garbage.json", `[{"main_content": `)

	result, err := Run(dirs, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())
}

func TestRunEmptyQueue(t *testing.T) {
	dirs := testDirs(t)
	result, err := Run(dirs, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Zero(t, result.Total())
}
