package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deck-engine/internal/errorlog"
)

// A stage run over documents that fail individually still exits zero; only
// an interrupt or a stage-level failure produces a non-zero exit.
func TestConvertCommandSucceedsWhenDocumentsFail(t *testing.T) {
	base := t.TempDir()
	// keep cwd config and .secrets lookups out of the test
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	jsonDir := filepath.Join(base, "json")
	require.NoError(t, os.MkdirAll(jsonDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jsonDir, "bad.json"), []byte(`{"main_content": "not a list"}`), 0o644))

	rootCmd.SetArgs([]string{"convert", "--data-dir", base})
	require.NoError(t, rootCmd.Execute(), "per-file failures are summarized, not fatal")

	assert.NoFileExists(t, filepath.Join(base, "csv", "bad.csv"))
	assert.FileExists(t, filepath.Join(base, "error", errorlog.FileName))
}
