// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deck-engine/internal/backend"
	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/pkg/types"
)

// fakeBackend returns canned payloads keyed by file name.
type fakeBackend struct {
	payloads map[string]any
	errs     map[string]error
	prompts  []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Process(ctx context.Context, pdfPath, promptText string) (any, error) {
	f.prompts = append(f.prompts, promptText)
	name := filepath.Base(pdfPath)
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	return f.payloads[name], nil
}

func decodePayload(t *testing.T, text string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(text), &v))
	return v
}

func testSetup(t *testing.T) (types.DirsConfig, types.ExtractionConfig) {
	t.Helper()
	dirs := types.DefaultDirs(t.TempDir())
	for _, dir := range dirs.All() {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	promptsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(promptsDir, "QACloze.txt"), []byte("make cards"), 0o644))

	cfg := types.ExtractionConfig{PromptsDir: promptsDir}
	return dirs, cfg
}

func writeSlide(t *testing.T, dirs types.DirsConfig, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dirs.Slides, name), []byte("%PDF-1.4"), 0o644))
}

func TestRunWritesTaggedIntermediates(t *testing.T) {
	dirs, cfg := testSetup(t)
	writeSlide(t, dirs, "Cell Biology.pdf")

	b := &fakeBackend{payloads: map[string]any{
		"Cell Biology.pdf": decodePayload(t, `[
			{"main_content": "{{c1:ATP}} is energy", "extra_field": "see slide 4", "importance_value": "High"},
			{"main_content": "Q2", "extra_field": "A2", "importance_value": ""}
		]`),
	}}

	result, failed, err := Run(context.Background(), b, "QACloze", cfg, dirs, "bio::", errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Extracted)
	assert.Empty(t, failed)
	assert.Equal(t, []string{"make cards"}, b.prompts)

	data, err := os.ReadFile(filepath.Join(dirs.JSON, "Cell Biology.json"))
	require.NoError(t, err)

	var records []types.Card
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "{{c1::ATP}} is energy", records[0].MainContent, "cloze markers are canonicalized")
	assert.Equal(t, "High bio::Cell_Biology", records[0].ImportanceValue)
	assert.Equal(t, "bio::Cell_Biology", records[1].ImportanceValue, "empty importance is set to the tag verbatim")
}

func TestRunIsolatesPerDocumentFailures(t *testing.T) {
	dirs, cfg := testSetup(t)
	writeSlide(t, dirs, "good.pdf")
	writeSlide(t, dirs, "bad.pdf")

	b := &fakeBackend{
		payloads: map[string]any{
			"good.pdf": decodePayload(t, `[{"main_content": "q", "extra_field": "a", "importance_value": "t"}]`),
		},
		errs: map[string]error{
			"bad.pdf": backend.ErrTransport,
		},
	}

	result, failed, err := Run(context.Background(), b, "QACloze", cfg, dirs, "", errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err, "per-document failures never fail the stage")
	assert.Equal(t, 1, result.Extracted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"bad.pdf"}, failed)

	assert.FileExists(t, filepath.Join(dirs.JSON, "good.json"))
	assert.NoFileExists(t, filepath.Join(dirs.JSON, "bad.json"))
	assert.FileExists(t, filepath.Join(dirs.Error, errorlog.FileName))
}

func TestRunSchemaFailureIsLoggedWithRawResponse(t *testing.T) {
	dirs, cfg := testSetup(t)
	writeSlide(t, dirs, "odd.pdf")

	b := &fakeBackend{payloads: map[string]any{
		"odd.pdf": decodePayload(t, `{"not": "a list"}`),
	}}

	result, failed, err := Run(context.Background(), b, "QACloze", cfg, dirs, "", errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"odd.pdf"}, failed)

	logData, err := os.ReadFile(filepath.Join(dirs.Error, errorlog.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "invalid card structure")
	assert.Contains(t, string(logData), "not a list")
}

func TestRunDroppedRecordsStillSucceed(t *testing.T) {
	dirs, cfg := testSetup(t)
	writeSlide(t, dirs, "partial.pdf")

	b := &fakeBackend{payloads: map[string]any{
		"partial.pdf": decodePayload(t, `[
			{"main_content": "q", "extra_field": "a", "importance_value": "t"},
			{"main_content": "missing the rest"}
		]`),
	}}

	result, _, err := Run(context.Background(), b, "QACloze", cfg, dirs, "", errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Extracted)

	var records []types.Card
	data, err := os.ReadFile(filepath.Join(dirs.JSON, "partial.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)
}

func TestRunMissingPromptAbortsStage(t *testing.T) {
	dirs, cfg := testSetup(t)
	writeSlide(t, dirs, "deck.pdf")

	b := &fakeBackend{}
	_, _, err := Run(context.Background(), b, "NoSuchPrompt", cfg, dirs, "", errorlog.New(dirs.Error), io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, b.prompts, "no document is processed after a stage-level failure")
}

func TestRunStopsOnCancellation(t *testing.T) {
	dirs, cfg := testSetup(t)
	writeSlide(t, dirs, "a.pdf")
	writeSlide(t, dirs, "b.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &fakeBackend{}
	_, _, err := Run(ctx, b, "QACloze", cfg, dirs, "", errorlog.New(dirs.Error), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.prompts)
}

func TestRunBackendCancellationPropagates(t *testing.T) {
	dirs, cfg := testSetup(t)
	writeSlide(t, dirs, "a.pdf")
	writeSlide(t, dirs, "b.pdf")

	b := &fakeBackend{errs: map[string]error{
		"a.pdf": errors.Join(context.Canceled),
	}}

	_, _, err := Run(context.Background(), b, "QACloze", cfg, dirs, "", errorlog.New(dirs.Error), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, b.prompts, 1, "cancellation mid-run stops before the next document")
}
