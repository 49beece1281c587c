// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sanitize

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

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to underscores", "Cell Biology Week 3", "Cell_Biology_Week_3"},
		{"turkish characters", "Göğüs Hastalıkları", "Gogus_Hastaliklari"},
		{"dotless i", "ışık", "isik"},
		{"accents stripped", "résumé études", "resume_etudes"},
		{"german umlauts", "Übung für Prüfung", "Ubung_fur_Prufung"},
		{"already clean", "anatomy_week2", "anatomy_week2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "cafe", StripDiacritics("café"))
	assert.Equal(t, "naive", StripDiacritics("naïve"))
	assert.Equal(t, "plain", StripDiacritics("plain"))
}

// fakeCompressor records calls and returns a canned outcome.
type fakeCompressor struct {
	available bool
	succeed   bool
	called    int
}

func (f *fakeCompressor) Available() bool { return f.available }

func (f *fakeCompressor) Compress(inputPath, outputPath string) (bool, string) {
	f.called++
	if !f.succeed {
		return false, "simulated gs failure"
	}
	if err := os.WriteFile(outputPath, []byte("compressed"), 0o644); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func testDirs(t *testing.T) types.DirsConfig {
	t.Helper()
	dirs := types.DefaultDirs(t.TempDir())
	for _, dir := range dirs.All() {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return dirs
}

func writeRaw(t *testing.T, dirs types.DirsConfig, name string, size int) {
	t.Helper()
	data := make([]byte, size)
	require.NoError(t, os.WriteFile(filepath.Join(dirs.Raw, name), data, 0o644))
}

func TestRunSanitizesAndMovesOriginal(t *testing.T) {
	dirs := testDirs(t)
	writeRaw(t, dirs, "Göğüs Hastalıkları.pdf", 100)

	comp := &fakeCompressor{available: true, succeed: true}
	result, err := Run(dirs, types.SanitizeConfig{}, comp, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sanitized)
	assert.Zero(t, result.Failed)

	assert.FileExists(t, filepath.Join(dirs.Slides, "Gogus_Hastaliklari.pdf"))
	assert.FileExists(t, filepath.Join(dirs.RawDone(), "Göğüs Hastalıkları.pdf"))
	assert.Zero(t, comp.called, "small files are never compressed")
}

func TestRunCompressesOversizedFile(t *testing.T) {
	dirs := testDirs(t)
	writeRaw(t, dirs, "big deck.pdf", 2048)

	comp := &fakeCompressor{available: true, succeed: true}
	cfg := types.SanitizeConfig{CompressThresholdBytes: 1024}
	result, err := Run(dirs, cfg, comp, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sanitized)
	assert.Equal(t, 1, comp.called)

	data, err := os.ReadFile(filepath.Join(dirs.Slides, "big_deck.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "compressed", string(data))
	assert.FileExists(t, filepath.Join(dirs.RawDone(), "big deck.pdf"))
}

func TestRunCompressionFailureGoesToErrorDir(t *testing.T) {
	dirs := testDirs(t)
	writeRaw(t, dirs, "stubborn.pdf", 2048)

	comp := &fakeCompressor{available: true, succeed: false}
	cfg := types.SanitizeConfig{CompressThresholdBytes: 1024}
	result, err := Run(dirs, cfg, comp, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err, "per-file failures never fail the stage")
	assert.Equal(t, 1, result.Failed)

	assert.FileExists(t, filepath.Join(dirs.Error, "stubborn.pdf"))
	assert.NoFileExists(t, filepath.Join(dirs.Slides, "stubborn.pdf"))
	assert.FileExists(t, filepath.Join(dirs.Error, errorlog.FileName))
}

func TestRunCompressorMissingGoesToErrorDir(t *testing.T) {
	dirs := testDirs(t)
	writeRaw(t, dirs, "big.pdf", 2048)

	comp := &fakeCompressor{available: false}
	cfg := types.SanitizeConfig{CompressThresholdBytes: 1024}
	result, err := Run(dirs, cfg, comp, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, comp.called)
	assert.FileExists(t, filepath.Join(dirs.Error, "big.pdf"))
}

func TestRunNameCollisionGetsUniquePath(t *testing.T) {
	dirs := testDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(dirs.Slides, "deck.pdf"), []byte("existing"), 0o644))
	writeRaw(t, dirs, "deck.pdf", 100)

	result, err := Run(dirs, types.SanitizeConfig{}, &fakeCompressor{available: true, succeed: true}, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sanitized)
	assert.FileExists(t, filepath.Join(dirs.Slides, "deck_2.pdf"))
}

func TestRunMissingIntakeDirFailsStage(t *testing.T) {
	dirs := types.DefaultDirs(t.TempDir())
	require.NoError(t, os.MkdirAll(dirs.Error, 0o755))

	_, err := Run(dirs, types.SanitizeConfig{}, &fakeCompressor{}, errorlog.New(dirs.Error), io.Discard)
	require.Error(t, err)
}

func TestRunEmptyIntake(t *testing.T) {
	dirs := testDirs(t)
	result, err := Run(dirs, types.SanitizeConfig{}, &fakeCompressor{}, errorlog.New(dirs.Error), io.Discard)
	require.NoError(t, err)
	assert.Zero(t, result.Total())
}
