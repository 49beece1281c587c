// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compress shells out to Ghostscript to shrink oversized PDFs before
// they go to the extraction service. The compressor reports success or
// failure plus diagnostic text; it never panics into the pipeline.
package compress

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const binGhostscript = "gs"

// Compressor rewrites a PDF at a lower quality setting.
type Compressor interface {
	// Available reports whether the compressor binary exists on PATH.
	Available() bool

	// Compress writes a compressed copy of inputPath to outputPath.
	// It returns whether compression produced a usable file, plus any
	// diagnostic output from the tool.
	Compress(inputPath, outputPath string) (ok bool, diagnostic string)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) (stderr string, err error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(name string, args ...string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return strings.TrimSpace(stderr.String()), err
}

// Ghostscript implements Compressor with the gs pdfwrite device at the
// /ebook quality preset.
type Ghostscript struct {
	exec executor
}

// NewGhostscript returns the production Ghostscript compressor.
func NewGhostscript() *Ghostscript {
	return &Ghostscript{exec: osExecutor{}}
}

// Available reports whether gs is on PATH.
func (g *Ghostscript) Available() bool {
	_, err := g.exec.LookPath(binGhostscript)
	return err == nil
}

// Compress runs gs over inputPath. Success requires a zero exit status and a
// non-empty output file.
func (g *Ghostscript) Compress(inputPath, outputPath string) (bool, string) {
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/ebook",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		fmt.Sprintf("-sOutputFile=%s", outputPath),
		inputPath,
	}

	stderr, err := g.exec.Run(binGhostscript, args...)
	if err != nil {
		return false, stderr
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return false, stderr
	}
	return true, stderr
}
