// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfpage reads page counts and extracts page ranges from PDF files.
// It wraps pdfcpu behind a small interface so the extraction backends can be
// tested without real documents.
package pdfpage

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/deck-engine/internal/segment"
)

// Reader provides the page operations the chunking backend needs.
type Reader interface {
	// Count returns the number of pages in the PDF at path.
	Count(path string) (int, error)

	// ExtractRange writes the pages covered by seg to a new PDF at dst.
	ExtractRange(src, dst string, seg segment.Segment) error
}

// PDFCPUReader implements Reader with pdfcpu. Validation is relaxed because
// lecture-slide PDFs are frequently produced by sloppy exporters.
type PDFCPUReader struct{}

func configuration() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Count returns the page count of the PDF at path.
func (PDFCPUReader) Count(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return n, nil
}

// ExtractRange trims src down to the segment's pages and writes them to dst.
// Segments are zero-based half-open; pdfcpu selections are one-based inclusive.
func (PDFCPUReader) ExtractRange(src, dst string, seg segment.Segment) error {
	if seg.Pages() <= 0 {
		return fmt.Errorf("extracting pages from %s: empty segment %v", src, seg)
	}
	selection := []string{fmt.Sprintf("%d-%d", seg.Start+1, seg.End)}
	if err := api.TrimFile(src, dst, selection, configuration()); err != nil {
		return fmt.Errorf("extracting %s of %s: %w", seg, src, err)
	}
	return nil
}
