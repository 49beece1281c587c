// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment plans contiguous page ranges for oversized documents so
// each extraction call stays within the backend's page budget.
package segment

import "fmt"

// Segment is a half-open page range [Start, End) within a document.
// Page indices are zero-based; adapters working in one-based inclusive
// selections convert at the boundary.
type Segment struct {
	Start int
	End   int
}

// Pages returns the number of pages covered by the segment.
func (s Segment) Pages() int { return s.End - s.Start }

func (s Segment) String() string {
	return fmt.Sprintf("pages %d-%d", s.Start+1, s.End)
}

// Plan splits totalPages into segments of at most maxPages each. The returned
// segments partition [0, totalPages) consecutively with no gaps or overlaps.
// Notices describe sub-minimum or out-of-bounds outcomes; they are advisory
// and never make Plan fail.
//
// A document shorter than minPages yields a single whole-document segment.
// totalPages of zero yields no segments.
func Plan(totalPages, minPages, maxPages int) ([]Segment, []string) {
	if totalPages <= 0 {
		return nil, []string{"document has no pages; nothing to segment"}
	}

	if totalPages < minPages {
		return []Segment{{Start: 0, End: totalPages}},
			[]string{fmt.Sprintf("document has %d page(s), below the %d-page minimum; using a single segment", totalPages, minPages)}
	}

	count := (totalPages + maxPages - 1) / maxPages
	base := totalPages / count
	remainder := totalPages % count

	segments := make([]Segment, 0, count)
	var notices []string
	start := 0
	for i := 0; i < count; i++ {
		size := base
		if i < remainder {
			size++
		}
		seg := Segment{Start: start, End: start + size}
		if size < minPages || size > maxPages {
			notices = append(notices, fmt.Sprintf("segment %d covers %d page(s), outside [%d, %d]", i+1, size, minPages, maxPages))
		}
		segments = append(segments, seg)
		start = seg.End
	}

	return segments, notices
}
