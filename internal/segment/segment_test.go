// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_EvenSplit(t *testing.T) {
	segments, notices := Plan(90, 25, 40)

	require.Len(t, segments, 3)
	assert.Empty(t, notices)
	for i, seg := range segments {
		assert.Equal(t, 30, seg.Pages(), "segment %d", i)
	}
	assert.Equal(t, Segment{Start: 0, End: 30}, segments[0])
	assert.Equal(t, Segment{Start: 30, End: 60}, segments[1])
	assert.Equal(t, Segment{Start: 60, End: 90}, segments[2])
}

func TestPlan_RemainderGoesToLeadingSegments(t *testing.T) {
	segments, _ := Plan(91, 25, 40)

	require.Len(t, segments, 3)
	assert.Equal(t, 31, segments[0].Pages())
	assert.Equal(t, 30, segments[1].Pages())
	assert.Equal(t, 30, segments[2].Pages())
}

func TestPlan_Partition(t *testing.T) {
	cases := []struct {
		totalPages, minPages, maxPages int
	}{
		{1, 1, 1},
		{40, 25, 40},
		{41, 25, 40},
		{90, 25, 40},
		{125, 25, 40},
		{400, 25, 40},
		{39, 10, 13},
	}

	for _, tc := range cases {
		segments, _ := Plan(tc.totalPages, tc.minPages, tc.maxPages)

		wantCount := (tc.totalPages + tc.maxPages - 1) / tc.maxPages
		require.Len(t, segments, wantCount, "total=%d max=%d", tc.totalPages, tc.maxPages)

		next := 0
		for _, seg := range segments {
			assert.Equal(t, next, seg.Start, "total=%d: gap or overlap", tc.totalPages)
			assert.LessOrEqual(t, seg.Pages(), tc.maxPages, "total=%d", tc.totalPages)
			next = seg.End
		}
		assert.Equal(t, tc.totalPages, next, "total=%d: ranges must cover the document", tc.totalPages)
	}
}

func TestPlan_BelowMinimumYieldsWholeDocument(t *testing.T) {
	segments, notices := Plan(12, 25, 40)

	require.Len(t, segments, 1)
	assert.Equal(t, Segment{Start: 0, End: 12}, segments[0])
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "below the 25-page minimum")
}

func TestPlan_ZeroPages(t *testing.T) {
	segments, notices := Plan(0, 25, 40)

	assert.Empty(t, segments)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "no pages")
}

func TestPlan_UndersizedSegmentIsWarnedNotRejected(t *testing.T) {
	// 41 pages with a 40-page cap splits 21/20, both below the 25-page minimum.
	segments, notices := Plan(41, 25, 40)

	require.Len(t, segments, 2)
	assert.Equal(t, 21, segments[0].Pages())
	assert.Equal(t, 20, segments[1].Pages())
	assert.Len(t, notices, 2)
}
