package structure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectPatternRanges_EmptyGrid(t *testing.T) {
	require.Empty(t, DetectPatternRanges(nil, BoundaryConfig{}))
	require.Empty(t, DetectPatternRanges([][]string{}, BoundaryConfig{}))
}

func TestDetectPatternRanges_WholeGrid(t *testing.T) {
	grid := [][]string{
		{"Name", "Age"},
		{"Alice", "30"},
		{"Bob", "25"},
	}
	got := DetectPatternRanges(grid, BoundaryConfig{})
	require.Equal(t, []RangeRef{{StartRow: 0, EndRow: 3, StartCol: 0, EndCol: 2}}, got)
}

func TestDetectPatternRanges_SingleRowDiscarded(t *testing.T) {
	grid := [][]string{
		{},
		{"X", "Y"},
		{},
	}
	require.Empty(t, DetectPatternRanges(grid, BoundaryConfig{}))
}

func TestDetectPatternRanges_MultipleRuns(t *testing.T) {
	grid := [][]string{
		{"a", "b"},
		{"c", "d"},
		{},
		{"e"},
		{"f"},
		{"g"},
	}
	got := DetectPatternRanges(grid, BoundaryConfig{})
	require.Equal(t, []RangeRef{
		{StartRow: 0, EndRow: 2, StartCol: 0, EndCol: 2},
		{StartRow: 3, EndRow: 6, StartCol: 0, EndCol: 1},
	}, got)
}

func TestDetectPatternRanges_RaggedWidestRowWins(t *testing.T) {
	grid := [][]string{
		{"a"},
		{"b", "c", "d"},
		{"e", "f"},
	}
	got := DetectPatternRanges(grid, BoundaryConfig{})
	require.Equal(t, []RangeRef{{StartRow: 0, EndRow: 3, StartCol: 0, EndCol: 3}}, got)
}

func TestDetectPatternRanges_TrailingRunFlushed(t *testing.T) {
	grid := [][]string{
		{},
		{"a", "b"},
		{"c", "d"},
	}
	got := DetectPatternRanges(grid, BoundaryConfig{})
	require.Equal(t, []RangeRef{{StartRow: 1, EndRow: 3, StartCol: 0, EndCol: 2}}, got)
}

func TestDetectPatternRanges_WhitespaceRowsAreBlank(t *testing.T) {
	grid := [][]string{
		{"a", "b"},
		{"  ", "\t"},
		{"c", "d"},
	}
	require.Empty(t, DetectPatternRanges(grid, BoundaryConfig{}), "two one-row runs, both below threshold")
}

func TestDetectPatternRanges_TrailingEmptyCellsIgnoredForWidth(t *testing.T) {
	grid := [][]string{
		{"a", "b", "", ""},
		{"c", "d"},
	}
	got := DetectPatternRanges(grid, BoundaryConfig{})
	require.Equal(t, []RangeRef{{StartRow: 0, EndRow: 2, StartCol: 0, EndCol: 2}}, got)
}

func TestDetectPatternRanges_ThresholdConfigurable(t *testing.T) {
	grid := [][]string{
		{},
		{"X", "Y"},
		{},
		{"a"},
		{"b"},
	}

	// Threshold 1 keeps even isolated rows.
	got := DetectPatternRanges(grid, BoundaryConfig{MinTableRows: 1})
	require.Len(t, got, 2)

	// Threshold 3 rejects the two-row run as well.
	got = DetectPatternRanges(grid, BoundaryConfig{MinTableRows: 3})
	require.Empty(t, got)
}
