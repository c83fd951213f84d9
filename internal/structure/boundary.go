package structure

import (
	"strings"

	"github.com/sheetstruct/sheetstruct/config"
)

// BoundaryConfig tunes pattern-table detection.
type BoundaryConfig struct {
	// MinTableRows is the minimum run of consecutive data rows required
	// before a region is proposed as a table. Zero or negative falls back to
	// the configured default. See config.DefaultMinTableRows for why this is
	// a policy knob rather than a constant.
	MinTableRows int
}

func (c BoundaryConfig) minRows() int {
	if c.MinTableRows > 0 {
		return c.MinTableRows
	}
	return config.DefaultMinTableRows
}

// DetectPatternRanges scans a possibly ragged grid top to bottom and
// proposes each maximal run of consecutive non-empty rows that meets the
// minimum-rows threshold as a table region. The column span of a region is
// the widest row within it; a run still open at end of input is flushed
// under the same rule.
func DetectPatternRanges(grid [][]string, cfg BoundaryConfig) []RangeRef {
	minRows := cfg.minRows()

	var out []RangeRef
	start := -1
	width := 0

	flush := func(end int) {
		if start >= 0 && end-start >= minRows && width > 0 {
			out = append(out, RangeRef{StartRow: start, EndRow: end, StartCol: 0, EndCol: width})
		}
		start = -1
		width = 0
	}

	for i, row := range grid {
		if !rowHasData(row) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
		if w := rowWidth(row); w > width {
			width = w
		}
	}
	flush(len(grid))

	return out
}

// rowHasData reports whether any cell is non-empty after stripping
// whitespace.
func rowHasData(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// rowWidth is the row length with trailing whitespace-only cells ignored, so
// padded rows do not inflate a region's column span.
func rowWidth(row []string) int {
	i := len(row)
	for i > 0 {
		if strings.TrimSpace(row[i-1]) != "" {
			break
		}
		i--
	}
	return i
}

// trimTrailingEmpties drops trailing whitespace-only values.
func trimTrailingEmpties(xs []string) []string {
	return xs[:rowWidth(xs)]
}
