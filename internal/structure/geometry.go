package structure

import "fmt"

// RangeRef is a rectangular cell region with 0-based, end-exclusive bounds.
// This is the backend-native convention; the A1 codec deals in 1-based
// inclusive coordinates and the two meet only at explicit conversions.
type RangeRef struct {
	StartRow int `json:"start_row"`
	EndRow   int `json:"end_row"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

// NewRangeRef validates half-open bounds. A range with start >= end on
// either axis denotes no cells and is rejected.
func NewRangeRef(startRow, endRow, startCol, endCol int) (RangeRef, error) {
	if startRow < 0 || startCol < 0 || startRow >= endRow || startCol >= endCol {
		return RangeRef{}, fmt.Errorf("structure: empty or inverted range rows=[%d,%d) cols=[%d,%d)", startRow, endRow, startCol, endCol)
	}
	return RangeRef{StartRow: startRow, EndRow: endRow, StartCol: startCol, EndCol: endCol}, nil
}

// RangeRefFromA1 parses an A1 range string into half-open 0-based bounds.
func RangeRefFromA1(s string) (RangeRef, error) {
	r1, r2, c1, c2, err := ParseRange(s)
	if err != nil {
		return RangeRef{}, err
	}
	return RangeRef{StartRow: r1 - 1, EndRow: r2, StartCol: c1 - 1, EndCol: c2}, nil
}

// Rows returns the number of rows the range spans.
func (r RangeRef) Rows() int { return r.EndRow - r.StartRow }

// Cols returns the number of columns the range spans.
func (r RangeRef) Cols() int { return r.EndCol - r.StartCol }

// Contains reports whether the 0-based cell position lies inside the range.
func (r RangeRef) Contains(row, col int) bool {
	return row >= r.StartRow && row < r.EndRow && col >= r.StartCol && col < r.EndCol
}

// A1 renders the range in A1 notation (1-based inclusive).
func (r RangeRef) A1() string {
	return FormatRange(r.StartRow+1, r.EndRow, r.StartCol+1, r.EndCol)
}

// RangesOverlap reports whether two rectangles share at least one cell.
// Rectangles intersect iff they intersect on both axes independently; with
// half-open bounds that is a strict comparison each way. Symmetric in its
// arguments.
func RangesOverlap(a, b RangeRef) bool {
	return a.StartRow < b.EndRow && b.StartRow < a.EndRow &&
		a.StartCol < b.EndCol && b.StartCol < a.EndCol
}

// CellInRange tests an A1 cell reference against an A1 range using the
// codec's 1-based inclusive semantics.
func CellInRange(cellRef, rangeRef string) (bool, error) {
	row, col, err := ParseCell(cellRef)
	if err != nil {
		return false, err
	}
	r1, r2, c1, c2, err := ParseRange(rangeRef)
	if err != nil {
		return false, err
	}
	return row >= r1 && row <= r2 && col >= c1 && col <= c2, nil
}

type cellPos struct {
	Row int
	Col int
}

// CellSet is the materialized union of cell positions covered by a set of
// ranges. Grid scans are bounded by the sheet's used area, so materializing
// stays cheap relative to the per-cell classification that follows.
type CellSet map[cellPos]struct{}

// UnionOfRanges materializes every 0-based position covered by any range.
func UnionOfRanges(ranges []RangeRef) CellSet {
	set := make(CellSet)
	for _, r := range ranges {
		for row := r.StartRow; row < r.EndRow; row++ {
			for col := r.StartCol; col < r.EndCol; col++ {
				set[cellPos{Row: row, Col: col}] = struct{}{}
			}
		}
	}
	return set
}

// Covers reports membership of a 0-based cell position.
func (s CellSet) Covers(row, col int) bool {
	_, ok := s[cellPos{Row: row, Col: col}]
	return ok
}
