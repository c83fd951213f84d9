package structure

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// InvalidRangeError reports an A1 reference that could not be parsed. The
// offending text is preserved so callers can surface it verbatim.
type InvalidRangeError struct {
	Ref string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("structure: invalid A1 range %q", e.Ref)
}

var cellRefRe = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)

// ColumnToLetter converts a 1-based column number to its spreadsheet letter
// form (1 -> A, 26 -> Z, 27 -> AA). Base 26 with no digit for zero, so each
// step borrows one before dividing. Non-positive input clamps to "A".
func ColumnToLetter(n int) string {
	if n <= 0 {
		return "A"
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// LetterToColumn converts column letters to a 1-based column number. It is
// the inverse of ColumnToLetter for any well-formed input.
func LetterToColumn(s string) int {
	col := 0
	for _, ch := range strings.ToUpper(strings.TrimSpace(s)) {
		if ch < 'A' || ch > 'Z' {
			return 0
		}
		col = col*26 + int(ch-'A'+1)
	}
	return col
}

// ParseCell parses a single A1 cell reference into 1-based (row, col).
func ParseCell(ref string) (row, col int, err error) {
	m := cellRefRe.FindStringSubmatch(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
	if m == nil {
		return 0, 0, &InvalidRangeError{Ref: ref}
	}
	row, err = strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return 0, 0, &InvalidRangeError{Ref: ref}
	}
	col = LetterToColumn(m[1])
	if col < 1 {
		return 0, 0, &InvalidRangeError{Ref: ref}
	}
	return row, col, nil
}

// ParseRange parses an A1 range ("A1:C10") or single cell ("B7") into
// 1-based inclusive bounds.
func ParseRange(s string) (startRow, endRow, startCol, endCol int, err error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return 0, 0, 0, 0, &InvalidRangeError{Ref: s}
	}
	parts := strings.Split(in, ":")
	switch len(parts) {
	case 1:
		r, c, perr := ParseCell(parts[0])
		if perr != nil {
			return 0, 0, 0, 0, &InvalidRangeError{Ref: s}
		}
		return r, r, c, c, nil
	case 2:
		r1, c1, e1 := ParseCell(parts[0])
		r2, c2, e2 := ParseCell(parts[1])
		if e1 != nil || e2 != nil {
			return 0, 0, 0, 0, &InvalidRangeError{Ref: s}
		}
		if r2 < r1 {
			r1, r2 = r2, r1
		}
		if c2 < c1 {
			c1, c2 = c2, c1
		}
		return r1, r2, c1, c2, nil
	default:
		return 0, 0, 0, 0, &InvalidRangeError{Ref: s}
	}
}

// FormatCell renders 1-based (row, col) as an A1 cell reference.
func FormatCell(row, col int) string {
	if row < 1 {
		row = 1
	}
	return ColumnToLetter(col) + strconv.Itoa(row)
}

// FormatRange renders 1-based inclusive bounds as an A1 range. A single-cell
// range collapses to a bare cell reference, matching ParseRange's single-cell
// form.
func FormatRange(startRow, endRow, startCol, endCol int) string {
	if startRow == endRow && startCol == endCol {
		return FormatCell(startRow, startCol)
	}
	return FormatCell(startRow, startCol) + ":" + FormatCell(endRow, endCol)
}
