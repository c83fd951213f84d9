package structure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyValueType(t *testing.T) {
	cases := map[string]ValueType{
		"42":           ValueNumber,
		"-3.14":        ValueNumber,
		"2024-01-02":   ValueDate,
		"=SUM(A1:A5)":  ValueFormula,
		"hello":        ValueText,
		"2024-13-40":   ValueText, // not a real date
		"12/01/2024":   ValueText, // only ISO dates are recognized
	}
	for in, want := range cases {
		require.Equal(t, want, classifyValueType(in), "value=%q", in)
	}
}

func TestClassifyCategory_PriorityOrder(t *testing.T) {
	cases := []struct {
		name     string
		value    string
		row, col int
		want     Category
	}{
		// Calculation labels win even on the edge of the grid.
		{"calc label", "Total", 0, 0, CategoryCalculationLabel},
		{"calc label case-insensitive", "AVERAGE", 4, 2, CategoryCalculationLabel},
		{"field label", "Name", 3, 3, CategoryFieldLabel},
		{"field label beats position", "date", 0, 0, CategoryFieldLabel},
		{"note prefix", "Note: check this", 5, 5, CategoryNote},
		{"comment prefix", "comments welcome", 5, 5, CategoryNote},
		{"first row", "whatever", 0, 4, CategoryHeaderOrLabel},
		{"first column", "whatever", 4, 0, CategoryHeaderOrLabel},
		{"formula", "=A1+A2", 3, 3, CategoryCalculation},
		{"number", "55", 3, 3, CategoryStandaloneValue},
		{"fallback", "misc text", 3, 3, CategoryGeneralData},
	}
	for _, c := range cases {
		vt := classifyValueType(c.value)
		require.Equal(t, c.want, classifyCategory(c.value, vt, c.row, c.col), c.name)
	}
}

func TestDetectScatteredCells(t *testing.T) {
	grid := [][]string{
		{"Name", "Age"},
		{"Alice", "30"},
		{},
		{"", "55"},
	}
	occupied := UnionOfRanges([]RangeRef{{StartRow: 0, EndRow: 2, StartCol: 0, EndCol: 2}})

	got := DetectScatteredCells(grid, occupied)
	require.Len(t, got, 1)
	require.Equal(t, ScatteredCell{
		CellRef:   "B4",
		Row:       4,
		Col:       2,
		Value:     "55",
		ValueType: ValueNumber,
		Category:  CategoryStandaloneValue,
	}, got[0])
}

func TestDetectScatteredCells_EmptyAndWhitespaceSkipped(t *testing.T) {
	grid := [][]string{
		{"", "  ", "\t"},
		{},
	}
	require.Empty(t, DetectScatteredCells(grid, UnionOfRanges(nil)))
}

func TestDetectScatteredCells_ValueTrimmed(t *testing.T) {
	grid := [][]string{{"  padded  "}}
	got := DetectScatteredCells(grid, UnionOfRanges(nil))
	require.Len(t, got, 1)
	require.Equal(t, "padded", got[0].Value)
	require.Equal(t, "A1", got[0].CellRef)
}
