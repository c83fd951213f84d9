package structure

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(Config{}, zerolog.Nop())
}

func TestAnalyze_PatternTableAndScatteredCells(t *testing.T) {
	grid := [][]string{
		{"Name", "Age"},
		{"Alice", "30"},
		{"Bob", "25"},
		{},
		{"Total", "55"},
	}
	out := newTestAnalyzer().Analyze(Snapshot{SheetName: "Data", SheetID: 3, Grid: grid})

	require.Equal(t, "Data", out.SheetName)
	require.Equal(t, int64(3), out.SheetID)

	require.Len(t, out.Entities.DataTables, 1)
	tbl := out.Entities.DataTables[0]
	require.Equal(t, TableTypePattern, tbl.Type)
	require.Equal(t, "Pattern Table 1", tbl.Name)
	require.Equal(t, RangeRef{StartRow: 0, EndRow: 3, StartCol: 0, EndCol: 2}, tbl.Range)
	require.Equal(t, "A1:B3", tbl.RangeA1)
	require.Equal(t, []string{"Name", "Age"}, tbl.Headers)
	require.True(t, tbl.HasHeaders)
	require.Equal(t, 3, tbl.RowCount)
	require.Equal(t, 2, tbl.ColumnCount)

	// The isolated final row is a single data row: not a table, scattered.
	require.Len(t, out.Entities.ScatteredCells, 2)
	byRef := map[string]ScatteredCell{}
	for _, sc := range out.Entities.ScatteredCells {
		byRef[sc.CellRef] = sc
	}
	require.Equal(t, CategoryCalculationLabel, byRef["A5"].Category)
	require.Equal(t, ValueText, byRef["A5"].ValueType)
	require.Equal(t, CategoryStandaloneValue, byRef["B5"].Category)
	require.Equal(t, ValueNumber, byRef["B5"].ValueType)
}

func TestAnalyze_NativeWinsOverPattern(t *testing.T) {
	grid := [][]string{
		{"Name", "Age"},
		{"Alice", "30"},
		{"Bob", "25"},
	}
	snap := Snapshot{
		SheetName: "S",
		Grid:      grid,
		NativeTables: []NativeTable{
			{Name: "People", TableID: "t1", Range: RangeRef{StartRow: 0, EndRow: 3, StartCol: 0, EndCol: 2}},
		},
	}
	out := newTestAnalyzer().Analyze(snap)

	require.Len(t, out.Entities.DataTables, 1)
	require.Equal(t, TableTypeNative, out.Entities.DataTables[0].Type)
	require.Equal(t, "People", out.Entities.DataTables[0].Name)
	// Headers fall back to the grid when metadata carries none.
	require.Equal(t, []string{"Name", "Age"}, out.Entities.DataTables[0].Headers)
	require.Empty(t, out.Entities.ScatteredCells)
}

func TestAnalyze_EmptyGrid(t *testing.T) {
	out := newTestAnalyzer().Analyze(Snapshot{SheetName: "Blank"})

	require.Empty(t, out.Entities.DataTables)
	require.Empty(t, out.Entities.ScatteredCells)
	require.Empty(t, out.Entities.Charts)
	require.Empty(t, out.Entities.NamedRanges)
	require.Equal(t, 0, out.Entities.Summary.TotalEntities)
	require.Equal(t, 0, out.Entities.Summary.ComplexityScore)
}

func TestAnalyze_IsolatedRowBecomesScattered(t *testing.T) {
	grid := [][]string{
		{},
		{"X", "Y"},
		{},
	}
	out := newTestAnalyzer().Analyze(Snapshot{SheetName: "S", Grid: grid})

	require.Empty(t, out.Entities.DataTables)
	require.Len(t, out.Entities.ScatteredCells, 2)
	for _, sc := range out.Entities.ScatteredCells {
		// Column A lands in header_or_label, the rest in general_data.
		if sc.Col == 1 {
			require.Equal(t, CategoryHeaderOrLabel, sc.Category)
		} else {
			require.Equal(t, CategoryGeneralData, sc.Category)
		}
	}
}

func TestAnalyze_EveryNonEmptyCellClassifiedExactlyOnce(t *testing.T) {
	grid := [][]string{
		{"Name", "Age", "", "Note: misc"},
		{"Alice", "30"},
		{"Bob", "25"},
		{},
		{"Total", "55"},
		{},
		{"a", "b"},
		{"c", "d"},
	}
	out := newTestAnalyzer().Analyze(Snapshot{SheetName: "S", Grid: grid})

	ranges := make([]RangeRef, 0, len(out.Entities.DataTables))
	for _, tbl := range out.Entities.DataTables {
		ranges = append(ranges, tbl.Range)
	}
	occupied := UnionOfRanges(ranges)
	scattered := map[[2]int]bool{}
	for _, sc := range out.Entities.ScatteredCells {
		scattered[[2]int{sc.Row - 1, sc.Col - 1}] = true
	}

	for row, cells := range grid {
		for col, v := range cells {
			if strings.TrimSpace(v) == "" {
				continue
			}
			inTable := occupied.Covers(row, col)
			require.NotEqual(t, inTable, scattered[[2]int{row, col}],
				"cell (%d,%d) must be classified exactly once", row, col)
		}
	}
}

func TestAnalyze_AcceptedTablesNeverOverlap(t *testing.T) {
	grid := [][]string{
		{"h1", "h2", "h3"},
		{"1", "2", "3"},
		{"4", "5", "6"},
		{},
		{"x", "y"},
		{"z", "w"},
	}
	snap := Snapshot{
		SheetName: "S",
		Grid:      grid,
		NativeTables: []NativeTable{
			{Name: "Top", TableID: "t1", Range: RangeRef{StartRow: 0, EndRow: 3, StartCol: 0, EndCol: 3}},
		},
	}
	out := newTestAnalyzer().Analyze(snap)

	tables := out.Entities.DataTables
	require.GreaterOrEqual(t, len(tables), 2)
	for i := range tables {
		for j := i + 1; j < len(tables); j++ {
			require.False(t, RangesOverlap(tables[i].Range, tables[j].Range),
				"%s overlaps %s", tables[i].Name, tables[j].Name)
		}
	}
}

func TestAnalyze_DegradesWhenNativeMetadataFails(t *testing.T) {
	grid := [][]string{
		{"Name", "Age"},
		{"Alice", "30"},
	}
	snap := Snapshot{
		SheetName:       "S",
		Grid:            grid,
		NativeTablesErr: errors.New("backend unavailable"),
	}
	out := newTestAnalyzer().Analyze(snap)

	require.Len(t, out.Entities.DataTables, 1)
	require.Equal(t, TableTypePattern, out.Entities.DataTables[0].Type)
}

func TestAnalyze_DegradesPerMetadataCategory(t *testing.T) {
	snap := Snapshot{
		SheetName:      "S",
		Grid:           [][]string{{"a"}, {"b"}},
		Charts:         []ChartEntity{{ChartID: 9}},
		ChartsErr:      errors.New("charts fetch failed"),
		NamedRangesErr: errors.New("names fetch failed"),
	}
	out := newTestAnalyzer().Analyze(snap)

	require.Empty(t, out.Entities.Charts)
	require.Empty(t, out.Entities.NamedRanges)
	// Table detection is unaffected.
	require.Len(t, out.Entities.DataTables, 1)
}

func TestAnalyze_ChartsAndNamedRangesPassThrough(t *testing.T) {
	snap := Snapshot{
		SheetName: "S",
		Charts: []ChartEntity{
			{ChartID: 7, Position: "E2", ChartType: "bar", Title: "Sales"},
		},
		NamedRanges: []NamedRangeEntity{
			{Name: "Budget", Ranges: []RangeRef{{StartRow: 0, EndRow: 2, StartCol: 0, EndCol: 1}}},
		},
	}
	out := newTestAnalyzer().Analyze(snap)

	require.Equal(t, snap.Charts, out.Entities.Charts)
	require.Equal(t, snap.NamedRanges, out.Entities.NamedRanges)
	require.Equal(t, 1, out.Entities.Summary.Counts["charts"])
	require.Equal(t, 1, out.Entities.Summary.Counts["named_ranges"])
	// Charts score, named ranges do not.
	require.Equal(t, 1, out.Entities.Summary.TotalEntities)
	require.Equal(t, 1, out.Entities.Summary.ComplexityScore)
}

func TestSummarize_WeightsAndCap(t *testing.T) {
	e := Entities{
		DataTables:     make([]TableEntity, 2),
		ScatteredCells: make([]ScatteredCell, 3),
		Charts:         make([]ChartEntity, 1),
	}
	s := summarize(e)
	require.Equal(t, 6, s.TotalEntities)
	require.Equal(t, 2*2+3+1, s.ComplexityScore)

	e.ScatteredCells = make([]ScatteredCell, 50)
	s = summarize(e)
	require.Equal(t, 10, s.ComplexityScore, "score is capped")

	// Monotonic: growing any count never lowers the score.
	prev := 0
	for n := 0; n <= 12; n++ {
		got := summarize(Entities{ScatteredCells: make([]ScatteredCell, n)}).ComplexityScore
		require.GreaterOrEqual(t, got, prev)
		require.LessOrEqual(t, got, 10)
		prev = got
	}
}

func TestAnalyze_CustomMinTableRows(t *testing.T) {
	grid := [][]string{
		{},
		{"X", "Y"},
		{},
	}
	a := NewAnalyzer(Config{MinTableRows: 1}, zerolog.Nop())
	out := a.Analyze(Snapshot{SheetName: "S", Grid: grid})

	require.Len(t, out.Entities.DataTables, 1)
	require.Empty(t, out.Entities.ScatteredCells)
}
