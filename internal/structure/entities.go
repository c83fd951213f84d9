package structure

// TableType distinguishes backend-tracked tables from ones inferred out of
// the cell data's shape.
type TableType string

const (
	TableTypeNative  TableType = "native"
	TableTypePattern TableType = "pattern"
)

// TableEntity is one accepted table in the final entity set. Native tables
// are read-only facts from backend metadata; pattern tables are derived
// fresh per analysis and never persisted.
type TableEntity struct {
	Name        string    `json:"name"`
	Type        TableType `json:"type"`
	Range       RangeRef  `json:"range"`
	RangeA1     string    `json:"range_a1"`
	Headers     []string  `json:"headers,omitempty"`
	HasHeaders  bool      `json:"has_headers"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
}

// ChartEntity is a pass-through projection of backend chart metadata.
type ChartEntity struct {
	ChartID   int64  `json:"chart_id"`
	Position  string `json:"position,omitempty"`
	ChartType string `json:"chart_type,omitempty"`
	Title     string `json:"title,omitempty"`
}

// NamedRangeEntity is a pass-through projection of a defined name scoped to
// the sheet under analysis.
type NamedRangeEntity struct {
	Name   string     `json:"name"`
	Ranges []RangeRef `json:"ranges"`
}

// AnalysisSummary aggregates entity counts into a bounded complexity score.
// Derived, recomputed each call, never cached.
type AnalysisSummary struct {
	Counts          map[string]int `json:"counts"`
	TotalEntities   int            `json:"total_entities"`
	ComplexityScore int            `json:"complexity_score"`
}

// Entities is the unified entity list for one analyzed sheet.
type Entities struct {
	DataTables     []TableEntity      `json:"data_tables"`
	ScatteredCells []ScatteredCell    `json:"scattered_cells"`
	Charts         []ChartEntity      `json:"charts"`
	NamedRanges    []NamedRangeEntity `json:"named_ranges"`
	Summary        AnalysisSummary    `json:"summary"`
}

// SheetAnalysis is the full structure discovery result for one sheet.
type SheetAnalysis struct {
	SheetName string   `json:"sheet_name"`
	SheetID   int64    `json:"sheet_id"`
	Entities  Entities `json:"entities"`
}

// Complexity score weights. Tables weigh double: they dominate how hard a
// sheet is to reason about.
const (
	weightDataTable     = 2
	weightScatteredCell = 1
	weightChart         = 1

	maxComplexityScore = 10
)

// summarize counts entities and computes the capped complexity score. Named
// ranges are reported in the counts but deliberately excluded from the total
// and the score; that asymmetry is the established reporting convention and
// is preserved rather than corrected here.
func summarize(e Entities) AnalysisSummary {
	tables := len(e.DataTables)
	scattered := len(e.ScatteredCells)
	charts := len(e.Charts)

	score := tables*weightDataTable + scattered*weightScatteredCell + charts*weightChart
	if score > maxComplexityScore {
		score = maxComplexityScore
	}

	return AnalysisSummary{
		Counts: map[string]int{
			"data_tables":     tables,
			"scattered_cells": scattered,
			"charts":          charts,
			"named_ranges":    len(e.NamedRanges),
		},
		TotalEntities:   tables + scattered + charts,
		ComplexityScore: score,
	}
}
