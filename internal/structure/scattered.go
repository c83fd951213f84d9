package structure

import (
	"strconv"
	"strings"
	"time"
)

// ValueType tags a scattered cell's literal form.
type ValueType string

const (
	ValueNumber  ValueType = "number"
	ValueDate    ValueType = "date"
	ValueFormula ValueType = "formula"
	ValueText    ValueType = "text"
)

// Category is the semantic role assigned to a scattered cell.
type Category string

const (
	CategoryCalculationLabel Category = "calculation_label"
	CategoryFieldLabel       Category = "field_label"
	CategoryNote             Category = "note"
	CategoryHeaderOrLabel    Category = "header_or_label"
	CategoryCalculation      Category = "calculation"
	CategoryStandaloneValue  Category = "standalone_value"
	CategoryGeneralData      Category = "general_data"
)

// ScatteredCell is a non-empty cell outside every accepted table range.
// Row and Col are 1-based for display, matching the A1 reference.
type ScatteredCell struct {
	CellRef   string    `json:"cell_ref"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Value     string    `json:"value"`
	ValueType ValueType `json:"value_type"`
	Category  Category  `json:"category"`
}

var calculationLabels = map[string]struct{}{
	"total": {}, "sum": {}, "average": {}, "count": {}, "max": {}, "min": {},
}

var fieldLabels = map[string]struct{}{
	"title": {}, "header": {}, "name": {}, "date": {}, "amount": {}, "quantity": {},
}

// classifyValueType tags a trimmed cell value as formula, number, ISO date,
// or text.
func classifyValueType(v string) ValueType {
	if strings.HasPrefix(v, "=") {
		return ValueFormula
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return ValueNumber
	}
	if _, err := time.Parse("2006-01-02", v); err == nil {
		return ValueDate
	}
	return ValueText
}

// classifyCategory assigns the semantic category for a value at a 0-based
// grid position. Rules are evaluated strictly in priority order: label
// vocabularies first, note prefixes, edge position, then value type.
func classifyCategory(v string, vt ValueType, row, col int) Category {
	low := strings.ToLower(strings.TrimSpace(v))
	if _, ok := calculationLabels[low]; ok {
		return CategoryCalculationLabel
	}
	if _, ok := fieldLabels[low]; ok {
		return CategoryFieldLabel
	}
	if strings.HasPrefix(low, "note") || strings.HasPrefix(low, "comment") {
		return CategoryNote
	}
	if row == 0 || col == 0 {
		return CategoryHeaderOrLabel
	}
	if vt == ValueFormula {
		return CategoryCalculation
	}
	if vt == ValueNumber {
		return CategoryStandaloneValue
	}
	return CategoryGeneralData
}

// DetectScatteredCells classifies every non-empty grid cell whose 0-based
// position is not covered by the occupied set. With the occupied set built
// from the accepted table ranges this makes table membership and
// scatteredness an exact partition of the non-empty cells.
func DetectScatteredCells(grid [][]string, occupied CellSet) []ScatteredCell {
	out := make([]ScatteredCell, 0)
	for row, cells := range grid {
		for col, raw := range cells {
			v := strings.TrimSpace(raw)
			if v == "" || occupied.Covers(row, col) {
				continue
			}
			vt := classifyValueType(v)
			out = append(out, ScatteredCell{
				CellRef:   FormatCell(row+1, col+1),
				Row:       row + 1,
				Col:       col + 1,
				Value:     v,
				ValueType: vt,
				Category:  classifyCategory(v, vt, row, col),
			})
		}
	}
	return out
}
