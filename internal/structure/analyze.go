package structure

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// NativeTable is authoritative table metadata supplied by the spreadsheet
// backend. The backend owns naming and bounds; the analyzer accepts these
// as-is and only derives headers when the metadata carries none.
type NativeTable struct {
	Name    string
	TableID string
	Range   RangeRef
	Columns []string
}

// Snapshot is one internally-consistent view of a sheet: the raw grid plus
// whatever authoritative metadata the backend could supply, fetched close
// together in time by the caller. Per-category fetch errors are carried
// alongside so the analyzer can degrade that category instead of failing
// the whole analysis.
type Snapshot struct {
	SheetName string
	SheetID   int64
	Grid      [][]string

	NativeTables []NativeTable
	Charts       []ChartEntity
	NamedRanges  []NamedRangeEntity

	NativeTablesErr error
	ChartsErr       error
	NamedRangesErr  error
}

// Config carries the analyzer's tunable policy.
type Config struct {
	// MinTableRows is forwarded to the boundary detector; zero uses the
	// default.
	MinTableRows int
}

// Analyzer runs structure discovery over sheet snapshots. It is pure
// computation over its inputs and safe for concurrent use; the logger is
// the only collaborator and is injected by the caller.
type Analyzer struct {
	cfg Config
	log zerolog.Logger
}

// NewAnalyzer constructs an Analyzer with the given policy and logger.
func NewAnalyzer(cfg Config, log zerolog.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, log: log}
}

// Analyze classifies the snapshot into tables, scattered cells, charts, and
// named ranges, and aggregates a summary. Native tables always win over
// pattern candidates on overlap; a failed native-table fetch degrades to
// pattern-only detection.
func (a *Analyzer) Analyze(snap Snapshot) SheetAnalysis {
	log := a.log.With().Str("sheet", snap.SheetName).Int64("sheet_id", snap.SheetID).Logger()

	native := a.nativeEntities(snap, log)

	tables := make([]TableEntity, 0, len(native))
	tables = append(tables, native...)

	patternN := 0
	for _, pr := range DetectPatternRanges(snap.Grid, BoundaryConfig{MinTableRows: a.cfg.MinTableRows}) {
		if names := overlappingNames(pr, native); len(names) > 0 {
			// Native metadata is authoritative; the candidate is dropped
			// whole even when it straddles more than one native table.
			log.Debug().
				Str("candidate", pr.A1()).
				Strs("native_tables", names).
				Msg("pattern candidate overlaps native table; discarded")
			continue
		}
		patternN++
		tables = append(tables, patternEntity(snap.Grid, pr, patternN))
	}

	occupied := make([]RangeRef, 0, len(tables))
	for _, t := range tables {
		occupied = append(occupied, t.Range)
	}
	scattered := DetectScatteredCells(snap.Grid, UnionOfRanges(occupied))

	charts := snap.Charts
	if snap.ChartsErr != nil {
		log.Warn().Err(snap.ChartsErr).Msg("chart metadata unavailable; continuing without charts")
		charts = nil
	}
	namedRanges := snap.NamedRanges
	if snap.NamedRangesErr != nil {
		log.Warn().Err(snap.NamedRangesErr).Msg("named range metadata unavailable; continuing without named ranges")
		namedRanges = nil
	}
	if charts == nil {
		charts = make([]ChartEntity, 0)
	}
	if namedRanges == nil {
		namedRanges = make([]NamedRangeEntity, 0)
	}

	entities := Entities{
		DataTables:     tables,
		ScatteredCells: scattered,
		Charts:         charts,
		NamedRanges:    namedRanges,
	}
	entities.Summary = summarize(entities)

	log.Info().
		Int("data_tables", len(entities.DataTables)).
		Int("scattered_cells", len(entities.ScatteredCells)).
		Int("charts", len(entities.Charts)).
		Int("complexity_score", entities.Summary.ComplexityScore).
		Msg("sheet structure analyzed")

	return SheetAnalysis{SheetName: snap.SheetName, SheetID: snap.SheetID, Entities: entities}
}

// nativeEntities projects backend table metadata into entities. A failed
// fetch logs and yields none; native tables enrich the analysis but are not
// a hard dependency for it.
func (a *Analyzer) nativeEntities(snap Snapshot, log zerolog.Logger) []TableEntity {
	if snap.NativeTablesErr != nil {
		log.Warn().Err(snap.NativeTablesErr).Msg("native table metadata unavailable; falling back to pattern detection")
		return nil
	}
	out := make([]TableEntity, 0, len(snap.NativeTables))
	for _, nt := range snap.NativeTables {
		headers := nt.Columns
		if len(headers) == 0 {
			headers = headerRow(snap.Grid, nt.Range)
		}
		out = append(out, TableEntity{
			Name:        nt.Name,
			Type:        TableTypeNative,
			Range:       nt.Range,
			RangeA1:     nt.Range.A1(),
			Headers:     headers,
			HasHeaders:  len(headers) > 0,
			RowCount:    nt.Range.Rows(),
			ColumnCount: nt.Range.Cols(),
		})
	}
	return out
}

// patternEntity builds the entity for an accepted pattern range, numbering
// entities in acceptance order and treating the first row as headers when it
// holds any values.
func patternEntity(grid [][]string, r RangeRef, n int) TableEntity {
	headers := headerRow(grid, r)
	return TableEntity{
		Name:        fmt.Sprintf("Pattern Table %d", n),
		Type:        TableTypePattern,
		Range:       r,
		RangeA1:     r.A1(),
		Headers:     headers,
		HasHeaders:  len(headers) > 0,
		RowCount:    r.Rows(),
		ColumnCount: r.Cols(),
	}
}

// headerRow extracts the trimmed first row of a range from the grid, empty
// when the row is blank or out of bounds.
func headerRow(grid [][]string, r RangeRef) []string {
	if r.StartRow < 0 || r.StartRow >= len(grid) {
		return nil
	}
	row := grid[r.StartRow]
	headers := make([]string, 0, r.Cols())
	for col := r.StartCol; col < r.EndCol && col < len(row); col++ {
		headers = append(headers, strings.TrimSpace(row[col]))
	}
	headers = trimTrailingEmpties(headers)
	if len(headers) == 0 {
		return nil
	}
	return headers
}

// overlappingNames lists native entities whose ranges intersect the
// candidate.
func overlappingNames(r RangeRef, native []TableEntity) []string {
	var names []string
	for _, t := range native {
		if RangesOverlap(r, t.Range) {
			names = append(names, t.Name)
		}
	}
	return names
}
