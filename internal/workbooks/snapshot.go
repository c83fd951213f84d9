package workbooks

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sheetstruct/sheetstruct/internal/structure"
	"github.com/xuri/excelize/v2"
)

// BuildSnapshot assembles a structure.Snapshot for one sheet of an open
// workbook: the raw grid plus native table and defined-name metadata.
// Metadata fetch failures are recorded on the snapshot rather than returned,
// so the analyzer can degrade those categories; only an unreadable sheet is
// an error.
//
// Chart metadata is not exposed by the workbook reader; callers fed by a
// backend that tracks charts populate Snapshot.Charts themselves.
func BuildSnapshot(f *excelize.File, sheet string, log zerolog.Logger) (structure.Snapshot, error) {
	name := strings.TrimSpace(sheet)

	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return structure.Snapshot{}, err
	}
	if idx < 0 {
		return structure.Snapshot{}, fmt.Errorf("workbooks: sheet %q does not exist", name)
	}

	grid, err := f.GetRows(name)
	if err != nil {
		return structure.Snapshot{}, fmt.Errorf("workbooks: read sheet %q: %w", name, err)
	}

	snap := structure.Snapshot{
		SheetName: name,
		SheetID:   int64(idx),
		Grid:      grid,
	}

	snap.NativeTables, snap.NativeTablesErr = nativeTables(f, name, log)
	snap.NamedRanges, snap.NamedRangesErr = namedRanges(f, name, log)

	return snap, nil
}

// nativeTables projects the workbook's table objects for the sheet.
func nativeTables(f *excelize.File, sheet string, log zerolog.Logger) ([]structure.NativeTable, error) {
	tables, err := f.GetTables(sheet)
	if err != nil {
		return nil, err
	}
	out := make([]structure.NativeTable, 0, len(tables))
	for _, tbl := range tables {
		rng, perr := structure.RangeRefFromA1(strings.ReplaceAll(tbl.Range, "$", ""))
		if perr != nil {
			log.Warn().Str("table", tbl.Name).Str("range", tbl.Range).Err(perr).
				Msg("skipping native table with unparseable range")
			continue
		}
		out = append(out, structure.NativeTable{
			Name:    tbl.Name,
			TableID: tbl.Name,
			Range:   rng,
		})
	}
	return out, nil
}

// namedRanges projects defined names whose references target the sheet.
// A defined name may cover several areas separated by commas; areas scoped
// to other sheets are filtered out.
func namedRanges(f *excelize.File, sheet string, log zerolog.Logger) ([]structure.NamedRangeEntity, error) {
	out := make([]structure.NamedRangeEntity, 0)
	for _, dn := range f.GetDefinedName() {
		ref := strings.TrimPrefix(strings.TrimSpace(dn.RefersTo), "=")
		if ref == "" {
			continue
		}
		var ranges []structure.RangeRef
		for _, area := range strings.Split(ref, ",") {
			rng, ok := parseArea(area, sheet)
			if !ok {
				continue
			}
			ranges = append(ranges, rng)
		}
		if len(ranges) == 0 {
			continue
		}
		out = append(out, structure.NamedRangeEntity{Name: dn.Name, Ranges: ranges})
	}
	return out, nil
}

// parseArea resolves one "'Sheet'!$A$1:$B$3" area against the target sheet.
func parseArea(area, sheet string) (structure.RangeRef, bool) {
	a := strings.TrimSpace(area)
	if i := strings.Index(a, "!"); i >= 0 {
		s := strings.Trim(a[:i], "'")
		if s != "" && !strings.EqualFold(s, sheet) {
			return structure.RangeRef{}, false
		}
		a = a[i+1:]
	}
	rng, err := structure.RangeRefFromA1(strings.ReplaceAll(a, "$", ""))
	if err != nil {
		return structure.RangeRef{}, false
	}
	return rng, true
}
