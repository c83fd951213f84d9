package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/sheetstruct/sheetstruct/internal/runtime"
	"github.com/sheetstruct/sheetstruct/internal/security"
	"github.com/sheetstruct/sheetstruct/internal/structure"
	"github.com/sheetstruct/sheetstruct/internal/workbooks"
	"github.com/sheetstruct/sheetstruct/pkg/mcperr"
	"github.com/sheetstruct/sheetstruct/pkg/validation"
)

// --- Input / Output schemas (typed for discovery) ---

// OpenWorkbookInput defines parameters for opening a workbook.
type OpenWorkbookInput struct {
	Path string `json:"path" validate:"required,filepath_ext" jsonschema_description:"Absolute or allowed path to a workbook"`
}

// OpenWorkbookOutput documents the response fields for open_workbook.
type OpenWorkbookOutput struct {
	WorkbookID string `json:"workbook_id" jsonschema_description:"Server-assigned workbook handle ID"`
	Path       string `json:"path" jsonschema_description:"Canonical workbook path"`
}

// CloseWorkbookInput defines parameters for closing a workbook handle.
type CloseWorkbookInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID to close"`
}

// CloseWorkbookOutput documents the close_workbook response.
type CloseWorkbookOutput struct {
	Success bool `json:"success" jsonschema_description:"True when the handle was closed"`
}

// SheetInfo summarizes one sheet without loading full data.
type SheetInfo struct {
	Name        string   `json:"name" jsonschema_description:"Sheet name"`
	SheetID     int64    `json:"sheet_id" jsonschema_description:"Sheet index within the workbook"`
	RowCount    int      `json:"row_count" jsonschema_description:"Rows in the used area"`
	ColumnCount int      `json:"column_count" jsonschema_description:"Columns in the widest used row"`
	Headers     []string `json:"headers,omitempty" jsonschema_description:"First-row values when present"`
}

// ListStructureInput defines parameters for workbook structure listing.
type ListStructureInput struct {
	Path string `json:"path" validate:"required,filepath_ext" jsonschema_description:"Absolute or allowed path to a workbook"`
}

// ListStructureOutput summarizes workbook structure.
type ListStructureOutput struct {
	WorkbookID string      `json:"workbook_id"`
	Path       string      `json:"path"`
	Sheets     []SheetInfo `json:"sheets"`
}

// AnalyzeSheetInput defines parameters for sheet structure discovery.
type AnalyzeSheetInput struct {
	Path         string `json:"path" validate:"required,filepath_ext" jsonschema_description:"Absolute or allowed path to a workbook"`
	Sheet        string `json:"sheet" validate:"required" jsonschema_description:"Sheet name to analyze"`
	MinTableRows int    `json:"min_table_rows,omitempty" validate:"omitempty,min=1,max=50" jsonschema_description:"Minimum consecutive data rows for a pattern table (default 2)"`
}

// RegisterStructureTools wires the workbook and structure discovery tools.
func RegisterStructureTools(s *server.MCPServer, reg *Registry, limits runtime.Limits, mgr *workbooks.Manager, cfg structure.Config, logger zerolog.Logger) {
	// open_workbook
	openTool := mcp.NewTool(
		"open_workbook",
		mcp.WithDescription("Open a workbook and return a reusable handle ID. Paths must lie inside an allowed directory; repeated opens of the same path reuse the live handle."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute or allowed path to a workbook (.xlsx, .xlsm, .xltx, .xltm)")),
		mcp.WithOutputSchema[OpenWorkbookOutput](),
	)
	s.AddTool(openTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in OpenWorkbookInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.FromText(msg), nil
		}
		id, canonical, err := mgr.GetOrOpenByPath(ctx, in.Path)
		if err != nil {
			return openError(err), nil
		}
		out := OpenWorkbookOutput{WorkbookID: id, Path: canonical}
		return structuredResult(out, "workbook_id="+id)
	}))
	reg.Register(openTool)

	// close_workbook
	closeTool := mcp.NewTool(
		"close_workbook",
		mcp.WithDescription("Close a previously opened workbook handle and release its capacity slot."),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithOutputSchema[CloseWorkbookOutput](),
	)
	s.AddTool(closeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CloseWorkbookInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.FromText(msg), nil
		}
		if err := mgr.CloseHandle(ctx, in.WorkbookID); err != nil {
			if errors.Is(err, workbooks.ErrHandleNotFound) {
				return mcperr.New(mcperr.InvalidHandle, ""), nil
			}
			return mcperr.Wrapf(mcperr.OpenFailed, "close: %v", err), nil
		}
		return structuredResult(CloseWorkbookOutput{Success: true}, "closed")
	}))
	reg.Register(closeTool)

	// list_structure
	listTool := mcp.NewTool(
		"list_structure",
		mcp.WithDescription("Return workbook structure: sheet names, used dimensions, and first-row headers. No cell data beyond the header row; use analyze_sheet for structure discovery."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute or allowed path to a workbook")),
		mcp.WithOutputSchema[ListStructureOutput](),
	)
	s.AddTool(listTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ListStructureInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.FromText(msg), nil
		}
		id, canonical, err := mgr.GetOrOpenByPath(ctx, in.Path)
		if err != nil {
			return openError(err), nil
		}
		out := ListStructureOutput{WorkbookID: id, Path: canonical}
		err = mgr.WithRead(id, func(f *excelize.File) error {
			for idx, name := range f.GetSheetList() {
				rows, rerr := f.GetRows(name)
				if rerr != nil {
					return rerr
				}
				info := SheetInfo{Name: name, SheetID: int64(idx), RowCount: len(rows)}
				for _, row := range rows {
					if len(row) > info.ColumnCount {
						info.ColumnCount = len(row)
					}
				}
				if len(rows) > 0 {
					info.Headers = trimRow(rows[0])
				}
				out.Sheets = append(out.Sheets, info)
			}
			return nil
		})
		if err != nil {
			return mcperr.Wrapf(mcperr.DiscoveryFailed, "%v", err), nil
		}
		return structuredResult(out, fmt.Sprintf("sheets=%d", len(out.Sheets)))
	}))
	reg.Register(listTool)

	// analyze_sheet
	analyzeTool := mcp.NewTool(
		"analyze_sheet",
		mcp.WithDescription("Discover the semantic structure of one sheet: native and pattern-detected tables, scattered cells with value types and categories, charts, named ranges, and a bounded complexity score. Native table metadata always wins over pattern candidates; metadata fetch failures degrade that category instead of failing the call."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute or allowed path to a workbook")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name to analyze")),
		mcp.WithNumber("min_table_rows", mcp.Min(1), mcp.Max(50), mcp.Description("Minimum consecutive data rows for a pattern table (default 2)")),
		mcp.WithOutputSchema[structure.SheetAnalysis](),
	)
	s.AddTool(analyzeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in AnalyzeSheetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcperr.FromText(msg), nil
		}
		id, _, err := mgr.GetOrOpenByPath(ctx, in.Path)
		if err != nil {
			return openError(err), nil
		}

		var snap structure.Snapshot
		err = mgr.WithRead(id, func(f *excelize.File) error {
			var serr error
			snap, serr = workbooks.BuildSnapshot(f, in.Sheet, logger)
			return serr
		})
		if err != nil {
			if mcperr.IsInvalidSheet(err) {
				return mcperr.New(mcperr.InvalidSheet, ""), nil
			}
			return mcperr.Wrapf(mcperr.SnapshotFailed, "%v", err), nil
		}

		if truncated := boundGrid(&snap, limits.MaxCellsPerOp); truncated {
			logger.Warn().Str("sheet", snap.SheetName).Int("max_cells", limits.MaxCellsPerOp).
				Msg("grid truncated to cell budget before analysis")
		}

		effective := cfg
		if in.MinTableRows > 0 {
			effective.MinTableRows = in.MinTableRows
		}
		out := structure.NewAnalyzer(effective, logger).Analyze(snap)

		summary := fmt.Sprintf("tables=%d scattered=%d charts=%d complexity=%d",
			len(out.Entities.DataTables), len(out.Entities.ScatteredCells),
			len(out.Entities.Charts), out.Entities.Summary.ComplexityScore)
		return structuredResult(out, summary)
	}))
	reg.Register(analyzeTool)
}

// boundGrid trims trailing grid rows until the cell count fits the budget.
// Reports whether anything was dropped.
func boundGrid(snap *structure.Snapshot, maxCells int) bool {
	if maxCells <= 0 {
		return false
	}
	cells := 0
	for i, row := range snap.Grid {
		cells += len(row)
		if cells > maxCells {
			snap.Grid = snap.Grid[:i]
			return true
		}
	}
	return false
}

// structuredResult marshals the output with sonic and attaches both the
// structured payload and a JSON text body for clients that ignore one or
// the other.
func structuredResult(out any, summary string) (*mcp.CallToolResult, error) {
	res := mcp.NewToolResultStructured(out, summary)
	if b, err := sonic.MarshalIndent(out, "", "  "); err == nil {
		res.Content = []mcp.Content{mcp.NewTextContent(string(b))}
	}
	return res, nil
}

// openError maps workbook open failures onto catalog codes.
func openError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, security.ErrNotAllowed), errors.Is(err, security.ErrNotFound):
		return mcperr.Wrapf(mcperr.PermissionDenied, "%v", err)
	case errors.Is(err, security.ErrUnsupportedExtension),
		strings.Contains(err.Error(), "unsupported format"):
		return mcperr.New(mcperr.UnsupportedFormat, "")
	default:
		return mcperr.Wrapf(mcperr.OpenFailed, "%v", err)
	}
}

func trimRow(row []string) []string {
	out := make([]string, 0, len(row))
	for _, v := range row {
		out = append(out, strings.TrimSpace(v))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
