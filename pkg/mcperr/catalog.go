package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & input
	Validation    Code = "VALIDATION"
	InvalidHandle Code = "INVALID_HANDLE"
	InvalidSheet  Code = "INVALID_SHEET"
	InvalidRange  Code = "INVALID_RANGE"

	// Resource & limits
	BusyResource  Code = "BUSY_RESOURCE"
	Timeout       Code = "TIMEOUT"
	LimitExceeded Code = "LIMIT_EXCEEDED"

	// IO & formats
	OpenFailed      Code = "OPEN_FAILED"
	DiscoveryFailed Code = "DISCOVERY_FAILED"

	// Analysis
	SnapshotFailed Code = "SNAPSHOT_FAILED"
	AnalysisFailed Code = "ANALYSIS_FAILED"

	// Integrity
	CorruptWorkbook   Code = "CORRUPT_WORKBOOK"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	PermissionDenied  Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per
// error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	InvalidHandle: {Code: InvalidHandle, Message: "workbook handle not found or expired", Retryable: true, NextSteps: []string{"Reopen the workbook via path and retry"}},
	InvalidSheet:  {Code: InvalidSheet, Message: "sheet not found", Retryable: true, NextSteps: []string{"Call list_structure to verify sheet names", "Check case and spacing"}},
	InvalidRange:  {Code: InvalidRange, Message: "range could not be parsed", Retryable: true, NextSteps: []string{"Use A1 notation such as A1:D50"}},

	BusyResource:  {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:       {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry against a smaller sheet or raise the timeout"}},
	LimitExceeded: {Code: LimitExceeded, Message: "operation exceeded configured limits", Retryable: true, NextSteps: []string{"Reduce the analyzed area"}},

	OpenFailed:      {Code: OpenFailed, Message: "failed to open workbook", Retryable: true, NextSteps: []string{"Verify path, permissions, and format"}},
	DiscoveryFailed: {Code: DiscoveryFailed, Message: "failed to list workbook structure", Retryable: true, NextSteps: []string{"Retry or open the workbook and inspect"}},

	SnapshotFailed: {Code: SnapshotFailed, Message: "failed to snapshot sheet contents", Retryable: true, NextSteps: []string{"Verify the sheet name and retry"}},
	AnalysisFailed: {Code: AnalysisFailed, Message: "structure analysis failed", Retryable: true, NextSteps: []string{"Verify sheet contents and retry"}},

	CorruptWorkbook:   {Code: CorruptWorkbook, Message: "workbook appears corrupt or unreadable", Retryable: false, NextSteps: []string{"Re-save or repair the file and retry"}},
	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported workbook format", Retryable: false, NextSteps: []string{"Convert to .xlsx and retry"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, NextSteps: []string{"Choose a path inside an allowed directory"}},
}

// normalize builds a standard error string including next steps for MCP
// clients that surface only a message. Format: "CODE: message" plus a
// guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a code with an optional message
// override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// FromText parses a "CODE: message" string, enriches it with catalog
// guidance, and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	parts := strings.SplitN(t, ":", 2)
	code := Code(strings.TrimSpace(parts[0]))
	msg := ""
	if len(parts) > 1 {
		msg = strings.TrimSpace(parts[1])
	}
	return mcp.NewToolResultError(normalize(code, msg))
}

// IsInvalidSheet matches common "sheet does not exist" error messages from
// the workbook layer.
func IsInvalidSheet(err error) bool {
	if err == nil {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "doesn't exist") || strings.Contains(low, "does not exist")
}
