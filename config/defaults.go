package config

import "time"

// Default runtime limits and guardrails for the structure discovery server.
// These values are conservative and can be overridden by flags or env. They
// are referenced by internal/runtime and internal/workbooks.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenWorkbooks      = 4

	// Payload and cell limits
	DefaultMaxPayloadBytes = 128 * 1024 // 128KB
	DefaultMaxCellsPerOp   = 10_000
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
)

const (
	// Workbook handle lifecycle
	DefaultWorkbookIdleTTL       = 10 * time.Minute
	DefaultWorkbookCleanupPeriod = 1 * time.Minute
)

// DefaultMinTableRows is the minimum number of consecutive non-empty rows a
// run must span before it is reported as a pattern table. Single isolated
// rows fall through to scattered-cell classification. Policy knob, not a
// hard limit; callers may override per analysis.
const DefaultMinTableRows = 2
