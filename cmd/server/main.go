package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/sheetstruct/sheetstruct/internal/registry"
	"github.com/sheetstruct/sheetstruct/internal/runtime"
	"github.com/sheetstruct/sheetstruct/internal/security"
	"github.com/sheetstruct/sheetstruct/internal/structure"
	"github.com/sheetstruct/sheetstruct/internal/telemetry"
	"github.com/sheetstruct/sheetstruct/internal/workbooks"
	"github.com/sheetstruct/sheetstruct/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		minTableRows    int
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.IntVar(&minTableRows, "min-table-rows", 0, "Minimum consecutive data rows for pattern tables (0 = default)")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "sheetstruct-server").Logger()
	ctx := logger.WithContext(context.Background())

	// Security: validate allow-list directories on startup (fail-safe on error)
	secMgr, err := security.NewManagerFromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager from env")
		fmt.Fprintln(os.Stderr, "invalid security configuration; set SHEETSTRUCT_ALLOWED_DIRS")
		os.Exit(1)
	}
	if err := secMgr.ValidateConfig(); err != nil {
		logger.Error().Err(err).Msg("security: invalid allow-list configuration")
		fmt.Fprintln(os.Stderr, "no allowed directories configured; set SHEETSTRUCT_ALLOWED_DIRS")
		os.Exit(1)
	}
	logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")

	limits := runtime.NewLimits(0, 0)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController)

	workbookMgr := workbooks.NewManager(0, 0, runtimeController, nil)
	workbookMgr.SetPathValidator(secMgr)
	workbookMgr.Start()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := workbookMgr.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("workbook manager close timed out")
		}
	}()

	toolRegistry := registry.New()

	srv := server.NewMCPServer(
		"Sheet Structure Discovery Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.BuildHooks(logger)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
	)

	analyzerCfg := structure.Config{MinTableRows: minTableRows}
	registry.RegisterStructureTools(srv, toolRegistry, runtimeController.LimitsSnapshot(), workbookMgr, analyzerCfg, logger)

	toolContextSize := toolRegistry.ModelContextSize("gpt-4o")

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_workbooks", limits.MaxOpenWorkbooks).
		Int("model_context_size", toolContextSize).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		if err := server.ServeStdio(srv); err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// If no transport flags provided, print usage and exit non-zero
	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}
