package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eduanalytics/schoolsmcp/config"
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
	"github.com/eduanalytics/schoolsmcp/internal/registry"
	"github.com/eduanalytics/schoolsmcp/internal/runtime"
	"github.com/eduanalytics/schoolsmcp/internal/security"
	"github.com/eduanalytics/schoolsmcp/internal/store"
	"github.com/eduanalytics/schoolsmcp/internal/telemetry"
	"github.com/eduanalytics/schoolsmcp/internal/workbooks"
	"github.com/eduanalytics/schoolsmcp/pkg/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		excelDir   string
	)

	cmd := &cobra.Command{
		Use:   "schoolsmcp",
		Short: "Schools MCP Server - spreadsheet-resident school roster analysis over MCP",
		Long: `Schools MCP Server exposes Excel-resident school roster exports through the
Model Context Protocol: loading sheets into an in-memory dataset registry,
inspecting workbook structure, profiling columns, and aggregating rosters by
municipality. An optional relational store accepts dataset imports.

The server speaks stdio; point an MCP client at this binary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(configPath, excelDir)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to an optional YAML config file")
	cmd.Flags().StringVar(&excelDir, "excel-dir", "", "Directory holding workbook files (overrides config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version())
		},
	})

	return cmd
}

func runServer(configPath, excelDir string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zlog.With().Str("service", "schoolsmcp-server").Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("configuration failed")
		return err
	}
	if excelDir != "" {
		cfg.ExcelDir = excelDir
	}

	secMgr, err := security.NewManager(cfg.ExcelDir, nil)
	if err != nil {
		logger.Error().Err(err).Str("dir", cfg.ExcelDir).Msg("security: failed to initialize path manager")
		return err
	}
	logger.Info().Str("excel_dir", secMgr.Dir()).Msg("workbook directory configured")

	st, err := store.New(cfg.Store, cfg.StoreProbeTimeout.Std())
	if err != nil {
		logger.Error().Err(err).Msg("store: failed to open")
		return err
	}
	defer st.Close()

	limits := runtime.NewLimits(cfg)
	controller := runtime.NewController(limits)
	middleware := runtime.NewMiddleware(controller).WithLogger(logger)

	deps := registry.Deps{
		Limits:   limits,
		Loader:   workbooks.NewLoader(secMgr),
		Datasets: dataset.NewRegistry(),
		Store:    st,
		ExcelDir: secMgr.Dir(),
		Logger:   logger,
	}
	toolRegistry := registry.New()

	srv := server.NewMCPServer(
		"Schools MCP Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.BuildHooks(logger)),
		server.WithToolHandlerMiddleware(middleware.ToolMiddleware),
	)

	registry.RegisterExcelTools(srv, toolRegistry, deps)
	registry.RegisterSchoolsTools(srv, toolRegistry, deps)
	registry.RegisterDiagnosticsTools(srv, toolRegistry, deps)

	logger.Info().
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_rows_per_read", limits.MaxRowsPerRead).
		Bool("store_configured", st.Configured()).
		Msg("server bootstrap configured")

	return server.ServeStdio(srv)
}
