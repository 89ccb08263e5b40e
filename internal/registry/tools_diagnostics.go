package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/eduanalytics/schoolsmcp/internal/diagnostics"
)

// RegisterDiagnosticsTools wires the debug_info snapshot tool.
func RegisterDiagnosticsTools(s *server.MCPServer, reg *Registry, deps Deps) {
	reporter := &diagnostics.Reporter{
		ExcelDir: deps.ExcelDir,
		Registry: deps.Datasets,
		Store:    deps.Store,
		Logger:   deps.Logger,
	}

	tool := mcp.NewTool(
		"debug_info",
		mcp.WithDescription("Report server health: the configured workbook directory and its available files, the datasets currently registered, and whether the relational store answers a connectivity probe (null when no store is configured). Read-only; never mutates state."),
		mcp.WithOutputSchema[diagnostics.Report](),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report := reporter.DebugInfo(ctx)

		storeState := "unconfigured"
		if report.StoreReachable != nil {
			storeState = fmt.Sprintf("reachable=%v", *report.StoreReachable)
		}
		summary := fmt.Sprintf("dir=%s files=%d datasets=%d store=%s",
			report.ExcelDir, len(report.AvailableFiles), len(report.LoadedDatasets), storeState)
		lines := []string{summary}
		if len(report.AvailableFiles) > 0 {
			lines = append(lines, "files: "+strings.Join(report.AvailableFiles, ", "))
		}
		if len(report.LoadedDatasets) > 0 {
			lines = append(lines, "datasets: "+strings.Join(report.LoadedDatasets, ", "))
		}
		res := mcp.NewToolResultStructured(report, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
		return res, nil
	})
	reg.Register(tool)
}
