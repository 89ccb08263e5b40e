package registry

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eduanalytics/schoolsmcp/internal/analysis"
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
	"github.com/eduanalytics/schoolsmcp/internal/security"
	"github.com/eduanalytics/schoolsmcp/internal/store"
	"github.com/eduanalytics/schoolsmcp/internal/workbooks"
	"github.com/eduanalytics/schoolsmcp/pkg/mcperr"
)

// toolError maps domain sentinel errors onto canonical MCP error results.
// Errors with no sentinel mapping fall back to the given code so each tool
// keeps its own failure signature.
func toolError(err error, fallback mcperr.Code) *mcp.CallToolResult {
	switch {
	case errors.Is(err, workbooks.ErrNotFound), errors.Is(err, security.ErrNotFound):
		return mcperr.New(mcperr.NotFound, err.Error())
	case errors.Is(err, workbooks.ErrSheetNotFound):
		return mcperr.New(mcperr.SheetNotFound, err.Error())
	case errors.Is(err, workbooks.ErrFormat):
		return mcperr.New(mcperr.FormatError, err.Error())
	case errors.Is(err, dataset.ErrNotLoaded):
		return mcperr.New(mcperr.NotLoaded, err.Error())
	case errors.Is(err, analysis.ErrColumnNotFound):
		return mcperr.New(mcperr.ColumnNotFound, err.Error())
	case errors.Is(err, security.ErrNotAllowed), errors.Is(err, security.ErrUnsupportedExtension):
		return mcperr.New(mcperr.Validation, err.Error())
	case errors.Is(err, store.ErrNotConfigured):
		return mcperr.New(mcperr.Connectivity, "no relational store configured; set SCHOOLSMCP_SQL_* and restart")
	case errors.Is(err, context.DeadlineExceeded):
		return mcperr.New(mcperr.Timeout, "")
	}
	return mcperr.New(fallback, err.Error())
}

// datasetNameFor derives a registry key from an explicit name or a filename
// stem with the given prefix.
func datasetNameFor(explicit, filename, prefix string) string {
	if n := strings.TrimSpace(explicit); n != "" {
		return n
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return prefix + "_" + stem
}
