package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/eduanalytics/schoolsmcp/internal/analysis"
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
	"github.com/eduanalytics/schoolsmcp/internal/store"
	"github.com/eduanalytics/schoolsmcp/internal/workbooks"
	"github.com/eduanalytics/schoolsmcp/pkg/mcperr"
)

func TestRegistryRegisterGet(t *testing.T) {
	r := New()
	r.Register(mcp.NewTool("read_excel_file"))

	tool, ok := r.Get("read_excel_file")
	require.True(t, ok)
	require.Equal(t, "read_excel_file", tool.Name)

	_, ok = r.Get("absent")
	require.False(t, ok)
}

func TestRegistryToolsSorted(t *testing.T) {
	r := New()
	r.Register(mcp.NewTool("debug_info"))
	r.Register(mcp.NewTool("analyze_schools_by_municipality"))
	r.Register(mcp.NewTool("read_schools_data"))

	tools, err := r.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 3)
	require.Equal(t, "analyze_schools_by_municipality", tools[0].Name)
	require.Equal(t, "debug_info", tools[1].Name)
	require.Equal(t, "read_schools_data", tools[2].Name)
}

func errText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestToolErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("x: %w", workbooks.ErrNotFound), "NOT_FOUND"},
		{fmt.Errorf("x: %w", workbooks.ErrSheetNotFound), "SHEET_NOT_FOUND"},
		{fmt.Errorf("x: %w", workbooks.ErrFormat), "FORMAT_ERROR"},
		{fmt.Errorf("x: %w", dataset.ErrNotLoaded), "NOT_LOADED"},
		{fmt.Errorf("x: %w", analysis.ErrColumnNotFound), "COLUMN_NOT_FOUND"},
		{fmt.Errorf("x: %w", store.ErrNotConfigured), "CONNECTIVITY"},
		{context.DeadlineExceeded, "TIMEOUT"},
		{errors.New("disk on fire"), "READ_FAILED"},
	}
	for _, c := range cases {
		text := errText(t, toolError(c.err, mcperr.ReadFailed))
		require.Contains(t, text, c.code)
	}
}

func TestDatasetNameFor(t *testing.T) {
	require.Equal(t, "custom", datasetNameFor(" custom ", "roster.xlsx", "excel"))
	require.Equal(t, "excel_roster", datasetNameFor("", "roster.xlsx", "excel"))
	require.Equal(t, "schools_Centro de Trabajo (1)", datasetNameFor("", "Centro de Trabajo (1).xlsx", "schools"))
}

func TestBoundRows(t *testing.T) {
	require.Equal(t, 1000, boundRows(0, 1000))
	require.Equal(t, 1000, boundRows(5000, 1000))
	require.Equal(t, 20, boundRows(20, 1000))
}

func TestSampleRows(t *testing.T) {
	ds := dataset.Build([]string{"a"}, [][]string{{"1"}, {"2"}, {"3"}})
	require.Len(t, sampleRows(ds, 2), 2)
	require.Len(t, sampleRows(ds, 0), 3)
	require.Len(t, sampleRows(ds, 10), 3)
}
