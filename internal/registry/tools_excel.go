package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/eduanalytics/schoolsmcp/internal/analysis"
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
	"github.com/eduanalytics/schoolsmcp/internal/workbooks"
	"github.com/eduanalytics/schoolsmcp/pkg/mcperr"
	"github.com/eduanalytics/schoolsmcp/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// ListExcelFilesOutput enumerates workbooks available in the configured directory.
type ListExcelFilesOutput struct {
	Directory  string               `json:"directory" jsonschema_description:"Directory scanned for workbooks"`
	TotalFiles int                  `json:"total_files" jsonschema_description:"Number of workbooks found"`
	Files      []workbooks.FileInfo `json:"files" jsonschema_description:"Workbooks sorted newest first"`
}

// ReadExcelFileInput defines parameters for loading a workbook sheet into the registry.
type ReadExcelFileInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename within the configured directory (.xlsx, .xlsm, .xltx, .xltm)"`
	Sheet     string `json:"sheet,omitempty" jsonschema_description:"Sheet name or 1-based index; defaults to the first sheet"`
	Dataset   string `json:"dataset,omitempty" validate:"omitempty,dataset_name" jsonschema_description:"Registry name for the loaded dataset; defaults to excel_<filename stem>"`
	MaxRows   int    `json:"max_rows,omitempty" validate:"omitempty,gte=1" jsonschema_description:"Max data rows to load (bounded by server limits)"`
	HeaderRow int    `json:"header_row,omitempty" validate:"omitempty,gte=1" jsonschema_description:"1-based header row; defaults to the first non-empty row"`
}

// LoadMeta captures row accounting for a dataset load.
type LoadMeta struct {
	RowsLoaded int  `json:"rows_loaded" jsonschema_description:"Data rows materialized into the registry"`
	TotalRows  int  `json:"total_rows" jsonschema_description:"Data rows present in the sheet"`
	Truncated  bool `json:"truncated" jsonschema_description:"True when the sheet exceeded the row bound"`
}

// ReadExcelFileOutput documents the response for read_excel_file.
type ReadExcelFileOutput struct {
	Dataset  string           `json:"dataset" jsonschema_description:"Registry name the dataset was stored under"`
	LoadID   string           `json:"load_id" jsonschema_description:"Server-assigned load identifier"`
	Filename string           `json:"filename"`
	Sheet    string           `json:"sheet"`
	Columns  []dataset.Column `json:"columns" jsonschema_description:"Column names with inferred types, in source order"`
	Preview  []dataset.Row    `json:"preview" jsonschema_description:"Up to the configured sample of leading rows"`
	Meta     LoadMeta         `json:"meta"`
}

// GetExcelInfoInput defines parameters for workbook inspection.
type GetExcelInfoInput struct {
	Filename string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename within the configured directory"`
}

// GetExcelInfoOutput summarizes workbook structure without loading data.
type GetExcelInfoOutput struct {
	Filename    string                  `json:"filename"`
	Path        string                  `json:"path" jsonschema_description:"Canonical path the server resolved"`
	SizeMB      float64                 `json:"size_mb"`
	Modified    time.Time               `json:"modified"`
	TotalSheets int                     `json:"total_sheets"`
	Sheets      []workbooks.SheetDetail `json:"sheets"`
}

// ExcelSummaryInput defines parameters for ad-hoc schema profiling.
type ExcelSummaryInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename within the configured directory"`
	Sheet     string `json:"sheet,omitempty" jsonschema_description:"Sheet name or 1-based index; defaults to the first sheet"`
	HeaderRow int    `json:"header_row,omitempty" validate:"omitempty,gte=1" jsonschema_description:"1-based header row; defaults to the first non-empty row"`
}

// ExcelSummaryOutput documents the per-column profile of one sheet.
type ExcelSummaryOutput struct {
	Filename   string                   `json:"filename"`
	Sheet      string                   `json:"sheet"`
	Rows       int                      `json:"rows" jsonschema_description:"Data rows profiled"`
	Columns    int                      `json:"columns"`
	Truncated  bool                     `json:"truncated" jsonschema_description:"True when profiling sampled a bounded prefix of the sheet"`
	Profiles   []analysis.ColumnProfile `json:"profiles"`
	AnalyzedAt time.Time                `json:"analyzed_at"`
}

// RegisterExcelTools wires the generic workbook tools: directory listing,
// dataset loading, structure inspection, and schema profiling.
func RegisterExcelTools(s *server.MCPServer, reg *Registry, deps Deps) {
	// list_excel_files
	listTool := mcp.NewTool(
		"list_excel_files",
		mcp.WithDescription("List Excel workbooks available in the server's configured directory, newest first, with size and modification time. Use this first to discover exact filenames for the other tools."),
		mcp.WithOutputSchema[ListExcelFilesOutput](),
	)
	s.AddTool(listTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		files, err := workbooks.ListFiles(deps.ExcelDir)
		if err != nil {
			return toolError(err, mcperr.ReadFailed), nil
		}
		if files == nil {
			files = []workbooks.FileInfo{}
		}
		out := ListExcelFilesOutput{Directory: deps.ExcelDir, TotalFiles: len(files), Files: files}
		summary := fmt.Sprintf("files=%d dir=%s", out.TotalFiles, out.Directory)
		lines := []string{summary}
		for _, f := range files {
			lines = append(lines, fmt.Sprintf("- %s (%.2f MB, modified %s)", f.Name, f.SizeMB, f.Modified.Format("2006-01-02")))
		}
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
		return res, nil
	})
	reg.Register(listTool)

	// read_excel_file
	readTool := mcp.NewTool(
		"read_excel_file",
		mcp.WithDescription("Load a workbook sheet into the in-memory dataset registry and return its typed columns plus a bounded row preview. The dataset stays registered under the returned name for later analysis; reloading the same name replaces it. Row loads are capped by server limits; errors include NOT_FOUND, SHEET_NOT_FOUND, and FORMAT_ERROR."),
		mcp.WithInputSchema[ReadExcelFileInput](),
		mcp.WithOutputSchema[ReadExcelFileOutput](),
	)
	s.AddTool(readTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ReadExcelFileInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		maxRows := boundRows(in.MaxRows, deps.Limits.MaxRowsPerRead)

		result, err := deps.Loader.Load(ctx, in.Filename, in.Sheet, in.HeaderRow, maxRows)
		if err != nil {
			return toolError(err, mcperr.ReadFailed), nil
		}

		name := datasetNameFor(in.Dataset, in.Filename, "excel")
		loadID := uuid.NewString()
		deps.Datasets.Put(dataset.NewEntry(name, loadID, result.Path, result.Sheet, time.Now().UTC(), result.Dataset))
		deps.Logger.Info().
			Str("dataset", name).
			Str("load_id", loadID).
			Str("sheet", result.Sheet).
			Int("rows", result.Dataset.RowCount()).
			Bool("truncated", result.Truncated).
			Msg("dataset loaded")

		out := ReadExcelFileOutput{
			Dataset:  name,
			LoadID:   loadID,
			Filename: in.Filename,
			Sheet:    result.Sheet,
			Columns:  result.Dataset.Columns,
			Preview:  sampleRows(result.Dataset, deps.Limits.SampleRowLimit),
			Meta: LoadMeta{
				RowsLoaded: result.Dataset.RowCount(),
				TotalRows:  result.TotalRows,
				Truncated:  result.Truncated,
			},
		}
		summary := fmt.Sprintf("dataset=%s sheet=%s rows=%d cols=%d truncated=%v",
			name, result.Sheet, out.Meta.RowsLoaded, len(out.Columns), out.Meta.Truncated)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(readTool)

	// get_excel_info
	infoTool := mcp.NewTool(
		"get_excel_info",
		mcp.WithDescription("Inspect a workbook's structure without registering anything: every sheet's dimensions, headers, per-column null counts, and a first-row sample. Use before loading to pick the right sheet and header row."),
		mcp.WithInputSchema[GetExcelInfoInput](),
		mcp.WithOutputSchema[GetExcelInfoOutput](),
	)
	s.AddTool(infoTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in GetExcelInfoInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		info, err := deps.Loader.Inspect(ctx, in.Filename)
		if err != nil {
			return toolError(err, mcperr.ReadFailed), nil
		}
		out := GetExcelInfoOutput{
			Filename:    in.Filename,
			Path:        info.Path,
			SizeMB:      info.SizeMB,
			Modified:    info.Modified,
			TotalSheets: len(info.Sheets),
			Sheets:      info.Sheets,
		}
		summary := fmt.Sprintf("file=%s sheets=%d size_mb=%.2f", in.Filename, out.TotalSheets, out.SizeMB)
		lines := []string{summary}
		for _, sh := range info.Sheets {
			lines = append(lines, fmt.Sprintf("- %s: rows=%d cols=%d", sh.Name, sh.Rows, sh.Columns))
		}
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
		return res, nil
	}))
	reg.Register(infoTool)

	// excel_summary
	summaryTool := mcp.NewTool(
		"excel_summary",
		mcp.WithDescription("Profile one sheet column by column: inferred type, null count, distinct count, min/max for numeric and date columns, and the most frequent values for text columns. Reads the file directly and does not touch the dataset registry. Profiling samples a bounded row prefix on very large sheets."),
		mcp.WithInputSchema[ExcelSummaryInput](),
		mcp.WithOutputSchema[ExcelSummaryOutput](),
	)
	s.AddTool(summaryTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ExcelSummaryInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		result, err := deps.Loader.Load(ctx, in.Filename, in.Sheet, in.HeaderRow, deps.Limits.MaxRowsPerRead)
		if err != nil {
			return toolError(err, mcperr.ReadFailed), nil
		}
		out := ExcelSummaryOutput{
			Filename:   in.Filename,
			Sheet:      result.Sheet,
			Rows:       result.Dataset.RowCount(),
			Columns:    result.Dataset.ColumnCount(),
			Truncated:  result.Truncated,
			Profiles:   analysis.Profile(result.Dataset),
			AnalyzedAt: time.Now().UTC(),
		}
		summary := fmt.Sprintf("file=%s sheet=%s rows=%d cols=%d truncated=%v",
			in.Filename, out.Sheet, out.Rows, out.Columns, out.Truncated)
		lines := []string{summary}
		for _, p := range out.Profiles {
			lines = append(lines, fmt.Sprintf("- %s type=%s nulls=%d distinct=%d", p.Column, p.Type, p.NullCount, p.DistinctCount))
		}
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
		return res, nil
	}))
	reg.Register(summaryTool)
}

// boundRows clamps a requested row count to the configured ceiling.
func boundRows(requested, limit int) int {
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

// sampleRows returns up to limit leading rows for previews.
func sampleRows(ds *dataset.Dataset, limit int) []dataset.Row {
	if limit <= 0 || limit > len(ds.Rows) {
		limit = len(ds.Rows)
	}
	out := make([]dataset.Row, limit)
	copy(out, ds.Rows[:limit])
	return out
}
