package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/eduanalytics/schoolsmcp/config"
	"github.com/eduanalytics/schoolsmcp/internal/analysis"
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
	"github.com/eduanalytics/schoolsmcp/internal/store"
	"github.com/eduanalytics/schoolsmcp/pkg/mcperr"
	"github.com/eduanalytics/schoolsmcp/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// ReadSchoolsDataInput defines parameters for loading a school roster export.
type ReadSchoolsDataInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Roster workbook filename within the configured directory"`
	Sheet     string `json:"sheet,omitempty" jsonschema_description:"Sheet name or 1-based index; defaults to the first sheet"`
	Dataset   string `json:"dataset,omitempty" validate:"omitempty,dataset_name" jsonschema_description:"Registry name for the dataset; defaults to schools_<filename stem>"`
	MaxRows   int    `json:"max_rows,omitempty" validate:"omitempty,gte=1" jsonschema_description:"Max data rows to load (bounded by server limits)"`
	HeaderRow int    `json:"header_row,omitempty" validate:"omitempty,gte=1" jsonschema_description:"1-based header row; defaults to 3 for SEP roster exports"`
}

// ReadSchoolsDataOutput documents the response for read_schools_data.
type ReadSchoolsDataOutput struct {
	Dataset         string                  `json:"dataset" jsonschema_description:"Registry name the roster was stored under"`
	LoadID          string                  `json:"load_id"`
	Filename        string                  `json:"filename"`
	Sheet           string                  `json:"sheet"`
	Columns         []dataset.Column        `json:"columns"`
	DetectedColumns analysis.SchoolsColumns `json:"detected_columns" jsonschema_description:"Auto-detected municipality, level, enrollment, and sustainment columns"`
	Stats           analysis.SchoolsStats   `json:"stats" jsonschema_description:"Automatic breakdowns over the detected columns"`
	Preview         []dataset.Row           `json:"preview"`
	Meta            LoadMeta                `json:"meta"`
}

// AnalyzeByMunicipalityInput defines parameters for the regional aggregation.
type AnalyzeByMunicipalityInput struct {
	Dataset           string `json:"dataset" validate:"required,dataset_name" jsonschema_description:"Name of a previously loaded dataset"`
	RegionColumn      string `json:"region_column,omitempty" jsonschema_description:"Grouping column; auto-detected when omitted"`
	LevelColumn       string `json:"level_column,omitempty" jsonschema_description:"Educational-level breakdown column; auto-detected when omitted"`
	SustainmentColumn string `json:"sustainment_column,omitempty" jsonschema_description:"Sustainment breakdown column; auto-detected when omitted"`
}

// RegionHighlight names the extreme regions of an aggregation.
type RegionHighlight struct {
	Region  string `json:"region"`
	Records int    `json:"records"`
}

// AnalyzeByMunicipalityOutput documents the regional aggregation response.
type AnalyzeByMunicipalityOutput struct {
	Dataset      string                     `json:"dataset"`
	RegionColumn string                     `json:"region_column" jsonschema_description:"Column the aggregation grouped on"`
	TotalRegions int                        `json:"total_regions"`
	TotalRecords int                        `json:"total_records" jsonschema_description:"Sum across all regions; equals the dataset row count"`
	Most         *RegionHighlight           `json:"most_records,omitempty"`
	Fewest       *RegionHighlight           `json:"fewest_records,omitempty"`
	Regions      []analysis.RegionalSummary `json:"regions" jsonschema_description:"Per-region summaries, descending by record count"`
}

// ListLoadedDatasetsOutput enumerates the registry contents.
type ListLoadedDatasetsOutput struct {
	TotalDatasets int               `json:"total_datasets"`
	Datasets      []dataset.Summary `json:"datasets" jsonschema_description:"Registered datasets in load order"`
}

// UnloadDatasetInput defines parameters for releasing a registered dataset.
type UnloadDatasetInput struct {
	Dataset string `json:"dataset" validate:"required,dataset_name" jsonschema_description:"Name of the dataset to unload"`
}

// UnloadDatasetOutput reports whether an entry was released.
type UnloadDatasetOutput struct {
	Dataset string `json:"dataset"`
	Removed bool   `json:"removed" jsonschema_description:"False when no dataset was registered under the name"`
}

// ImportSchoolsInput defines parameters for exporting a dataset to the store.
type ImportSchoolsInput struct {
	Dataset string `json:"dataset" validate:"required,dataset_name" jsonschema_description:"Name of a previously loaded dataset"`
	Table   string `json:"table,omitempty" validate:"omitempty,dataset_name" jsonschema_description:"Target table name; derived from the dataset name when omitted"`
}

// ImportSchoolsOutput documents the store import response.
type ImportSchoolsOutput struct {
	Dataset     string `json:"dataset"`
	Table       string `json:"table" jsonschema_description:"Store table the rows were written to"`
	RowsWritten int    `json:"rows_written"`
}

// RegisterSchoolsTools wires the roster-aware tools: the convenience loader,
// the regional aggregation, registry listing and unload, and the store import.
func RegisterSchoolsTools(s *server.MCPServer, reg *Registry, deps Deps) {
	// read_schools_data
	readTool := mcp.NewTool(
		"read_schools_data",
		mcp.WithDescription("Load a school roster export into the dataset registry with roster-aware defaults: headers on row 3 (SEP centros-de-trabajo layout), automatic detection of the municipality, educational level, enrollment, and sustainment columns, and immediate breakdowns over them. The dataset registers under schools_<filename stem> unless a name is given."),
		mcp.WithInputSchema[ReadSchoolsDataInput](),
		mcp.WithOutputSchema[ReadSchoolsDataOutput](),
	)
	s.AddTool(readTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ReadSchoolsDataInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		maxRows := boundRows(in.MaxRows, deps.Limits.MaxRowsPerRead)
		headerRow := in.HeaderRow
		if headerRow <= 0 {
			headerRow = config.DefaultSchoolsHeaderRow
		}

		result, err := deps.Loader.Load(ctx, in.Filename, in.Sheet, headerRow, maxRows)
		if err != nil {
			return toolError(err, mcperr.ReadFailed), nil
		}

		name := datasetNameFor(in.Dataset, in.Filename, "schools")
		loadID := uuid.NewString()
		deps.Datasets.Put(dataset.NewEntry(name, loadID, result.Path, result.Sheet, time.Now().UTC(), result.Dataset))

		cols := analysis.DetectSchoolsColumns(result.Dataset)
		stats := analysis.AutoStats(result.Dataset, cols)
		deps.Logger.Info().
			Str("dataset", name).
			Str("load_id", loadID).
			Int("rows", result.Dataset.RowCount()).
			Str("region_column", cols.Region).
			Msg("schools dataset loaded")

		out := ReadSchoolsDataOutput{
			Dataset:         name,
			LoadID:          loadID,
			Filename:        in.Filename,
			Sheet:           result.Sheet,
			Columns:         result.Dataset.Columns,
			DetectedColumns: cols,
			Stats:           stats,
			Preview:         sampleRows(result.Dataset, deps.Limits.SampleRowLimit),
			Meta: LoadMeta{
				RowsLoaded: result.Dataset.RowCount(),
				TotalRows:  result.TotalRows,
				Truncated:  result.Truncated,
			},
		}
		summary := fmt.Sprintf("dataset=%s rows=%d cols=%d region_col=%q level_col=%q truncated=%v",
			name, out.Meta.RowsLoaded, len(out.Columns), cols.Region, cols.Level, out.Meta.Truncated)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(readTool)

	// analyze_schools_by_municipality
	analyzeTool := mcp.NewTool(
		"analyze_schools_by_municipality",
		mcp.WithDescription("Group a loaded dataset by municipality and break each group down by educational level and sustainment type. Columns are auto-detected from the roster headers unless named explicitly; rows with a blank municipality land in the 'unspecified' bucket so totals always match the dataset row count. Results are sorted by record count, descending. Errors include NOT_LOADED and COLUMN_NOT_FOUND."),
		mcp.WithInputSchema[AnalyzeByMunicipalityInput](),
		mcp.WithOutputSchema[AnalyzeByMunicipalityOutput](),
	)
	s.AddTool(analyzeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in AnalyzeByMunicipalityInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		entry, err := deps.Datasets.Get(in.Dataset)
		if err != nil {
			return toolError(err, mcperr.NotLoaded), nil
		}

		detected := analysis.DetectSchoolsColumns(entry.Dataset)
		regionCol := strings.TrimSpace(in.RegionColumn)
		if regionCol == "" {
			regionCol = detected.Region
		}
		if regionCol == "" {
			return mcperr.New(mcperr.ColumnNotFound, "no municipality column detected; pass region_column"), nil
		}
		levelCol := strings.TrimSpace(in.LevelColumn)
		if levelCol == "" {
			levelCol = detected.Level
		}
		sustainCol := strings.TrimSpace(in.SustainmentColumn)
		if sustainCol == "" {
			sustainCol = detected.Sustainment
		}

		regions, err := analysis.AggregateByRegion(entry.Dataset, regionCol, levelCol, sustainCol)
		if err != nil {
			return toolError(err, mcperr.AnalysisFailed), nil
		}

		out := AnalyzeByMunicipalityOutput{
			Dataset:      in.Dataset,
			RegionColumn: regionCol,
			TotalRegions: len(regions),
			Regions:      regions,
		}
		for _, r := range regions {
			out.TotalRecords += r.TotalRecords
		}
		if len(regions) > 0 {
			first, last := regions[0], regions[len(regions)-1]
			out.Most = &RegionHighlight{Region: first.Region, Records: first.TotalRecords}
			out.Fewest = &RegionHighlight{Region: last.Region, Records: last.TotalRecords}
		}

		summary := fmt.Sprintf("dataset=%s regions=%d records=%d group_by=%q",
			in.Dataset, out.TotalRegions, out.TotalRecords, regionCol)
		lines := []string{summary}
		maxLines := len(regions)
		if maxLines > 10 {
			maxLines = 10
		}
		for i := 0; i < maxLines; i++ {
			lines = append(lines, fmt.Sprintf("- %s: %d", regions[i].Region, regions[i].TotalRecords))
		}
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
		return res, nil
	}))
	reg.Register(analyzeTool)

	// list_loaded_datasets
	listTool := mcp.NewTool(
		"list_loaded_datasets",
		mcp.WithDescription("List every dataset currently registered in this server session, in load order, with source path, sheet, dimensions, and load time."),
		mcp.WithOutputSchema[ListLoadedDatasetsOutput](),
	)
	s.AddTool(listTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		datasets := deps.Datasets.List()
		out := ListLoadedDatasetsOutput{TotalDatasets: len(datasets), Datasets: datasets}
		summary := fmt.Sprintf("datasets=%d", out.TotalDatasets)
		lines := []string{summary}
		for _, d := range datasets {
			lines = append(lines, fmt.Sprintf("- %s: rows=%d cols=%d sheet=%s", d.Name, d.RowCount, d.ColumnCount, d.Sheet))
		}
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
		return res, nil
	})
	reg.Register(listTool)

	// unload_dataset
	unloadTool := mcp.NewTool(
		"unload_dataset",
		mcp.WithDescription("Release a registered dataset and its memory. Unloading a name that is not registered is reported, not an error."),
		mcp.WithInputSchema[UnloadDatasetInput](),
		mcp.WithOutputSchema[UnloadDatasetOutput](),
	)
	s.AddTool(unloadTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in UnloadDatasetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		removed := deps.Datasets.Remove(in.Dataset)
		out := UnloadDatasetOutput{Dataset: in.Dataset, Removed: removed}
		summary := fmt.Sprintf("dataset=%s removed=%v", in.Dataset, removed)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(unloadTool)

	// import_schools_to_store
	importTool := mcp.NewTool(
		"import_schools_to_store",
		mcp.WithDescription("Write a registered dataset's rows into the configured relational store, replacing the table contents. The target table derives from the dataset name unless named explicitly; table schemas are owned by the database side. Errors include NOT_LOADED and CONNECTIVITY (store unconfigured or unreachable)."),
		mcp.WithInputSchema[ImportSchoolsInput](),
		mcp.WithOutputSchema[ImportSchoolsOutput](),
	)
	s.AddTool(importTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ImportSchoolsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		entry, err := deps.Datasets.Get(in.Dataset)
		if err != nil {
			return toolError(err, mcperr.NotLoaded), nil
		}
		key := strings.TrimSpace(in.Table)
		if key == "" {
			key = in.Dataset
		}
		written, err := deps.Store.UpsertRows(ctx, key, entry.Dataset)
		if err != nil {
			deps.Logger.Error().Err(err).Str("dataset", in.Dataset).Msg("store import failed")
			return toolError(err, mcperr.Connectivity), nil
		}
		table := store.TableName(key)
		deps.Logger.Info().
			Str("dataset", in.Dataset).
			Str("table", table).
			Int("rows", written).
			Msg("dataset imported to store")

		out := ImportSchoolsOutput{Dataset: in.Dataset, Table: table, RowsWritten: written}
		summary := fmt.Sprintf("dataset=%s table=%s rows=%d", in.Dataset, table, written)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(importTool)
}
