package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation     Code = "VALIDATION"
	NotFound       Code = "NOT_FOUND"
	SheetNotFound  Code = "SHEET_NOT_FOUND"
	NotLoaded      Code = "NOT_LOADED"
	ColumnNotFound Code = "COLUMN_NOT_FOUND"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// IO & Formats
	FormatError Code = "FORMAT_ERROR"
	ReadFailed  Code = "READ_FAILED"

	// Store
	Connectivity Code = "CONNECTIVITY"

	// Analysis
	AnalysisFailed Code = "ANALYSIS_FAILED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:     {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},
	NotFound:       {Code: NotFound, Message: "file not found", Retryable: true, NextSteps: []string{"Call list_excel_files to see available files", "Check the filename spelling"}},
	SheetNotFound:  {Code: SheetNotFound, Message: "sheet not found", Retryable: true, NextSteps: []string{"Call get_excel_info to verify sheet names", "Check case and spacing"}},
	NotLoaded:      {Code: NotLoaded, Message: "dataset not loaded", Retryable: true, NextSteps: []string{"Call list_loaded_datasets to see registered names", "Load the file with read_excel_file or read_schools_data first"}},
	ColumnNotFound: {Code: ColumnNotFound, Message: "column not present in dataset", Retryable: true, NextSteps: []string{"Check column names via read_excel_file", "Omit the column argument to use auto-detection"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Reduce max_rows or pick a smaller file", "Retry once the server is less busy"}},

	FormatError: {Code: FormatError, Message: "file is not a readable spreadsheet", Retryable: false, NextSteps: []string{"Re-save the file as .xlsx and retry", "Provide a clean copy"}},
	ReadFailed:  {Code: ReadFailed, Message: "failed to read sheet data", Retryable: true, NextSteps: []string{"Verify the sheet and header_row and retry"}},

	Connectivity: {Code: Connectivity, Message: "relational store unreachable", Retryable: true, NextSteps: []string{"Check store credentials and network", "Run debug_info to see the reachability probe"}},

	AnalysisFailed: {Code: AnalysisFailed, Message: "analysis failed", Retryable: true, NextSteps: []string{"Verify the dataset and column arguments"}},
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		// Unknown code; preserve as-is
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	// Append compact nextSteps guidance inline to aid clients lacking structured fields.
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// IsSheetNotFound returns true if an error matches common excelize "sheet does not exist" messages.
func IsSheetNotFound(err error) bool {
	if err == nil {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "doesn't exist") || strings.Contains(low, "does not exist")
}
