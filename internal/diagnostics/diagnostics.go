// Package diagnostics reports process and environment health without
// mutating any state.
package diagnostics

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eduanalytics/schoolsmcp/internal/dataset"
	"github.com/eduanalytics/schoolsmcp/internal/store"
	"github.com/eduanalytics/schoolsmcp/internal/workbooks"
)

// Report is the debug_info payload. StoreReachable is nil when no store is
// configured, true/false otherwise; probe failures are reported as false,
// never raised.
type Report struct {
	ExcelDir       string   `json:"excel_dir"`
	AvailableFiles []string `json:"available_files"`
	LoadedDatasets []string `json:"loaded_datasets"`
	StoreReachable *bool    `json:"store_reachable"`
}

// Reporter assembles diagnostic reports from its injected collaborators.
type Reporter struct {
	ExcelDir string
	Registry *dataset.Registry
	Store    store.Store
	Logger   zerolog.Logger
}

// DebugInfo enumerates available spreadsheet files, registered dataset
// names, and the store reachability probe.
func (r *Reporter) DebugInfo(ctx context.Context) Report {
	report := Report{
		ExcelDir:       r.ExcelDir,
		AvailableFiles: []string{},
		LoadedDatasets: r.Registry.Names(),
	}

	files, err := workbooks.ListFiles(r.ExcelDir)
	if err != nil {
		// Unreadable directory is a finding, not a failure.
		r.Logger.Warn().Err(err).Str("dir", r.ExcelDir).Msg("diagnostics: listing excel dir failed")
	}
	for _, f := range files {
		report.AvailableFiles = append(report.AvailableFiles, f.Name)
	}

	if r.Store != nil && r.Store.Configured() {
		reachable := r.Store.Probe(ctx) == nil
		report.StoreReachable = &reachable
	}
	return report
}
