package workbooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eduanalytics/schoolsmcp/internal/dataset"
)

// ErrNotFound indicates the workbook path does not exist.
var ErrNotFound = errors.New("workbooks: file not found")

// ErrFormat indicates the file could not be parsed as a spreadsheet.
var ErrFormat = errors.New("workbooks: unreadable spreadsheet")

// ErrSheetNotFound indicates the sheet selector did not resolve.
var ErrSheetNotFound = errors.New("workbooks: sheet not found")

// PathValidator abstracts filesystem path validation. Implementations return
// a canonical absolute path when allowed, or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Loader materializes spreadsheet sheets as tabular datasets. It only reads
// files; registering the result is the caller's concern.
type Loader struct {
	validator PathValidator
}

// NewLoader constructs a Loader. The validator may be nil in tests.
func NewLoader(validator PathValidator) *Loader {
	return &Loader{validator: validator}
}

// Result carries a loaded dataset plus sheet-level load metadata.
type Result struct {
	Dataset   *dataset.Dataset
	Sheet     string
	Path      string
	TotalRows int // data rows present in the sheet, before truncation
	Truncated bool
}

// Load opens the workbook at path, resolves the sheet selector (name, 1-based
// index, or empty for the first sheet), and builds a dataset from it.
// headerRow is the 1-based header position; 0 selects the first non-empty
// row. maxRows bounds the data rows materialized (0 = unlimited). The
// context is checked between row scans so oversized loads respect the
// operation deadline.
func (l *Loader) Load(ctx context.Context, path, sheet string, headerRow, maxRows int) (*Result, error) {
	canonical := path
	if l.validator != nil {
		p, err := l.validator.ValidateOpenPath(path)
		if err != nil {
			return nil, err
		}
		canonical = p
	}

	f, err := openWorkbook(canonical)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName, err := resolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	headers, rawRows, total, truncated, err := scanSheet(ctx, f, sheetName, headerRow, maxRows)
	if err != nil {
		return nil, err
	}

	return &Result{
		Dataset:   dataset.Build(headers, rawRows),
		Sheet:     sheetName,
		Path:      canonical,
		TotalRows: total,
		Truncated: truncated,
	}, nil
}

// SheetDetail summarizes one sheet for workbook inspection.
type SheetDetail struct {
	Name       string         `json:"name"`
	Rows       int            `json:"rows"`
	Columns    int            `json:"columns"`
	Headers    []string       `json:"headers"`
	NullCounts map[string]int `json:"null_counts"`
	FirstRow   dataset.Row    `json:"first_row,omitempty"`
}

// Info describes a workbook's structure without touching the registry.
type Info struct {
	Path     string        `json:"path"`
	SizeMB   float64       `json:"size_mb"`
	Modified time.Time     `json:"modified"`
	Sheets   []SheetDetail `json:"sheets"`
}

// Inspect reports the structure of every sheet in the workbook.
func (l *Loader) Inspect(ctx context.Context, path string) (*Info, error) {
	canonical := path
	if l.validator != nil {
		p, err := l.validator.ValidateOpenPath(path)
		if err != nil {
			return nil, err
		}
		canonical = p
	}

	st, err := os.Stat(canonical)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}

	f, err := openWorkbook(canonical)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info := &Info{
		Path:     canonical,
		SizeMB:   roundMB(st.Size()),
		Modified: st.ModTime(),
	}
	for _, name := range f.GetSheetList() {
		headers, rawRows, total, _, err := scanSheet(ctx, f, name, 0, 0)
		if err != nil {
			return nil, err
		}
		ds := dataset.Build(headers, rawRows)

		nulls := make(map[string]int, ds.ColumnCount())
		for _, col := range ds.Columns {
			n := 0
			for _, row := range ds.Rows {
				if row[col.Name].IsNull() {
					n++
				}
			}
			nulls[col.Name] = n
		}
		detail := SheetDetail{
			Name:       name,
			Rows:       total,
			Columns:    ds.ColumnCount(),
			Headers:    ds.ColumnNames(),
			NullCounts: nulls,
		}
		if len(ds.Rows) > 0 {
			detail.FirstRow = ds.Rows[0]
		}
		info.Sheets = append(info.Sheets, detail)
	}
	return info, nil
}

// openWorkbook classifies open failures into not-found vs format errors.
func openWorkbook(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrFormat, err)
	}
	return f, nil
}

// resolveSheet maps a selector to a sheet name. Empty selects the first
// sheet; otherwise an exact name is tried, then a 1-based index.
func resolveSheet(f *excelize.File, selector string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets: %w", ErrFormat)
	}
	sel := strings.TrimSpace(selector)
	if sel == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == sel {
			return name, nil
		}
	}
	if idx, err := strconv.Atoi(sel); err == nil {
		if idx >= 1 && idx <= len(sheets) {
			return sheets[idx-1], nil
		}
	}
	return "", fmt.Errorf("%q: %w", selector, ErrSheetNotFound)
}

// scanSheet streams sheet rows, returning the header cells, the bounded data
// rows, the total data row count, and whether truncation occurred.
func scanSheet(ctx context.Context, f *excelize.File, sheet string, headerRow, maxRows int) (headers []string, data [][]string, total int, truncated bool, err error) {
	iter, err := f.Rows(sheet)
	if err != nil {
		if mentionsMissingSheet(err) {
			return nil, nil, 0, false, fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
		}
		return nil, nil, 0, false, err
	}
	defer iter.Close()

	rowIdx := 0
	for iter.Next() {
		rowIdx++
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, false, err
		}
		cells, cerr := iter.Columns()
		if cerr != nil {
			return nil, nil, 0, false, cerr
		}

		if headers == nil {
			switch {
			case headerRow > 0 && rowIdx == headerRow:
				headers = cells
			case headerRow <= 0 && !rowEmpty(cells):
				// default: first non-empty row is the header
				headers = cells
			}
			continue
		}

		total++
		if maxRows > 0 && len(data) >= maxRows {
			truncated = true
			continue
		}
		data = append(data, cells)
	}
	if err := iter.Error(); err != nil {
		return nil, nil, 0, false, err
	}
	if headers == nil {
		headers = []string{}
	}
	return headers, data, total, truncated, nil
}

func rowEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func mentionsMissingSheet(err error) bool {
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "doesn't exist") || strings.Contains(low, "does not exist")
}

func roundMB(size int64) float64 {
	mb := float64(size) / (1024 * 1024)
	return float64(int(mb*100+0.5)) / 100
}
