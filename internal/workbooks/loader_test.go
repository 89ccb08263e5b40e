package workbooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eduanalytics/schoolsmcp/internal/dataset"
)

type sheetFixture struct {
	name string
	rows [][]any
}

func writeWorkbook(t *testing.T, path string, sheets []sheetFixture) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, sh := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), sh.name))
		} else {
			_, err := f.NewSheet(sh.name)
			require.NoError(t, err)
		}
		for r, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sh.name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func rosterPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	writeWorkbook(t, path, []sheetFixture{
		{
			name: "Centros",
			rows: [][]any{
				{"name", "municipio", "matricula"},
				{"Escuela A", "Monterrey", 120},
				{"Escuela B", "Apodaca", 85},
				{"Escuela C", "", 40},
			},
		},
		{
			name: "Notas",
			rows: [][]any{
				{"nota"},
				{"capturado en marzo"},
			},
		},
	})
	return path
}

func TestLoadFirstSheetByDefault(t *testing.T) {
	l := NewLoader(nil)
	res, err := l.Load(context.Background(), rosterPath(t), "", 1, 0)
	require.NoError(t, err)

	require.Equal(t, "Centros", res.Sheet)
	require.Equal(t, 3, res.TotalRows)
	require.False(t, res.Truncated)
	require.Equal(t, []string{"name", "municipio", "matricula"}, res.Dataset.ColumnNames())

	col, ok := res.Dataset.Column("matricula")
	require.True(t, ok)
	require.Equal(t, dataset.TypeInteger, col.Type)
	require.Equal(t, int64(120), res.Dataset.Rows[0]["matricula"].Int)
	require.True(t, res.Dataset.Rows[2]["municipio"].IsNull())
}

func TestLoadSheetSelector(t *testing.T) {
	l := NewLoader(nil)
	path := rosterPath(t)

	res, err := l.Load(context.Background(), path, "Notas", 1, 0)
	require.NoError(t, err)
	require.Equal(t, "Notas", res.Sheet)
	require.Equal(t, 1, res.TotalRows)

	// 1-based index selects the same sheet.
	res, err = l.Load(context.Background(), path, "2", 1, 0)
	require.NoError(t, err)
	require.Equal(t, "Notas", res.Sheet)

	_, err = l.Load(context.Background(), path, "Resumen", 1, 0)
	require.ErrorIs(t, err, ErrSheetNotFound)
}

func TestLoadHeaderRowOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banner.xlsx")
	writeWorkbook(t, path, []sheetFixture{{
		name: "Hoja1",
		rows: [][]any{
			{"SECRETARIA DE EDUCACION"},
			{"Corte 2024"},
			{"cct", "municipio"},
			{"19DPR0001A", "Monterrey"},
		},
	}})

	l := NewLoader(nil)
	res, err := l.Load(context.Background(), path, "", 3, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"cct", "municipio"}, res.Dataset.ColumnNames())
	require.Equal(t, 1, res.TotalRows)
}

func TestLoadDefaultHeaderSkipsBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.xlsx")
	writeWorkbook(t, path, []sheetFixture{{
		name: "Hoja1",
		rows: [][]any{
			{"", ""},
			{"cct", "municipio"},
			{"19DPR0001A", "Monterrey"},
		},
	}})

	l := NewLoader(nil)
	res, err := l.Load(context.Background(), path, "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"cct", "municipio"}, res.Dataset.ColumnNames())
	require.Equal(t, 1, res.TotalRows)
}

func TestLoadMaxRowsTruncates(t *testing.T) {
	l := NewLoader(nil)
	res, err := l.Load(context.Background(), rosterPath(t), "", 1, 2)
	require.NoError(t, err)

	require.True(t, res.Truncated)
	require.Equal(t, 3, res.TotalRows)
	require.Equal(t, 2, res.Dataset.RowCount())
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(nil)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), "", 1, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	l := NewLoader(nil)
	_, err := l.Load(context.Background(), path, "", 1, 0)
	require.ErrorIs(t, err, ErrFormat)
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(nil)
	_, err := l.Load(ctx, rosterPath(t), "", 1, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestInspect(t *testing.T) {
	l := NewLoader(nil)
	info, err := l.Inspect(context.Background(), rosterPath(t))
	require.NoError(t, err)

	require.Greater(t, info.SizeMB, 0.0)
	require.False(t, info.Modified.IsZero())
	require.Len(t, info.Sheets, 2)

	centros := info.Sheets[0]
	require.Equal(t, "Centros", centros.Name)
	require.Equal(t, 3, centros.Rows)
	require.Equal(t, 3, centros.Columns)
	require.Equal(t, []string{"name", "municipio", "matricula"}, centros.Headers)
	require.Equal(t, 1, centros.NullCounts["municipio"])
	require.Equal(t, "Escuela A", centros.FirstRow["name"].Text)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"), []sheetFixture{{name: "S", rows: [][]any{{"x"}}}})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "a.xlsx", files[0].Name)
}

func TestListFilesMissingDir(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Nil(t, files)
}
