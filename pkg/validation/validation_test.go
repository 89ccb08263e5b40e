package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type loadArgs struct {
	Filename string `validate:"required,filepath_ext"`
	Dataset  string `validate:"omitempty,dataset_name"`
	MaxRows  int    `validate:"omitempty,gte=1"`
}

func TestValidateStructOK(t *testing.T) {
	require.Empty(t, ValidateStruct(loadArgs{Filename: "roster.xlsx"}))
	require.Empty(t, ValidateStruct(loadArgs{Filename: "roster.XLSM", Dataset: "schools_2024 (v2)", MaxRows: 10}))
}

func TestValidateStructRequired(t *testing.T) {
	msg := ValidateStruct(loadArgs{})
	require.Contains(t, msg, "VALIDATION")
	require.Contains(t, msg, "filename is required")
}

func TestValidateStructExtension(t *testing.T) {
	msg := ValidateStruct(loadArgs{Filename: "roster.csv"})
	require.Contains(t, msg, "VALIDATION")
	require.Contains(t, msg, "Excel workbook")
}

func TestValidateStructDatasetName(t *testing.T) {
	msg := ValidateStruct(loadArgs{Filename: "a.xlsx", Dataset: "bad/name"})
	require.Contains(t, msg, "VALIDATION")
	require.Contains(t, msg, "dataset")
}

func TestValidateStructBounds(t *testing.T) {
	msg := ValidateStruct(loadArgs{Filename: "a.xlsx", MaxRows: -1})
	require.Contains(t, msg, "VALIDATION")
	require.Contains(t, msg, "maxrows")
}
