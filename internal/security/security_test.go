package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir, nil)
	require.NoError(t, err)
	return m, dir
}

func TestNewManagerRejectsEmptyDir(t *testing.T) {
	_, err := NewManager("  ", nil)
	require.Error(t, err)
}

func TestNewManagerRejectsBadExtension(t *testing.T) {
	_, err := NewManager(t.TempDir(), []string{"xlsx"})
	require.Error(t, err)
}

func TestValidateOpenPathRelativeName(t *testing.T) {
	m, dir := newTestManager(t)
	path := filepath.Join(dir, "roster.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	resolved, err := m.ValidateOpenPath("roster.xlsx")
	require.NoError(t, err)
	require.Equal(t, path, resolved)
}

func TestValidateOpenPathUnsupportedExtension(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.ValidateOpenPath("roster.csv")
	require.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestValidateOpenPathTraversalDenied(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.ValidateOpenPath("../outside.xlsx")
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPathAbsoluteOutsideDenied(t *testing.T) {
	m, _ := newTestManager(t)
	outside := filepath.Join(t.TempDir(), "other.xlsx")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	_, err := m.ValidateOpenPath(outside)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPathMissingFile(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.ValidateOpenPath("absent.xlsx")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidateOpenPathDirectoryDenied(t *testing.T) {
	m, dir := newTestManager(t)
	sub := filepath.Join(dir, "nested.xlsx")
	require.NoError(t, os.Mkdir(sub, 0o755))

	_, err := m.ValidateOpenPath("nested.xlsx")
	require.ErrorIs(t, err, ErrNotAllowed)
}
