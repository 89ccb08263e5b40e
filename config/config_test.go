package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "excel_files", cfg.ExcelDir)
	require.Equal(t, DefaultMaxRowsPerRead, cfg.MaxRowsPerRead)
	require.Equal(t, DefaultSampleRowLimit, cfg.SampleRowLimit)
	require.Equal(t, DefaultMaxConcurrentRequests, cfg.MaxConcurrentRequests)
	require.Equal(t, DefaultOperationTimeout, cfg.OperationTimeout.Std())
	require.False(t, cfg.Store.Configured())
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
excel_dir: /srv/rosters
max_rows_per_read: 500
sample_row_limit: 10
operation_timeout: 10s
store:
  host: db.internal
  port: 5433
  database: schools
  ssl_mode: disable
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/rosters", cfg.ExcelDir)
	require.Equal(t, 500, cfg.MaxRowsPerRead)
	require.Equal(t, 10, cfg.SampleRowLimit)
	require.Equal(t, 10*time.Second, cfg.OperationTimeout.Std())
	require.Equal(t, "db.internal", cfg.Store.Host)
	require.Equal(t, 5433, cfg.Store.Port)
	// Credentials never come from the file.
	require.Empty(t, cfg.Store.Username)
	require.False(t, cfg.Store.Configured())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCHOOLSMCP_EXCEL_DIR", "/data/excel")
	t.Setenv("SCHOOLSMCP_MAX_ROWS", "250")
	t.Setenv("SCHOOLSMCP_SQL_HOST", "db.example.com")
	t.Setenv("SCHOOLSMCP_SQL_DATABASE", "schools")
	t.Setenv("SCHOOLSMCP_SQL_USERNAME", "svc")
	t.Setenv("SCHOOLSMCP_SQL_PASSWORD", "secret")
	t.Setenv("SCHOOLSMCP_SQL_SSLMODE", "disable")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/data/excel", cfg.ExcelDir)
	require.Equal(t, 250, cfg.MaxRowsPerRead)
	require.True(t, cfg.Store.Configured())
	require.Equal(t, "db.example.com", cfg.Store.Host)
}

func TestStoreDSN(t *testing.T) {
	s := StoreConfig{Host: "db", Database: "schools", Username: "svc", Password: "pw"}
	require.Equal(t, "host=db port=5432 user=svc password=pw dbname=schools sslmode=require", s.DSN())

	s.Port = 5433
	s.SSLMode = "disable"
	require.Equal(t, "host=db port=5433 user=svc password=pw dbname=schools sslmode=disable", s.DSN())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.ExcelDir = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxRowsPerRead = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Port = 70000
	require.Error(t, cfg.Validate())
}
