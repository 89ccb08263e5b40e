package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default runtime limits and guardrails for the Schools MCP Server.
// They can be overridden via the YAML config file or SCHOOLSMCP_* environment
// variables and are referenced by internal/runtime.
const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10

	// Row limits
	DefaultMaxRowsPerRead = 1000
	DefaultSampleRowLimit = 20

	// Centros-de-trabajo exports carry two banner rows before the real
	// header, hence the 1-based schools default of 3.
	DefaultSchoolsHeaderRow = 3
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultStoreProbeTimeout     = 5 * time.Second
)

// Duration wraps time.Duration so YAML configs can use strings like "30s".
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped standard-library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// StoreConfig holds relational store connection parameters. Credentials are
// sourced from the environment only, never from the config file.
type StoreConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"-"`
	Password string `yaml:"-"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Configured reports whether enough parameters are present to reach a store.
func (s StoreConfig) Configured() bool {
	return s.Host != "" && s.Database != "" && s.Username != ""
}

// DSN renders a lib/pq connection string.
func (s StoreConfig) DSN() string {
	port := s.Port
	if port == 0 {
		port = 5432
	}
	ssl := s.SSLMode
	if ssl == "" {
		ssl = "require"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		s.Host, port, s.Username, s.Password, s.Database, ssl)
}

// Config is the static configuration for the Schools MCP Server.
type Config struct {
	// Directory holding the spreadsheet files served by the excel tools.
	ExcelDir string `yaml:"excel_dir"`

	// Row bounds
	MaxRowsPerRead int `yaml:"max_rows_per_read"`
	SampleRowLimit int `yaml:"sample_row_limit"`

	// Concurrency
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`

	// Timeouts
	OperationTimeout  Duration `yaml:"operation_timeout"`
	StoreProbeTimeout Duration `yaml:"store_probe_timeout"`

	Store StoreConfig `yaml:"store"`
}

// Default returns the baseline configuration before file and env overrides.
func Default() *Config {
	return &Config{
		ExcelDir:              "excel_files",
		MaxRowsPerRead:        DefaultMaxRowsPerRead,
		SampleRowLimit:        DefaultSampleRowLimit,
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		OperationTimeout:      Duration(DefaultOperationTimeout),
		StoreProbeTimeout:     Duration(DefaultStoreProbeTimeout),
	}
}

// Load builds the effective configuration: defaults, then the optional YAML
// file at path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SCHOOLSMCP_EXCEL_DIR"); v != "" {
		c.ExcelDir = v
	}
	if v := os.Getenv("SCHOOLSMCP_MAX_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxRowsPerRead = n
		}
	}

	if v := os.Getenv("SCHOOLSMCP_SQL_HOST"); v != "" {
		c.Store.Host = v
	}
	if v := os.Getenv("SCHOOLSMCP_SQL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.Port = n
		}
	}
	if v := os.Getenv("SCHOOLSMCP_SQL_DATABASE"); v != "" {
		c.Store.Database = v
	}
	if v := os.Getenv("SCHOOLSMCP_SQL_USERNAME"); v != "" {
		c.Store.Username = v
	}
	if v := os.Getenv("SCHOOLSMCP_SQL_PASSWORD"); v != "" {
		c.Store.Password = v
	}
	if v := os.Getenv("SCHOOLSMCP_SQL_SSLMODE"); v != "" {
		c.Store.SSLMode = v
	}
}

// Validate rejects configurations the server cannot safely run with.
func (c *Config) Validate() error {
	if c.ExcelDir == "" {
		return fmt.Errorf("config: excel_dir must not be empty")
	}
	if c.MaxRowsPerRead <= 0 {
		return fmt.Errorf("config: max_rows_per_read must be positive, got %d", c.MaxRowsPerRead)
	}
	if c.SampleRowLimit <= 0 {
		return fmt.Errorf("config: sample_row_limit must be positive, got %d", c.SampleRowLimit)
	}
	if c.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("config: max_concurrent_requests must be positive, got %d", c.MaxConcurrentRequests)
	}
	if c.Store.Port < 0 || c.Store.Port > 65535 {
		return fmt.Errorf("config: store port must be between 0 and 65535, got %d", c.Store.Port)
	}
	return nil
}
