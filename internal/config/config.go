// Package config loads the spectrabrainz YAML configuration and the
// StorCycle credentials file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the spectrabrainz pipeline.
type Config struct {
	API      API      `yaml:"api"`
	Fetch    Fetch    `yaml:"fetch"`
	Report   Report   `yaml:"report"`
	Storage  Storage  `yaml:"storage"`
	Transfer Transfer `yaml:"transfer"`
	Logging  Logging  `yaml:"logging"`
}

// API holds connection parameters for the StorCycle OpenAPI endpoint.
type API struct {
	BaseURL         string `yaml:"base_url"`
	CredentialsPath string `yaml:"credentials_path"`
	PageSize        int    `yaml:"page_size"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Fetch controls the daily snapshot fetcher.
type Fetch struct {
	MaxWorkers int    `yaml:"max_workers"`
	JobsFile   string `yaml:"jobs_file"`
	IncludeAll bool   `yaml:"include_all"`
}

// Report controls workbook aggregation.
type Report struct {
	DataDir      string `yaml:"data_dir"`
	WorkbookName string `yaml:"workbook_name"`
}

// Storage holds paths for the raw archive and the run log.
type Storage struct {
	ArchiveDir string `yaml:"archive_dir"`
	RunLogPath string `yaml:"runlog_path"`
}

// Transfer configures the downstream rclone sync.
type Transfer struct {
	Enabled    bool   `yaml:"enabled"`
	RemotePath string `yaml:"remote_path"`
	BackupPath string `yaml:"backup_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default values applied when the YAML omits a field.
const (
	defaultBaseURL      = "https://storcycle.bil.psc.edu"
	defaultWorkbookName = "spectrabrainz-report.xlsx"
	defaultPageSize     = 500
	defaultTimeout      = 60
	defaultMaxRetries   = 3
	defaultMaxWorkers   = 16
)

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, fills defaults, and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaultBaseURL
	}
	if cfg.API.PageSize <= 0 {
		cfg.API.PageSize = defaultPageSize
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = defaultTimeout
	}
	if cfg.API.MaxRetries <= 0 {
		cfg.API.MaxRetries = defaultMaxRetries
	}
	if cfg.Fetch.MaxWorkers <= 0 {
		cfg.Fetch.MaxWorkers = defaultMaxWorkers
	}
	if cfg.Report.DataDir == "" {
		cfg.Report.DataDir = "."
	}
	if cfg.Report.WorkbookName == "" {
		cfg.Report.WorkbookName = defaultWorkbookName
	}
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPECTRA_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SPECTRA_CREDENTIALS"); v != "" {
		cfg.API.CredentialsPath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Report.DataDir = v
	}
	if v := os.Getenv("ARCHIVE_DIR"); v != "" {
		cfg.Storage.ArchiveDir = v
	}
	if v := os.Getenv("RUNLOG_PATH"); v != "" {
		cfg.Storage.RunLogPath = v
	}
	if v := os.Getenv("RCLONE_REMOTE_PATH"); v != "" {
		cfg.Transfer.RemotePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
