// Package config resolves where the reference files live, which store to
// write to, and how the import behaves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Common errors
var (
	ErrMissingDatabase = errors.New("database location is required (REFDATA_DB or --db)")
	ErrMissingDataDir  = errors.New("data directory is required (REFDATA_DATA_DIR or --data-dir)")
	ErrUnknownPolicy   = errors.New("unknown on-missing policy (want skip or abort)")
)

// Policy values accepted for OnMissing.
const (
	PolicySkip  = "skip"
	PolicyAbort = "abort"
)

// Files names each dataset. Relative names are resolved against DataDir.
type Files struct {
	StateGeocodes string `yaml:"state_geocodes"`
	AllGeocodes   string `yaml:"all_geocodes"`
	TractPuma     string `yaml:"tract_puma"`
	Schools       string `yaml:"schools"`
}

// OnMissing selects what happens when a foreign key cannot be resolved.
type OnMissing struct {
	Tracts  string `yaml:"tracts"`
	Schools string `yaml:"schools"`
}

type Config struct {
	// Database is a SQLite file path or a postgres:// URL.
	Database string `yaml:"database"`
	DataDir  string `yaml:"data_dir"`
	Files    Files  `yaml:"files"`

	// Commit executes inserts; when false the import is a dry run.
	Commit    bool      `yaml:"commit"`
	OnMissing OnMissing `yaml:"on_missing"`

	Verbose     bool   `yaml:"verbose"`
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the built-in configuration: everything under the per-user
// local data directory, dry run, skip unresolved rows.
func Default() Config {
	base := filepath.Join(LocalDataDir(), "FRED")
	return Config{
		Database: filepath.Join(base, "fred.db"),
		DataDir:  filepath.Join(base, "populations"),
		Files: Files{
			StateGeocodes: "state_geocodes.csv",
			AllGeocodes:   "all_geocodes.csv",
			TractPuma:     "2010_Census_Tract_to_2010_PUMA.txt",
			Schools:       "USA_Public_Schools.csv",
		},
		OnMissing: OnMissing{Tracts: PolicySkip, Schools: PolicySkip},
	}
}

// Load layers defaults, the optional YAML file at path, and REFDATA_*
// environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
//
// Environment variables:
//   - REFDATA_DB: SQLite path or postgres:// URL
//   - REFDATA_DATA_DIR: directory (or s3://bucket/prefix) holding the input files
//   - REFDATA_STATE_GEOCODES, REFDATA_ALL_GEOCODES, REFDATA_TRACT_PUMA, REFDATA_SCHOOLS_FILE
//   - REFDATA_COMMIT: "true" to execute inserts
//   - REFDATA_ON_MISSING: policy for every step; REFDATA_TRACTS_ON_MISSING and
//     REFDATA_SCHOOLS_ON_MISSING override per step
//   - REFDATA_VERBOSE, REFDATA_METRICS_FILE
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("REFDATA_DB", &c.Database)
	str("REFDATA_DATA_DIR", &c.DataDir)
	str("REFDATA_STATE_GEOCODES", &c.Files.StateGeocodes)
	str("REFDATA_ALL_GEOCODES", &c.Files.AllGeocodes)
	str("REFDATA_TRACT_PUMA", &c.Files.TractPuma)
	str("REFDATA_SCHOOLS_FILE", &c.Files.Schools)
	str("REFDATA_ON_MISSING", &c.OnMissing.Tracts)
	str("REFDATA_ON_MISSING", &c.OnMissing.Schools)
	str("REFDATA_TRACTS_ON_MISSING", &c.OnMissing.Tracts)
	str("REFDATA_SCHOOLS_ON_MISSING", &c.OnMissing.Schools)
	str("REFDATA_METRICS_FILE", &c.MetricsFile)
	if err := boolean("REFDATA_COMMIT", &c.Commit); err != nil {
		return err
	}
	return boolean("REFDATA_VERBOSE", &c.Verbose)
}

// Validate checks that the configuration can drive an import.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return ErrMissingDatabase
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return ErrMissingDataDir
	}
	for step, p := range map[string]string{"tracts": c.OnMissing.Tracts, "schools": c.OnMissing.Schools} {
		if p != PolicySkip && p != PolicyAbort {
			return fmt.Errorf("%w: %s=%q", ErrUnknownPolicy, step, p)
		}
	}
	return nil
}

// LocalDataDir is the per-user local application data directory:
// %LOCALAPPDATA% on Windows, $XDG_DATA_HOME or ~/.local/share elsewhere.
func LocalDataDir() string {
	return localDataDir(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func localDataDir(goos string, getenv func(string) string, home func() (string, error)) string {
	if goos == "windows" {
		if v := getenv("LOCALAPPDATA"); v != "" {
			return v
		}
	} else if v := getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	h, err := home()
	if err != nil || h == "" {
		return "."
	}
	if goos == "windows" {
		return filepath.Join(h, "AppData", "Local")
	}
	return filepath.Join(h, ".local", "share")
}
