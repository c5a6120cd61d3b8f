// Package config loads the pipeline's runtime configuration. Following the
// teacher's cmn.Config pattern (a single snapshot assembled once at
// process start rather than hot-edited in place), Load builds one
// immutable *Config per CLI invocation from built-in defaults, an optional
// YAML file, and then environment variables, which override the file.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/statcan/wds-pipeline/cmn"
)

// Config is the root configuration object threaded through every CLI
// command as part of the ingestion context (spec.md §9 design note:
// "pass a context object carrying connection pool, content store handle,
// WDS client, normalizer").
type Config struct {
	// DBPath is the buntdb file backing the Artifact Registry, status
	// tables, and change log (spec.md §6: "Database connection string" --
	// here a filesystem path, since the relational store is embedded).
	DBPath string `yaml:"db_path"`

	// RawRoot is the Content Store's root directory.
	RawRoot string `yaml:"raw_root"`

	// WDSBaseURL is the base URL of the Web Data Service.
	WDSBaseURL string `yaml:"wds_base_url"`

	// UserAgent is sent on every WDS call (spec.md §6: "User-Agent must
	// be set").
	UserAgent string `yaml:"user_agent"`

	// Worker pool sizes, one per fetch pipeline (spec.md §5: "recommend
	// 4-8 workers per fetch pipeline").
	CubeWorkers     int `yaml:"cube_workers"`
	MetadataWorkers int `yaml:"metadata_workers"`

	// Per-call HTTP deadline (spec.md §4.A).
	CallTimeout time.Duration `yaml:"call_timeout"`

	// MaxRetries bounds the WDS client's exponential backoff before a
	// transient error surfaces to the scheduler (spec.md §4.A/§7).
	MaxRetries int `yaml:"max_retries"`

	// ReleaseTimezone/ReleaseOffset implement the configurable 08:30
	// release-time parameter (spec.md §9 Open Question).
	ReleaseTimezone string        `yaml:"release_timezone"`
	ReleaseOffset   time.Duration `yaml:"release_offset"`

	// MetricsAddr, if non-empty, is where `serve` exposes /metrics.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the baseline configuration before env/file overrides.
func Default() *Config {
	return &Config{
		DBPath:          "./data/wds.db",
		RawRoot:         "./data/raw",
		WDSBaseURL:      "https://www150.statcan.gc.ca/t1/wds/rest",
		UserAgent:       "wds-pipeline/1.0 (+statcan WDS mirror)",
		CubeWorkers:     6,
		MetadataWorkers: 6,
		CallTimeout:     30 * time.Second,
		MaxRetries:      5,
		ReleaseTimezone: cmn.DefaultReleaseTimezone,
		ReleaseOffset:   cmn.DefaultReleaseOffset,
		MetricsAddr:     "",
	}
}

// Load builds a Config from the defaults, then a YAML file named by
// WDS_CONFIG_FILE if set, then environment variables. Env vars win over
// the file; fields set by neither keep their defaults -- exactly one
// snapshot, built once, per spec.md §9's "one root context object per CLI
// command".
func Load() (*Config, error) {
	c := Default()

	if path := os.Getenv("WDS_CONFIG_FILE"); path != "" {
		if err := c.mergeFile(path); err != nil {
			return nil, errors.Wrapf(err, "loading config file %s", path)
		}
	}

	c.override("WDS_DB_PATH", &c.DBPath)
	c.override("WDS_RAW_ROOT", &c.RawRoot)
	c.override("WDS_BASE_URL", &c.WDSBaseURL)
	c.override("WDS_USER_AGENT", &c.UserAgent)
	c.override("WDS_RELEASE_TIMEZONE", &c.ReleaseTimezone)
	c.override("WDS_METRICS_ADDR", &c.MetricsAddr)

	if err := c.overrideInt("WDS_CUBE_WORKERS", &c.CubeWorkers); err != nil {
		return nil, err
	}
	if err := c.overrideInt("WDS_METADATA_WORKERS", &c.MetadataWorkers); err != nil {
		return nil, err
	}
	if err := c.overrideInt("WDS_MAX_RETRIES", &c.MaxRetries); err != nil {
		return nil, err
	}
	if err := c.overrideDuration("WDS_CALL_TIMEOUT", &c.CallTimeout); err != nil {
		return nil, err
	}
	if err := c.overrideDuration("WDS_RELEASE_OFFSET", &c.ReleaseOffset); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the invariants the rest of the pipeline assumes hold.
func (c *Config) Validate() error {
	if c.WDSBaseURL == "" {
		return errors.New("wds base url must not be empty")
	}
	if c.RawRoot == "" {
		return errors.New("raw root must not be empty")
	}
	if c.CubeWorkers <= 0 || c.MetadataWorkers <= 0 {
		return errors.New("worker counts must be positive")
	}
	if _, err := c.Location(); err != nil {
		return errors.Wrap(err, "invalid release timezone")
	}
	return nil
}

// Location resolves the configured release timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReleaseTimezone)
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, c)
}

func (c *Config) override(env string, dst *string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) overrideInt(env string, dst *int) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	n, err := fmt.Sscanf(v, "%d", dst)
	if err != nil || n != 1 {
		return errors.Errorf("invalid integer for %s: %q", env, v)
	}
	return nil
}

func (c *Config) overrideDuration(env string, dst *time.Duration) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return errors.Wrapf(err, "invalid duration for %s", env)
	}
	*dst = d
	return nil
}
