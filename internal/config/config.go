package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the feed server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// SourceURL is the timetable page to convert.
	SourceURL string `yaml:"source_url" json:"source_url"`

	// PeriodStart is the date of the teaching period's first Monday,
	// formatted 2006-01-02. No heuristic derives it.
	PeriodStart string `yaml:"period_start" json:"period_start"`

	// Listen is the HTTP listen address for the feed server.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule (e.g. "*/30 * * * *") for
	// regenerating the served feed.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir is where fetched pages are cached between refreshes.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Strict aborts a conversion on the first lesson that fails to
	// build, instead of skipping it.
	Strict bool `yaml:"strict" json:"strict"`

	// UseDTEnd emits DTEND properties instead of ISO-8601 DURATIONs.
	UseDTEnd bool `yaml:"use_dtend" json:"use_dtend"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`

	// CourseNames maps course codes to human-readable names appended to
	// event summaries. Unknown codes degrade to the bare summary.
	CourseNames map[string]string `yaml:"course_names" json:"course_names"`

	// BasicAuth, if non-nil, protects all feed endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		RefreshCron: "*/30 * * * *",
		CacheDir:    "./cache/pages",
		LogLevel:    "info",
		CourseNames: map[string]string{},
	}
}

// Normalize fills in missing values with defaults so partially-filled
// configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./cache/pages"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CourseNames == nil {
		c.CourseNames = map[string]string{}
	}
}

// PeriodStartDate parses PeriodStart and checks it is a Monday, since
// the whole grid walk measures day offsets from that Monday.
func (c *Config) PeriodStartDate() (time.Time, error) {
	if c.PeriodStart == "" {
		return time.Time{}, errors.New("period_start is not set")
	}
	d, err := time.Parse("2006-01-02", c.PeriodStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("period_start %q: %w", c.PeriodStart, err)
	}
	if d.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("period_start %q is a %s, want a Monday", c.PeriodStart, d.Weekday())
	}
	return d, nil
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: a default config is written with 0600 perms and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gridcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
