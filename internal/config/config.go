package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes a single ICS subscription source.
type SourceConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url"`
	// ID is an internal identifier used for event attribution and logging.
	ID string `yaml:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone used for the expansion window and
	// report rendering (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone"`

	// HorizonDays is the number of future days scanned for conflicts.
	HorizonDays int `yaml:"horizon_days"`

	// PageSize is the number of events served per provider page.
	PageSize int `yaml:"page_size"`

	// WatchCron is a cron-style schedule (e.g. "*/15 * * * *") used by
	// watch mode to re-run the pipeline periodically.
	WatchCron string `yaml:"watch"`

	// Sources is the list of subscribed ICS feeds.
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:    "UTC",
		HorizonDays: 14,
		PageSize:    50,
		WatchCron:   "*/15 * * * *",
		Sources:     []SourceConfig{},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 14
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.WatchCron == "" {
		c.WatchCron = "*/15 * * * *"
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600,
// parent directory created) and returned.
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
// 0600 permissions, creating the parent directory if needed.
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

	tmp, err := os.CreateTemp(dir, ".calclash-config-*.tmp")
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
