// Package config loads scanwatch configuration from
// ~/.config/scanwatch/scanwatch.yml with environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full scanwatch configuration.
type Config struct {
	API           APIConfig           `yaml:"api"`
	Poll          PollConfig          `yaml:"poll"`
	Session       SessionConfig       `yaml:"session"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Storage       StorageConfig       `yaml:"storage"`
}

// APIConfig locates the scan backend.
type APIConfig struct {
	// BaseURL of the backend API. SCANWATCH_API_URL overrides it.
	BaseURL string `yaml:"base_url"`
}

// PollConfig sets the two polling cadences.
type PollConfig struct {
	// ListIntervalSeconds is the adaptive scan-list refresh cadence.
	ListIntervalSeconds int `yaml:"list_interval_seconds"`
	// DetailIntervalSeconds is the per-scan progress poll cadence.
	DetailIntervalSeconds int `yaml:"detail_interval_seconds"`
}

// SessionConfig controls the idle sign-out policy.
type SessionConfig struct {
	IdleTimeoutMinutes int `yaml:"idle_timeout_minutes"`
}

// NotificationsConfig bounds the notification list.
type NotificationsConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// StorageConfig locates the local state database.
type StorageConfig struct {
	// Path of the SQLite state file. SCANWATCH_DB_PATH overrides it.
	Path string `yaml:"path"`
}

func defaultConfig() *Config {
	return &Config{
		API:           APIConfig{BaseURL: "http://localhost:8000/api/v1"},
		Poll:          PollConfig{ListIntervalSeconds: 5, DetailIntervalSeconds: 2},
		Session:       SessionConfig{IdleTimeoutMinutes: 5},
		Notifications: NotificationsConfig{MaxEntries: 50},
		Storage:       StorageConfig{},
	}
}

// Load reads the config file if present and applies environment overrides.
// It never fails; missing or unreadable config falls back to defaults.
func Load() *Config {
	// A .env next to the working directory is a convenience for development.
	_ = godotenv.Load()

	cfg := defaultConfig()

	path := os.Getenv("SCANWATCH_CONFIG")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return applyEnv(cfg)
		}
		path = filepath.Join(home, ".config", "scanwatch", "scanwatch.yml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return applyEnv(cfg)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		// A broken config file should not take the tool down; defaults win.
		return applyEnv(defaultConfig())
	}

	return applyEnv(cfg)
}

func applyEnv(cfg *Config) *Config {
	if url := os.Getenv("SCANWATCH_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if path := os.Getenv("SCANWATCH_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if raw := os.Getenv("SCANWATCH_IDLE_TIMEOUT_MINUTES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Session.IdleTimeoutMinutes = n
		}
	}
	return cfg
}

// ListInterval returns the scan-list refresh cadence.
func (c *Config) ListInterval() time.Duration {
	if c.Poll.ListIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Poll.ListIntervalSeconds) * time.Second
}

// DetailInterval returns the progress poll cadence.
func (c *Config) DetailInterval() time.Duration {
	if c.Poll.DetailIntervalSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Poll.DetailIntervalSeconds) * time.Second
}

// IdleTimeout returns the inactivity window before forced sign-out.
func (c *Config) IdleTimeout() time.Duration {
	if c.Session.IdleTimeoutMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Session.IdleTimeoutMinutes) * time.Minute
}
