// Package config holds the carf configuration: where the backend lives, how
// the cockpit looks, and where local state is kept. Config is loaded from
// ~/.carf/config.yaml (overridable with $CARF_CONFIG) with env overrides
// applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all carf settings.
type Config struct {
	// API configuration.
	API APIConfig `yaml:"api"`

	// Display settings; hot-reloadable while the cockpit runs.
	Display DisplayConfig `yaml:"display"`

	// Local state (history database, log files).
	State StateConfig `yaml:"state"`

	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig locates the reasoning backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// DisplayConfig holds cockpit presentation settings.
type DisplayConfig struct {
	Theme           string `yaml:"theme"` // auto, dark, light
	RefreshInterval string `yaml:"refresh_interval"`
	DefaultView     string `yaml:"default_view"` // analyst, developer, executive
	ChartType       string `yaml:"chart_type"`   // auto, cards, bar, pie
}

// StateConfig locates local persistence.
type StateConfig struct {
	Dir    string `yaml:"dir"`
	DBPath string `yaml:"db_path"`
}

// LoggingConfig controls file logging verbosity.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the built-in defaults. The backend default matches
// the conventional local deployment port.
func DefaultConfig() *Config {
	stateDir := defaultStateDir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "30s",
		},
		Display: DisplayConfig{
			Theme:           "auto",
			RefreshInterval: "30s",
			DefaultView:     "analyst",
			ChartType:       "auto",
		},
		State: StateConfig{
			Dir:    stateDir,
			DBPath: filepath.Join(stateDir, "carf.db"),
		},
		Logging: LoggingConfig{Debug: false},
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".carf"
	}
	return filepath.Join(home, ".carf")
}

// DefaultPath returns the config file location: $CARF_CONFIG if set,
// otherwise ~/.carf/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("CARF_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(defaultStateDir(), "config.yaml")
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist. Env overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CARF_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("CARF_THEME"); v != "" {
		c.Display.Theme = v
	}
	if v := os.Getenv("CARF_DB"); v != "" {
		c.State.DBPath = v
	}
}

// Validate checks enum-valued fields. Unset values are filled by defaults,
// so only genuinely wrong values fail.
func (c *Config) Validate() error {
	switch c.Display.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("invalid theme %q (want auto, dark, or light)", c.Display.Theme)
	}
	switch c.Display.DefaultView {
	case "analyst", "developer", "executive":
	default:
		return fmt.Errorf("invalid default view %q", c.Display.DefaultView)
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("invalid api timeout %q: %w", c.API.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Display.RefreshInterval); err != nil {
		return fmt.Errorf("invalid refresh interval %q: %w", c.Display.RefreshInterval, err)
	}
	return nil
}

// APITimeout parses the API timeout with a 30s fallback.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// RefreshInterval parses the panel refresh interval with a 30s fallback.
func (c *Config) RefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.Display.RefreshInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
