package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Source kinds
const (
	SourceInline = "inline"
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	MinLength       int           `toml:"min_length"`
	DebounceMS      int           `toml:"debounce_ms"`
	SearchTimeoutMS int           `toml:"search_timeout_ms"`
	MaxResults      int           `toml:"max_results"`
	Source          SourceConfig  `toml:"source"`
	Metrics         MetricsConfig `toml:"metrics"`
	UI              UISettings    `toml:"ui"`
}

// SourceConfig describes where suggestions come from
type SourceConfig struct {
	Kind  string   `toml:"kind"`
	Path  string   `toml:"path"`
	Query string   `toml:"query,omitempty"`
	Items []string `toml:"items,omitempty"`
	Watch bool     `toml:"watch"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	Prompt      string `toml:"prompt"`
	Placeholder string `toml:"placeholder"`
	Width       int    `toml:"width"`
}

// Debounce returns the input quiet period
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SearchTimeout returns the per-search deadline, zero meaning none
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// Validate checks values that would make the widget unusable
func (c *Config) Validate() error {
	if c.MinLength < 0 {
		return fmt.Errorf("min_length must not be negative, got %d", c.MinLength)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative, got %d", c.DebounceMS)
	}
	if c.SearchTimeoutMS < 0 {
		return fmt.Errorf("search_timeout_ms must not be negative, got %d", c.SearchTimeoutMS)
	}
	switch c.Source.Kind {
	case SourceInline:
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("source kind %q requires a path", c.Source.Kind)
		}
	case SourceSQLite:
		if c.Source.Path == "" {
			return fmt.Errorf("source kind %q requires a path", c.Source.Kind)
		}
		if c.Source.Query == "" {
			return fmt.Errorf("source kind %q requires a query", c.Source.Kind)
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service rooted in the user config directory
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	return &configService{
		filePath: filepath.Join(configDir, "autosuggest", "config.toml"),
	}
}

// NewConfigServiceAt creates a config service for an explicit file
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// Path returns the file Load and Save operate on
func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration, returning defaults when the file does not exist
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path.
// Keys missing from the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MinLength:       3,
		DebounceMS:      300,
		SearchTimeoutMS: 2000,
		MaxResults:      50,
		Source: SourceConfig{
			Kind: SourceInline,
		},
		UI: UISettings{
			Prompt:      "> ",
			Placeholder: "start typing…",
			Width:       48,
		},
	}
}
