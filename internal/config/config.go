package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultSourceName names the index built from a source given on the command line or environment.
const DefaultSourceName = "default"

// AppConfig captures configuration for the server, document sources, and observability.
type AppConfig struct {
	Server  ServerConfig   `toml:"server" yaml:"server"`
	Sources []SourceConfig `toml:"sources" yaml:"sources"`
	Logging LoggingConfig  `toml:"logging" yaml:"logging"`
	Metrics MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

// ServerConfig controls network settings for the HTTP API.
type ServerConfig struct {
	Listen          string        `toml:"listen" yaml:"listen"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SourceConfig names a document source to index at startup.
type SourceConfig struct {
	Name string `toml:"name" yaml:"name"`
	Path string `toml:"path" yaml:"path"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level       string `toml:"level" yaml:"level"`
	Format      string `toml:"format" yaml:"format"`
	RequestLogs *bool  `toml:"request_logs" yaml:"request_logs"`
}

// MetricsConfig enables counters/telemetry endpoints.
type MetricsConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

// DefaultConfig returns the baseline configuration used when no file is supplied.
func DefaultConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			RequestLogs: boolPtr(true),
		},
		Metrics: MetricsConfig{Enabled: boolPtr(true)},
	}
}

// Load reads the provided config path, merging it onto the defaults.
func Load(path string) (AppConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var fileCfg AppConfig
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(content, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return AppConfig{}, errors.New("config file must be .toml, .yaml, or .yml")
	}

	merged := mergeConfig(cfg, fileCfg)
	if err := merged.Validate(); err != nil {
		return AppConfig{}, err
	}
	return merged, nil
}

// ApplyEnv overrides fields from SETSEARCH_* environment variables.
func (cfg *AppConfig) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("SETSEARCH_SOURCE"); v != "" {
		cfg.SetSource(DefaultSourceName, v)
	}
	if v := getenv("SETSEARCH_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := getenv("SETSEARCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// SetSource adds the named source or replaces its path if it already exists.
func (cfg *AppConfig) SetSource(name, path string) {
	for i := range cfg.Sources {
		if cfg.Sources[i].Name == name {
			cfg.Sources[i].Path = path
			return
		}
	}
	cfg.Sources = append(cfg.Sources, SourceConfig{Name: name, Path: path})
}

// Validate checks the sources list for missing or duplicate names.
func (cfg AppConfig) Validate() error {
	seen := make(map[string]struct{}, len(cfg.Sources))
	for i, src := range cfg.Sources {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if strings.TrimSpace(src.Path) == "" {
			return fmt.Errorf("sources[%d] %q: path is required", i, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// RequestLogsEnabled reports whether per-request logging is on. It defaults to true.
func (cfg AppConfig) RequestLogsEnabled() bool {
	return cfg.Logging.RequestLogs == nil || *cfg.Logging.RequestLogs
}

// MetricsEnabled reports whether telemetry should be collected.
func (cfg AppConfig) MetricsEnabled() bool {
	return cfg.Metrics.Enabled != nil && *cfg.Metrics.Enabled
}

func mergeConfig(base, override AppConfig) AppConfig {
	if override.Server.Listen != "" {
		base.Server.Listen = override.Server.Listen
	}
	if override.Server.ShutdownTimeout != 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if len(override.Sources) > 0 {
		base.Sources = append([]SourceConfig(nil), override.Sources...)
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}
	if override.Logging.RequestLogs != nil {
		base.Logging.RequestLogs = override.Logging.RequestLogs
	}

	if override.Metrics.Enabled != nil {
		base.Metrics.Enabled = override.Metrics.Enabled
	}

	return base
}

func boolPtr(v bool) *bool {
	return &v
}
