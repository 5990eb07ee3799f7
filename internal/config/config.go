// Package config loads and defaults the accelerator's YAML configuration:
// the SQL dialect to target, the remote CQL translator endpoint, and
// logging verbosity.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quality-measures/accelerator/internal/schema"
)

// Config holds all accelerator configuration.
type Config struct {
	SQL     SQLConfig     `yaml:"sql"`
	CQL     CQLConfig     `yaml:"cql"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// SQLConfig selects the SQL generator's target dialect.
type SQLConfig struct {
	Dialect string `yaml:"dialect"`
}

// CQLConfig configures the optional remote CQL-to-ELM validation call.
type CQLConfig struct {
	TranslatorURL string `yaml:"translator_url"`
	Timeout       string `yaml:"timeout"`
	StrictMode    bool   `yaml:"strict_mode"`
}

// StoreConfig configures the embedded measure/component library store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

// DefaultConfig returns the accelerator's default configuration.
func DefaultConfig() *Config {
	return &Config{
		SQL: SQLConfig{
			Dialect: string(schema.DialectSynapse),
		},
		CQL: CQLConfig{
			TranslatorURL: "",
			Timeout:       "30s",
			StrictMode:    false,
		},
		Store: StoreConfig{
			DatabasePath: "data/accelerator.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			JSONFormat: false,
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
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
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("UMSC_CQL_TRANSLATOR_URL"); url != "" {
		c.CQL.TranslatorURL = url
	}
	if db := os.Getenv("UMSC_DB"); db != "" {
		c.Store.DatabasePath = db
	}
	if level := os.Getenv("UMSC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Dialect resolves the configured SQL dialect.
func (c *Config) Dialect() (schema.Dialect, error) {
	d := schema.Dialect(c.SQL.Dialect)
	if _, err := schema.For(d); err != nil {
		return "", err
	}
	return d, nil
}

// CQLTimeout returns the configured remote translator timeout, defaulting
// to 30s on an unparseable value.
func (c *Config) CQLTimeout() time.Duration {
	d, err := time.ParseDuration(c.CQL.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
