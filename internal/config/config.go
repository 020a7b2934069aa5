package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application-level settings: where the register lives and
// how to reach the embedding provider. Engine thresholds are configured
// separately through the deduplication package's own environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Actor is recorded in the audit trail for CLI operations.
	// Default: $USER, falling back to "riskhound"
	Actor string `yaml:"actor"`
}

// DatabaseConfig holds register storage settings
type DatabaseConfig struct {
	// Path is the SQLite database file
	// Default: ".riskhound/rk.db"
	Path string `yaml:"path"`
}

// EmbeddingConfig holds embedding provider settings
type EmbeddingConfig struct {
	// BaseURL is the Ollama API base
	// Default: "http://localhost:11434/api"
	BaseURL string `yaml:"base_url"`

	// Model is the embedding model name
	// Default: "nomic-embed-text"
	Model string `yaml:"model"`

	// Timeout bounds each embedding request
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`

	// Disabled turns the semantic tier off entirely
	Disabled bool `yaml:"disabled"`
}

// UnmarshalYAML decodes embedding settings, parsing timeout from duration
// strings like "30s". Absent fields keep whatever the receiver already
// holds, so decoding over DefaultConfig preserves defaults.
func (e *EmbeddingConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
		Timeout  string `yaml:"timeout"`
		Disabled *bool  `yaml:"disabled"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.BaseURL != "" {
		e.BaseURL = raw.BaseURL
	}
	if raw.Model != "" {
		e.Model = raw.Model
	}
	if raw.Timeout != "" {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid embedding timeout %q: %w", raw.Timeout, err)
		}
		e.Timeout = timeout
	}
	if raw.Disabled != nil {
		e.Disabled = *raw.Disabled
	}
	return nil
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	actor := os.Getenv("USER")
	if actor == "" {
		actor = "riskhound"
	}
	return &Config{
		Database: DatabaseConfig{
			Path: ".riskhound/rk.db",
		},
		Embedding: EmbeddingConfig{
			BaseURL: "http://localhost:11434/api",
			Model:   "nomic-embed-text",
			Timeout: 15 * time.Second,
		},
		Actor: actor,
	}
}

// Load reads configuration from a YAML file, then applies environment
// overrides. A missing file is not an error; defaults are used.
//
// Environment variables:
//   - RISKHOUND_DB_PATH: SQLite database file
//   - RISKHOUND_EMBEDDING_BASE_URL: Ollama API base URL
//   - RISKHOUND_EMBEDDING_MODEL: Embedding model name
//   - RISKHOUND_EMBEDDING_TIMEOUT_SECS: Per-request timeout in seconds
//   - RISKHOUND_EMBEDDING_DISABLED: Disable the semantic tier
//   - RISKHOUND_ACTOR: Audit trail actor name
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RISKHOUND_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("RISKHOUND_EMBEDDING_BASE_URL"); v != "" {
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv("RISKHOUND_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("RISKHOUND_EMBEDDING_TIMEOUT_SECS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid value for RISKHOUND_EMBEDDING_TIMEOUT_SECS: %w", err)
		}
		c.Embedding.Timeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("RISKHOUND_EMBEDDING_DISABLED"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value for RISKHOUND_EMBEDDING_DISABLED: %w", err)
		}
		c.Embedding.Disabled = disabled
	}
	if v := os.Getenv("RISKHOUND_ACTOR"); v != "" {
		c.Actor = v
	}
	return nil
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if !c.Embedding.Disabled {
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding base_url is required when the semantic tier is enabled")
		}
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding model is required when the semantic tier is enabled")
		}
	}
	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("embedding timeout must be positive (got %v)", c.Embedding.Timeout)
	}
	if c.Actor == "" {
		return fmt.Errorf("actor is required")
	}
	return nil
}
