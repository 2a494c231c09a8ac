// Package config loads docmesh settings from defaults, an optional YAML
// file and DOCMESH_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCMESH_"

// Defaults.
const (
	DefaultDocsRoot          = "./docs"
	DefaultAddressCacheSize  = 1000
	DefaultDocumentCacheSize = 100
	DefaultReferenceDepth    = 3
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"

	// MaxReferenceDepth bounds how deep a configured traversal may go.
	MaxReferenceDepth = 10
)

// Config holds the runtime settings of a docmesh process.
type Config struct {
	DocsRoot          string `yaml:"docs_root"`
	DataDir           string `yaml:"data_dir"`
	AddressCacheSize  int    `yaml:"address_cache_size"`
	DocumentCacheSize int    `yaml:"document_cache_size"`
	ReferenceDepth    int    `yaml:"reference_depth"`
	Watch             bool   `yaml:"watch"`
	IndexEnabled      bool   `yaml:"index_enabled"`
	LogLevel          string `yaml:"log_level"`
	LogFormat         string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DocsRoot:          DefaultDocsRoot,
		DataDir:           filepath.Join(home, ".docmesh"),
		AddressCacheSize:  DefaultAddressCacheSize,
		DocumentCacheSize: DefaultDocumentCacheSize,
		ReferenceDepth:    DefaultReferenceDepth,
		Watch:             true,
		IndexEnabled:      true,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the keys present in a YAML file onto c.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DocsRoot = envOr("DOCS_ROOT", c.DocsRoot)
	c.DataDir = envOr("DATA_DIR", c.DataDir)
	c.AddressCacheSize = envInt("ADDRESS_CACHE_SIZE", c.AddressCacheSize)
	c.DocumentCacheSize = envInt("DOCUMENT_CACHE_SIZE", c.DocumentCacheSize)
	c.ReferenceDepth = envInt("REFERENCE_DEPTH", c.ReferenceDepth)
	c.Watch = envBool("WATCH", c.Watch)
	c.IndexEnabled = envBool("INDEX_ENABLED", c.IndexEnabled)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat)
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DocsRoot) == "" {
		return fmt.Errorf("config: docs_root is required")
	}
	if c.IndexEnabled && strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: data_dir is required when the index is enabled")
	}
	if c.AddressCacheSize <= 0 {
		return fmt.Errorf("config: address_cache_size must be positive, got %d", c.AddressCacheSize)
	}
	if c.DocumentCacheSize <= 0 {
		return fmt.Errorf("config: document_cache_size must be positive, got %d", c.DocumentCacheSize)
	}
	if c.ReferenceDepth < 0 || c.ReferenceDepth > MaxReferenceDepth {
		return fmt.Errorf("config: reference_depth must be between 0 and %d, got %d", MaxReferenceDepth, c.ReferenceDepth)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
