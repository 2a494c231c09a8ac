package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Default ---

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./docs", cfg.DocsRoot)
	assert.Regexp(t, `\.docmesh$`, cfg.DataDir)
	assert.Equal(t, 1000, cfg.AddressCacheSize)
	assert.Equal(t, 100, cfg.DocumentCacheSize)
	assert.Equal(t, 3, cfg.ReferenceDepth)
	assert.True(t, cfg.Watch)
	assert.True(t, cfg.IndexEnabled)
	assert.NoError(t, cfg.Validate())
}

// --- Load ---

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultReferenceDepth, cfg.ReferenceDepth)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "docs_root: /srv/docs\nreference_depth: 5\nwatch: false\nlog_format: json\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/docs", cfg.DocsRoot)
	assert.Equal(t, 5, cfg.ReferenceDepth)
	assert.False(t, cfg.Watch)
	assert.Equal(t, "json", cfg.LogFormat)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, DefaultAddressCacheSize, cfg.AddressCacheSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "reference_depth: 5\n")
	t.Setenv("DOCMESH_REFERENCE_DEPTH", "2")
	t.Setenv("DOCMESH_DOCS_ROOT", "/env/docs")
	t.Setenv("DOCMESH_INDEX_ENABLED", "false")
	t.Setenv("DOCMESH_DOCUMENT_CACHE_SIZE", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.ReferenceDepth)
	assert.Equal(t, "/env/docs", cfg.DocsRoot)
	assert.False(t, cfg.IndexEnabled)
	assert.Equal(t, DefaultDocumentCacheSize, cfg.DocumentCacheSize, "unparsable env keeps the default")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "missing file")

	_, err = Load(writeConfig(t, "reference_depth: [nope\n"))
	assert.Error(t, err, "malformed YAML")

	_, err = Load(writeConfig(t, "reference_depth: 42\n"))
	assert.Error(t, err, "reference_depth above the maximum")
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty docs root", func(c *Config) { c.DocsRoot = " " }, "docs_root"},
		{"no data dir with index", func(c *Config) { c.DataDir = "" }, "data_dir"},
		{"no data dir without index", func(c *Config) { c.DataDir = ""; c.IndexEnabled = false }, ""},
		{"zero address cache", func(c *Config) { c.AddressCacheSize = 0 }, "address_cache_size"},
		{"zero document cache", func(c *Config) { c.DocumentCacheSize = 0 }, "document_cache_size"},
		{"negative depth", func(c *Config) { c.ReferenceDepth = -1 }, "reference_depth"},
		{"zero depth", func(c *Config) { c.ReferenceDepth = 0 }, ""},
		{"maximum depth", func(c *Config) { c.ReferenceDepth = MaxReferenceDepth }, ""},
		{"depth above maximum", func(c *Config) { c.ReferenceDepth = MaxReferenceDepth + 1 }, "reference_depth"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"upper level", func(c *Config) { c.LogLevel = "DEBUG" }, ""},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// --- Logging ---

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "path", "/a.md")

	out := buf.String()
	assert.NotContains(t, out, "hidden", "info record written at warn level")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}
