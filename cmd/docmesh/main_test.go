package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func docsTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, map[string]string{
		"index.md":        "# Home\n\nStart at @/guides/setup.md and @/gone.md.\n",
		"guides/setup.md": "# Setup\n\nSee @#install.\n\n## Install\n\nRun it. Back to @/index.md.\n",
	})
}

// chainTree links /d0.md -> /d1.md -> ... -> /d<n-1>.md.
func chainTree(t *testing.T, n int) string {
	t.Helper()
	files := make(map[string]string, n)
	for i := 0; i < n; i++ {
		files[fmt.Sprintf("d%d.md", i)] = fmt.Sprintf("# D%d\n\nNext: @/d%d.md\n", i, i+1)
	}
	return writeTree(t, files)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Regexp(t, `^docmesh v`, out)
}

func TestRefs(t *testing.T) {
	root := docsTree(t)
	out, err := run(t, "refs", "/index.md", "--docs", root, "--depth", "3", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "/guides/setup.md  Setup")
	assert.Contains(t, out, "  /guides/setup.md#install  Install")
	assert.Contains(t, out, "namespaces: guides")
	assert.NotContains(t, out, "/gone.md", "broken reference should be skipped")
	assert.NotContains(t, out, "/index.md  Home", "cycle back to the root document was expanded")
}

func TestRefs_Flat(t *testing.T) {
	root := docsTree(t)
	out, err := run(t, "refs", "/index.md", "--docs", root, "--depth", "3", "--flat", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "/guides/setup.md\n/guides/setup.md#install\n")
	assert.NotContains(t, out, "  /guides/setup.md#install")
	assert.Contains(t, out, "2 document(s)")
}

func TestRefs_DepthClampedToMaximum(t *testing.T) {
	root := chainTree(t, 13)
	out, err := run(t, "refs", "/d0.md", "--docs", root, "--depth", "50", "--flat", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "/d10.md\n")
	assert.NotContains(t, out, "/d11.md")
	assert.Contains(t, out, "max depth 9")
}

func TestRefs_NegativeDepth(t *testing.T) {
	root := chainTree(t, 2)
	_, err := run(t, "refs", "/d0.md", "--docs", root, "--depth", "-1", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--depth")
}

func TestRefs_InvalidAddress(t *testing.T) {
	root := docsTree(t)
	_, err := run(t, "refs", "#install", "--docs", root, "--log-level", "error")
	assert.Error(t, err, "relative section without context")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"document", []string{"resolve", "guides/setup"}, `"path": "/guides/setup.md"`},
		{"section with context", []string{"resolve", "#install", "--context", "/guides/setup.md"}, `"full_path": "/guides/setup.md#install"`},
		{"section in address", []string{"resolve", "/api.md#auth/jwt"}, `"slug": "auth/jwt"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestResolve_Error(t *testing.T) {
	_, err := run(t, "resolve", "#install")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING_CONTEXT")

	_, err = run(t, "resolve", "API/Auth!", "--context", "/docs/api.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_SLUG")
}
