package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/docmesh/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, indexEnabled bool) *config.Config {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.md":        "# Home\n\nStart at @/guides/setup.md.\n",
		"guides/setup.md": "# Setup\n\n## Install\n\nRun it.\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	cfg := config.Default()
	cfg.DocsRoot = root
	cfg.DataDir = t.TempDir()
	cfg.Watch = false
	cfg.IndexEnabled = indexEnabled
	return cfg
}

func TestBuild_IndexesAtStartup(t *testing.T) {
	c, cleanup, err := Build(context.Background(), testConfig(t, true), quietLogger())
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, c.Store, "index should be available")
	require.NotNil(t, c.Indexer)
	st, err := c.Store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalDocuments)
	assert.Equal(t, 1, st.TotalReferences)
}

func TestBuild_InvalidationRefreshesIndexAndAddresses(t *testing.T) {
	cfg := testConfig(t, true)
	c, cleanup, err := Build(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer cleanup()

	_, err = c.Parser.ParseDocumentAddress("/faq.md")
	require.NoError(t, err)
	require.Equal(t, 1, c.Parser.Cache().Stats().Documents.Size)

	p := filepath.Join(cfg.DocsRoot, "faq.md")
	require.NoError(t, os.WriteFile(p, []byte("# FAQ\n\nSee @/index.md\n"), 0o644))
	c.Docs.Invalidate("/faq.md")

	rec, err := c.Store.GetDocument("/faq.md")
	require.NoError(t, err)
	require.NotNil(t, rec, "the new FAQ document should be indexed")
	assert.Equal(t, "FAQ", rec.Title)
	assert.Equal(t, 0, c.Parser.Cache().Stats().Documents.Size, "address cache survived invalidation")
}

func TestBuild_ReloadOnReadRefreshesIndex(t *testing.T) {
	cfg := testConfig(t, true)
	c, cleanup, err := Build(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer cleanup()

	p := filepath.Join(cfg.DocsRoot, "guides", "setup.md")
	require.NoError(t, os.WriteFile(p, []byte("# Setup Guide\n\nNow links @/index.md.\n"), 0o644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(p, later, later))

	snap, err := c.Docs.GetDocument(context.Background(), "/guides/setup.md")
	require.NoError(t, err)
	assert.Equal(t, "Setup Guide", snap.Metadata.Title)

	rec, err := c.Store.GetDocument("/guides/setup.md")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Setup Guide", rec.Title)

	back, err := c.Store.Backlinks("/index.md", "")
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "/guides/setup.md", back[0].FromPath)
}

func TestBuild_IndexDisabled(t *testing.T) {
	c, cleanup, err := Build(context.Background(), testConfig(t, false), quietLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, c.Store, "index should not be created when disabled")
	assert.Nil(t, c.Indexer)
	// Invalidation must not need the index.
	c.Docs.Invalidate("/index.md")
}

func TestBuild_MissingDocsRoot(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.DocsRoot = filepath.Join(t.TempDir(), "nope")

	_, cleanup, err := Build(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
	require.NotNil(t, cleanup, "cleanup must never be nil")
	cleanup()
}

func TestBuild_Watcher(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Watch = true

	c, cleanup, err := Build(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, c.Watcher, "watcher should be running")
}

func TestNew_RegistersTools(t *testing.T) {
	tests := []struct {
		name      string
		index     bool
		wantTools []string
		absent    []string
	}{
		{
			name:      "with index",
			index:     true,
			wantTools: []string{"view_document", "resolve_address", "list_documents", "docmesh_stats", "find_backlinks", "search_documents", "document_graph"},
		},
		{
			name:      "without index",
			index:     false,
			wantTools: []string{"view_document", "resolve_address", "list_documents", "docmesh_stats"},
			absent:    []string{"find_backlinks", "search_documents", "document_graph"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, cleanup, err := New(testConfig(t, tt.index), quietLogger())
			require.NoError(t, err)
			defer cleanup()

			registered := s.ListTools()
			for _, name := range tt.wantTools {
				assert.Contains(t, registered, name)
			}
			for _, name := range tt.absent {
				assert.NotContains(t, registered, name, "registered without an index")
			}
			assert.Len(t, registered, len(tt.wantTools))
		})
	}
}
