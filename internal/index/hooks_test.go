package index

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/HendryAvila/docmesh/internal/references"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHookedStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}

	_, err := New(Config{DataDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open database")
}

func TestIndexDocument_CommitFailureRollsBack(t *testing.T) {
	s := newHookedStore(t)
	s.hooks.commit = func(tx *sql.Tx) error {
		_ = tx.Rollback()
		return errors.New("commit failed")
	}

	refs := []references.NormalizedReference{{
		OriginalRef: "@/b.md", ResolvedPath: "/b.md", DocumentPath: "/b.md",
	}}
	err := s.IndexDocument(DocumentRecord{Path: "/a.md", Title: "A", Namespace: "root", ContentHash: "h", Content: "a"}, refs)
	require.Error(t, err)

	s.hooks = defaultStoreHooks()
	rec, err := s.GetDocument("/a.md")
	require.NoError(t, err)
	assert.Nil(t, rec, "document persisted despite failed commit")
}

func TestQueryHookFailure(t *testing.T) {
	s := newHookedStore(t)
	s.hooks.queryIt = func(queryer, string, ...any) (rowScanner, error) {
		return nil, errors.New("query failed")
	}

	_, err := s.Backlinks("/a.md", "")
	assert.Error(t, err, "Backlinks")
	_, err = s.Search("x", 5)
	assert.Error(t, err, "Search")
	_, err = s.Neighborhood("/a.md", 2)
	assert.Error(t, err, "Neighborhood")
}

func TestSanitizeFTS(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"jwt auth", `"jwt" "auth"`},
		{`"quoted"`, `"quoted"`},
		{`""`, ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFTS(tt.in), "sanitizeFTS(%q)", tt.in)
	}
}
