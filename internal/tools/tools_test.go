package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/document"
	"github.com/HendryAvila/docmesh/internal/index"
	"github.com/HendryAvila/docmesh/internal/references"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

type fixture struct {
	root   string
	docs   *document.Cache
	parser *addressing.Parser
	loader *references.Loader
	store  *index.Store
}

// newFixture creates a docs tree in a temp dir, wires the core packages
// over it and indexes every document.
func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs, err := document.NewCache(document.Options{Root: root, Logger: logger})
	require.NoError(t, err)
	store, err := index.New(index.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = index.NewIndexer(store, docs, logger).Rebuild(context.Background())
	require.NoError(t, err)

	return &fixture{
		root:   root,
		docs:   docs,
		parser: addressing.NewParser(nil),
		loader: references.NewLoader(docs, logger),
		store:  store,
	}
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// handleOK runs a tool call that must succeed and returns its text.
func handleOK(t *testing.T, tool interface {
	Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}, args map[string]interface{}) string {
	t.Helper()
	res, err := tool.Handle(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.False(t, res.IsError, "unexpected error result: %s", resultText(res))
	return resultText(res)
}

var corpus = map[string]string{
	"guides/setup.md": "# Setup\n\nStart with @/api.md#authentication.\n\n## Install\n\nRun the installer. See @#configure.\n\n## Configure\n\nEdit the config.\n",
	"api.md":          "# API\n\n## Authentication\n\nUse tokens. Background in @/guides/setup.md.\n\n## Errors\n\nCodes.\n",
	"faq.md":          "# FAQ\n\nInstall help: @/guides/setup.md#install and @/gone.md\n",
}

// --- Helpers ---

func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"summary", DetailSummary},
		{"standard", DetailStandard},
		{"full", DetailFull},
		{"", DetailStandard},
		{"SUMMARY", DetailStandard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDetailLevel(tt.input), "ParseDetailLevel(%q)", tt.input)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Regexp(t, "^h\n", truncate("héllo world", 2), "truncate must not split a rune")
}

func TestNavigationHint(t *testing.T) {
	assert.Empty(t, navigationHint(5, 5, "x"))
	assert.Contains(t, navigationHint(2, 5, "More."), "Showing 2 of 5. More.")
}

// --- view_document ---

func TestViewDocument_Definition(t *testing.T) {
	f := newFixture(t, corpus)
	def := NewViewDocumentTool(f.docs, f.parser, f.loader, 2).Definition()
	assert.Equal(t, "view_document", def.Name)
	assert.Equal(t, []string{"address"}, def.InputSchema.Required)
}

func TestViewDocument_WholeDocumentWithReferences(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewViewDocumentTool(f.docs, f.parser, f.loader, 2)

	text := handleOK(t, tool, map[string]interface{}{
		"address":      "/guides/setup.md",
		"detail_level": "full",
	})
	for _, want := range []string{
		"# Setup",
		"**Namespace:** guides",
		"/api.md#authentication",
		"/guides/setup.md#configure",
		"Use tokens.",
		"**References:**",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "- **Setup** (/guides/setup.md)", "cycle back to the viewed document was expanded")
}

func TestViewDocument_Section(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewViewDocumentTool(f.docs, f.parser, f.loader, 1)

	text := handleOK(t, tool, map[string]interface{}{"address": "/guides/setup.md#install"})
	assert.Contains(t, text, "# Install")
	assert.Contains(t, text, "Run the installer.")
	assert.NotContains(t, text, "Start with", "content outside the section leaked")
	assert.Contains(t, text, "Edit the config.", "@#configure should resolve against the section's document")
}

func TestViewDocument_DepthZeroSkipsReferences(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewViewDocumentTool(f.docs, f.parser, f.loader, 3)

	text := handleOK(t, tool, map[string]interface{}{
		"address":         "/faq.md",
		"reference_depth": float64(0),
	})
	assert.NotContains(t, text, "Referenced Content")
}

func TestViewDocument_DepthClampedToMaximum(t *testing.T) {
	chain := make(map[string]string, 13)
	for i := 0; i < 13; i++ {
		chain[fmt.Sprintf("d%d.md", i)] = fmt.Sprintf("# D%d\n\nNext: @/d%d.md\n", i, i+1)
	}
	f := newFixture(t, chain)
	tool := NewViewDocumentTool(f.docs, f.parser, f.loader, 2)

	text := handleOK(t, tool, map[string]interface{}{
		"address":         "/d0.md",
		"reference_depth": float64(50),
	})
	assert.Contains(t, text, "(/d10.md)")
	assert.NotContains(t, text, "(/d11.md)")
}

func TestViewDocument_Errors(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewViewDocumentTool(f.docs, f.parser, f.loader, 2)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing address", map[string]interface{}{}, "'address' is required"},
		{"unknown document", map[string]interface{}{"address": "/nope.md"}, "document not found"},
		{"unknown section", map[string]interface{}{"address": "/api.md#nope"}, "Available sections"},
		{"relative section", map[string]interface{}{"address": "#install"}, "MISSING_CONTEXT"},
		{"invalid slug", map[string]interface{}{"address": "/api.md#Auth!"}, "INVALID_SLUG"},
		{"negative depth", map[string]interface{}{"address": "/api.md", "reference_depth": float64(-1)}, "zero or positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tool.Handle(context.Background(), makeReq(tt.args))
			require.NoError(t, err)
			require.True(t, res.IsError, "expected error result, got %s", resultText(res))
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

// --- resolve_address ---

func TestResolveAddress(t *testing.T) {
	tool := NewResolveAddressTool(addressing.NewParser(nil))

	tests := []struct {
		name string
		args map[string]interface{}
		want resolvedAddress
	}{
		{
			"document",
			map[string]interface{}{"address": "/api/auth"},
			resolvedAddress{Kind: KindDocument, Document: "/api/auth.md", Namespace: "api", FullPath: "/api/auth.md"},
		},
		{
			"section in document",
			map[string]interface{}{"address": "/api.md#auth//jwt/"},
			resolvedAddress{Kind: KindSection, Document: "/api.md", Namespace: "root", Slug: "auth/jwt", FullPath: "/api.md#auth/jwt"},
		},
		{
			"section with context",
			map[string]interface{}{"address": "#install", "context_document": "/guides/setup.md"},
			resolvedAddress{Kind: KindSection, Document: "/guides/setup.md", Namespace: "guides", Slug: "install", FullPath: "/guides/setup.md#install"},
		},
		{
			"task",
			map[string]interface{}{"address": "deploy", "context_document": "/ops.md", "kind": "task"},
			resolvedAddress{Kind: KindTask, Document: "/ops.md", Namespace: "root", Slug: "deploy", FullPath: "/ops.md#deploy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := handleOK(t, tool, tt.args)
			var got resolvedAddress
			require.NoError(t, json.Unmarshal([]byte(text), &got), "output is not JSON:\n%s", text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAddress_CodedErrors(t *testing.T) {
	tool := NewResolveAddressTool(addressing.NewParser(nil))

	tests := []struct {
		args map[string]interface{}
		code string
	}{
		{map[string]interface{}{"address": "#install", "kind": "section"}, "MISSING_CONTEXT"},
		{map[string]interface{}{"address": "/api.md#", "kind": "section"}, "EMPTY_SLUG"},
		{map[string]interface{}{"address": "/api.md#API/Auth!", "kind": "section"}, "INVALID_SLUG"},
		{map[string]interface{}{"address": "/", "kind": "document"}, "INVALID_DOCUMENT_PATH"},
	}
	for _, tt := range tests {
		res, err := tool.Handle(context.Background(), makeReq(tt.args))
		require.NoError(t, err)
		if !assert.True(t, res.IsError, "%v: expected error result", tt.args) {
			continue
		}
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &payload), "error payload is not JSON")
		assert.Equal(t, tt.code, payload["code"], "%v", tt.args)
	}

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"address": "/a.md", "kind": "chapter"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "unknown kind")
}

// --- find_backlinks ---

func TestFindBacklinks(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewFindBacklinksTool(f.store, f.parser)

	text := handleOK(t, tool, map[string]interface{}{"address": "/guides/setup.md"})
	for _, want := range []string{"/api.md via `@/guides/setup.md`", "/faq.md via", "**Total:** 2 backlink(s)"} {
		assert.Contains(t, text, want)
	}

	text = handleOK(t, tool, map[string]interface{}{"address": "/faq.md"})
	assert.Contains(t, text, "/gone.md **(broken)**", "broken outgoing reference not flagged")

	text = handleOK(t, tool, map[string]interface{}{"address": "/guides/setup.md#install"})
	assert.Contains(t, text, "**Total:** 1 backlink(s)")
}

// --- search / graph / list / stats ---

func TestSearchDocuments(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewSearchDocumentsTool(f.store)

	assert.Contains(t, handleOK(t, tool, map[string]interface{}{"query": "installer"}), "/guides/setup.md")
	assert.Contains(t, handleOK(t, tool, map[string]interface{}{"query": "zebra"}), "No documents found")
}

func TestDocumentGraph(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewDocumentGraphTool(f.store, f.parser)

	text := handleOK(t, tool, map[string]interface{}{"address": "/api.md", "depth": float64(1)})
	assert.Contains(t, text, "→ /guides/setup.md")
	assert.Contains(t, text, "Direct Links")

	text = handleOK(t, tool, map[string]interface{}{"address": "/faq.md", "depth": float64(2)})
	assert.Contains(t, text, "(not indexed)", "missing target should be shown as not indexed")
}

func TestListDocuments(t *testing.T) {
	f := newFixture(t, corpus)
	tool := NewListDocumentsTool(f.docs)

	text := handleOK(t, tool, map[string]interface{}{})
	assert.Contains(t, text, "## Documents (3)")
	assert.Contains(t, text, "- /api.md\n")

	text = handleOK(t, tool, map[string]interface{}{"pattern": "guides/*.md", "detail_level": "standard"})
	assert.Contains(t, text, "- /guides/setup.md: Setup")
}

func TestStatsTool(t *testing.T) {
	f := newFixture(t, corpus)

	text := handleOK(t, NewStatsTool(f.parser.Cache(), f.docs, f.store), nil)
	for _, want := range []string{"### Address cache", "**Documents**: 3", "(1 broken)"} {
		assert.Contains(t, text, want)
	}

	text = handleOK(t, NewStatsTool(f.parser.Cache(), f.docs, nil), nil)
	assert.Contains(t, text, "- disabled", "nil store should report disabled index")
}
