package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/docmesh/internal/index"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchDocumentsTool handles the search_documents MCP tool.
type SearchDocumentsTool struct {
	store *index.Store
}

// NewSearchDocumentsTool creates a SearchDocumentsTool over the reference index.
func NewSearchDocumentsTool(store *index.Store) *SearchDocumentsTool {
	return &SearchDocumentsTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchDocumentsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription(
			"Full-text search over indexed document titles and content. "+
				"An empty query lists the most recently indexed documents.",
		),
		mcp.WithString("query",
			mcp.Description("Words to search for; every word must match"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 10, max: 20)"),
		),
	)
}

// Handle processes the search_documents tool call.
func (t *SearchDocumentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	limit := intArg(req, "limit", 10)

	results, err := t.store.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No documents found for %q.", query)), nil
	}

	var sb strings.Builder
	if query == "" {
		sb.WriteString("## Recently Indexed Documents\n\n")
	} else {
		fmt.Fprintf(&sb, "## Search Results for %q\n\n", query)
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. **%s** %s [%s, %d words]\n", i+1, r.Title, r.Path, r.Namespace, r.WordCount)
	}
	sb.WriteString("\nUse view_document with a path for full content.\n")
	return mcp.NewToolResultText(sb.String()), nil
}
