package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxListedDocuments caps list_documents output.
const maxListedDocuments = 200

// ListDocumentsTool handles the list_documents MCP tool.
type ListDocumentsTool struct {
	docs DocumentSource
}

// NewListDocumentsTool creates a ListDocumentsTool.
func NewListDocumentsTool(docs DocumentSource) *ListDocumentsTool {
	return &ListDocumentsTool{docs: docs}
}

// Definition returns the MCP tool definition for registration.
func (t *ListDocumentsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription(
			"List documentation pages under the docs root, optionally filtered by a glob "+
				"pattern such as /guides/**/*.md. With detail_level 'standard' or 'full' each "+
				"entry also shows the page title.",
		),
		mcp.WithString("pattern",
			mcp.Description("Glob pattern relative to the docs root (default: **/*.md)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("'summary' (default here, paths only), 'standard' or 'full' (with titles)"),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the list_documents tool call.
func (t *ListDocumentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := strings.TrimSpace(req.GetString("pattern", ""))
	detail := req.GetString("detail_level", DetailSummary)

	paths, err := t.docs.List(ctx, pattern)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents: %v", err)), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("No documents match."), nil
	}

	shown := paths
	if len(shown) > maxListedDocuments {
		shown = shown[:maxListedDocuments]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Documents (%d)\n\n", len(paths))
	for _, p := range shown {
		if ParseDetailLevel(detail) == DetailSummary {
			fmt.Fprintf(&sb, "- %s\n", p)
			continue
		}
		title := ""
		if snap, err := t.docs.GetDocument(ctx, p); err == nil {
			title = snap.Metadata.Title
		}
		fmt.Fprintf(&sb, "- %s: %s\n", p, title)
	}
	sb.WriteString(navigationHint(len(shown), len(paths), "Narrow the pattern to see the rest."))
	return mcp.NewToolResultText(sb.String()), nil
}
