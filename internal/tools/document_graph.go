package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/index"
	"github.com/mark3labs/mcp-go/mcp"
)

// DocumentGraphTool handles the document_graph MCP tool.
type DocumentGraphTool struct {
	store  *index.Store
	parser *addressing.Parser
}

// NewDocumentGraphTool creates a DocumentGraphTool over the reference index.
func NewDocumentGraphTool(store *index.Store, parser *addressing.Parser) *DocumentGraphTool {
	return &DocumentGraphTool{store: store, parser: parser}
}

// Definition returns the MCP tool definition for registration.
func (t *DocumentGraphTool) Definition() mcp.Tool {
	return mcp.NewTool("document_graph",
		mcp.WithDescription(
			"Walk the reference graph around a document in both directions: "+
				"pages it references and pages that reference it. "+
				"Returns titles and paths grouped by distance, without content.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Document to start from, e.g. /guides/setup.md"),
		),
		mcp.WithNumber("depth",
			mcp.Description("How many hops to follow (default: 2, max: 5)"),
		),
	)
}

// Handle processes the document_graph tool call.
func (t *DocumentGraphTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, errRes := requireAddress(req)
	if errRes != nil {
		return errRes, nil
	}
	doc, _, _, err := t.parser.ParseAddress(address)
	if err != nil {
		return errorResult("document graph", err), nil
	}

	result, err := t.store.Neighborhood(doc.Path, intArg(req, "depth", 2))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build graph: %v", err)), nil
	}
	return mcp.NewToolResultText(formatGraphResult(result)), nil
}

// formatGraphResult renders a GraphResult as readable markdown.
func formatGraphResult(r *index.GraphResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Reference Graph for %s\n\n", r.Root)

	if len(r.Connected) == 0 {
		b.WriteString("No references to or from this document.\n")
		return b.String()
	}

	byDepth := make(map[int][]index.GraphNode)
	for _, n := range r.Connected {
		byDepth[n.Depth] = append(byDepth[n.Depth], n)
	}

	for d := 1; d <= r.MaxDepth; d++ {
		nodes, ok := byDepth[d]
		if !ok {
			continue
		}
		label := "Direct Links"
		if d > 1 {
			label = fmt.Sprintf("Depth %d Links", d)
		}
		fmt.Fprintf(&b, "## %s\n\n", label)

		for _, n := range nodes {
			arrow := "→"
			if n.Direction == "incoming" {
				arrow = "←"
			}
			title := n.Title
			if title == "" {
				title = "(not indexed)"
			}
			fmt.Fprintf(&b, "- %s %s %q via `%s`\n", arrow, n.Path, title, n.Via)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Total:** %d connected documents across %d level(s)\n", r.TotalNodes, r.MaxDepth)
	return b.String()
}
