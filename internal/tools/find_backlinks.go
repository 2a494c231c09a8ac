package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/index"
	"github.com/mark3labs/mcp-go/mcp"
)

// FindBacklinksTool handles the find_backlinks MCP tool.
type FindBacklinksTool struct {
	store  *index.Store
	parser *addressing.Parser
}

// NewFindBacklinksTool creates a FindBacklinksTool over the reference index.
func NewFindBacklinksTool(store *index.Store, parser *addressing.Parser) *FindBacklinksTool {
	return &FindBacklinksTool{store: store, parser: parser}
}

// Definition returns the MCP tool definition for registration.
func (t *FindBacklinksTool) Definition() mcp.Tool {
	return mcp.NewTool("find_backlinks",
		mcp.WithDescription(
			"List the documents that reference a document or one of its sections. "+
				"Use this before renaming or deleting a page to see what would break. "+
				"Also reports the page's own outgoing references.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Target document (/api.md) or section (/api.md#auth)"),
		),
	)
}

// Handle processes the find_backlinks tool call.
func (t *FindBacklinksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, errRes := requireAddress(req)
	if errRes != nil {
		return errRes, nil
	}

	doc, section, hasSection, err := t.parser.ParseAddress(address)
	if err != nil {
		return errorResult("find backlinks", err), nil
	}
	slug := ""
	target := doc.Path
	if hasSection {
		slug = section.Slug
		target = section.FullPath
	}

	back, err := t.store.Backlinks(doc.Path, slug)
	if err != nil {
		return errorResult("find backlinks", err), nil
	}
	out, err := t.store.Outgoing(doc.Path)
	if err != nil {
		return errorResult("find backlinks", err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Backlinks for %s\n\n", target)
	if len(back) == 0 {
		sb.WriteString("No indexed document references this address.\n")
	} else {
		for _, l := range back {
			fmt.Fprintf(&sb, "- %s via `%s`", l.FromPath, l.OriginalRef)
			if l.Section != "" && !hasSection {
				fmt.Fprintf(&sb, " (section %s)", l.Section)
			}
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\n## Outgoing references of %s\n\n", doc.Path)
	if len(out) == 0 {
		sb.WriteString("None.\n")
	}
	for _, l := range out {
		marker := ""
		if l.Broken {
			marker = " **(broken)**"
		}
		fmt.Fprintf(&sb, "- %s%s\n", l.ResolvedPath, marker)
	}

	fmt.Fprintf(&sb, "\n**Total:** %d backlink(s), %d outgoing\n", len(back), len(out))
	return mcp.NewToolResultText(sb.String()), nil
}
