package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/config"
	"github.com/HendryAvila/docmesh/internal/references"
	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
)

// ViewDocumentTool handles the view_document MCP tool.
// It returns a document or one of its sections together with the content
// of everything it references, loaded to a bounded depth.
type ViewDocumentTool struct {
	docs         DocumentSource
	parser       *addressing.Parser
	loader       *references.Loader
	defaultDepth int
}

// NewViewDocumentTool creates a ViewDocumentTool with its dependencies.
// defaultDepth applies when the call does not name a reference_depth.
func NewViewDocumentTool(docs DocumentSource, parser *addressing.Parser, loader *references.Loader, defaultDepth int) *ViewDocumentTool {
	return &ViewDocumentTool{docs: docs, parser: parser, loader: loader, defaultDepth: defaultDepth}
}

// Definition returns the MCP tool definition for registration.
func (t *ViewDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("view_document",
		mcp.WithDescription(
			"Read a documentation page or a single section of it. "+
				"@references inside the content (@/other.md, @/other.md#section, @#local-section) "+
				"are followed and their content is returned as a tree, up to reference_depth levels. "+
				"Cycles are cut and broken references are skipped.",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Document or section address: /guides/setup.md or /guides/setup.md#install/linux"),
		),
		mcp.WithNumber("reference_depth",
			mcp.Description("How many levels of references to load (0 disables reference loading, max 10)"),
		),
		mcp.WithBoolean("include_references",
			mcp.Description("Load referenced content (default: true)"),
		),
		mcp.WithString("detail_level",
			mcp.Description(
				"Level of detail for referenced content: 'summary' (paths and titles only), "+
					"'standard' (default, truncated content), 'full' (complete content).",
			),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the view_document tool call.
func (t *ViewDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, errRes := requireAddress(req)
	if errRes != nil {
		return errRes, nil
	}
	depth := intArg(req, "reference_depth", t.defaultDepth)
	if depth < 0 {
		return mcp.NewToolResultError("'reference_depth' must be zero or positive"), nil
	}
	depth = min(depth, config.MaxReferenceDepth)
	detail := ParseDetailLevel(req.GetString("detail_level", ""))

	doc, section, hasSection, err := t.parser.ParseAddress(address)
	if err != nil {
		return errorResult("view document", err), nil
	}

	snap, err := t.docs.GetDocument(ctx, doc.Path)
	if err != nil {
		return errorResult("view document", err), nil
	}

	title := snap.Metadata.Title
	content := snap.Content
	canonical := doc.FullPath
	if hasSection {
		heading, ok := snap.ResolveSlug(section.Slug)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf(
				"view document: section %q not found in %s. Available sections: %s",
				section.Slug, doc.Path, strings.Join(snap.Slugs(), ", "))), nil
		}
		content, err = t.docs.GetSectionContent(ctx, doc.Path, section.Slug)
		if err != nil {
			return errorResult("view document", err), nil
		}
		title = heading.Title
		canonical = section.FullPath
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "**Address:** %s\n", canonical)
	fmt.Fprintf(&sb, "**Namespace:** %s\n", snap.Metadata.Namespace)
	fmt.Fprintf(&sb, "**Size:** %s, %d words\n", humanize.Bytes(uint64(snap.Metadata.Size)), snap.Metadata.WordCount)
	if !snap.Metadata.LastModified.IsZero() {
		fmt.Fprintf(&sb, "**Modified:** %s\n", humanize.Time(snap.Metadata.LastModified))
	}
	sb.WriteString("\n---\n\n")
	sb.WriteString(content)
	sb.WriteString("\n")

	if boolArg(req, "include_references", true) && depth > 0 {
		refs, err := references.NormalizeReferences(references.ExtractReferences(content), doc.Path, nil)
		if err != nil {
			return errorResult("load references", err), nil
		}
		// The viewed document is the root of every branch.
		visited := map[string]bool{doc.Path: true, canonical: true}
		nodes, err := t.loader.LoadReferences(ctx, refs, depth, 0, visited)
		if err != nil {
			return errorResult("load references", err), nil
		}
		writeReferenceTree(&sb, nodes, detail)
	}

	out := sb.String()
	return mcp.NewToolResultText(out + tokenFooter(out)), nil
}

// writeReferenceTree renders loaded references as nested sections followed
// by traversal statistics.
func writeReferenceTree(sb *strings.Builder, nodes []*references.HierarchicalContent, detail string) {
	sb.WriteString("\n## Referenced Content\n\n")
	if len(nodes) == 0 {
		sb.WriteString("No resolvable references.\n")
		return
	}

	var walk func(ns []*references.HierarchicalContent)
	walk = func(ns []*references.HierarchicalContent) {
		for _, n := range ns {
			indent := strings.Repeat("  ", n.Depth)
			fmt.Fprintf(sb, "%s- **%s** (%s) [%s, depth %d]\n", indent, n.Title, n.Path, n.Namespace, n.Depth)
			if body := contentFor(n.Content, detail); body != "" {
				for _, line := range strings.Split(body, "\n") {
					fmt.Fprintf(sb, "%s  > %s\n", indent, line)
				}
			}
			walk(n.Children)
		}
	}
	walk(nodes)

	stats := references.GetHierarchyStats(nodes)
	fmt.Fprintf(sb, "\n**References:** %d loaded, max depth %d, namespaces: %s\n",
		stats.TotalDocuments, stats.MaxDepth, strings.Join(stats.Namespaces, ", "))
}
