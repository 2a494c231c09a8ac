package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/index"
	"github.com/HendryAvila/docmesh/internal/lru"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsSource is anything that reports snapshot cache counters.
type StatsSource interface {
	Stats() lru.Stats
}

// StatsTool handles the docmesh_stats MCP tool.
type StatsTool struct {
	addresses *addressing.Cache
	documents StatsSource
	store     *index.Store // nil when the index is disabled
}

// NewStatsTool creates a StatsTool. store may be nil.
func NewStatsTool(addresses *addressing.Cache, documents StatsSource, store *index.Store) *StatsTool {
	return &StatsTool{addresses: addresses, documents: documents, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("docmesh_stats",
		mcp.WithDescription(
			"Show cache and index statistics: address and document cache hit rates, "+
				"indexed documents, reference counts and broken references.",
		),
	)
}

// Handle processes the docmesh_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("## docmesh Statistics\n\n")

	addr := t.addresses.Stats()
	sb.WriteString("### Address cache\n\n")
	writeLRUStats(&sb, "Documents", addr.Documents)
	writeLRUStats(&sb, "Sections", addr.Sections)
	writeLRUStats(&sb, "Tasks", addr.Tasks)

	sb.WriteString("\n### Document cache\n\n")
	writeLRUStats(&sb, "Snapshots", t.documents.Stats())

	sb.WriteString("\n### Reference index\n\n")
	if t.store == nil {
		sb.WriteString("- disabled\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	st, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get index stats: %v", err)), nil
	}
	fmt.Fprintf(&sb, "- **Documents**: %d\n", st.TotalDocuments)
	fmt.Fprintf(&sb, "- **References**: %d (%d broken)\n", st.TotalReferences, st.BrokenReferences)
	if len(st.Namespaces) > 0 {
		fmt.Fprintf(&sb, "- **Namespaces** (%d): %s\n", len(st.Namespaces), strings.Join(st.Namespaces, ", "))
	} else {
		sb.WriteString("- **Namespaces**: none\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func writeLRUStats(sb *strings.Builder, label string, s lru.Stats) {
	fmt.Fprintf(sb, "- **%s**: %d/%d entries, %d hits, %d misses, %d evictions\n",
		label, s.Size, s.Capacity, s.Hits, s.Misses, s.Evictions)
}
