package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/mark3labs/mcp-go/mcp"
)

// Address kinds accepted by resolve_address.
const (
	KindAuto     = "auto"
	KindDocument = "document"
	KindSection  = "section"
	KindTask     = "task"
)

// ResolveAddressTool handles the resolve_address MCP tool.
// It parses an address without touching the filesystem and returns the
// canonical structured form, or the coded addressing error.
type ResolveAddressTool struct {
	parser *addressing.Parser
}

// NewResolveAddressTool creates a ResolveAddressTool.
func NewResolveAddressTool(parser *addressing.Parser) *ResolveAddressTool {
	return &ResolveAddressTool{parser: parser}
}

// Definition returns the MCP tool definition for registration.
func (t *ResolveAddressTool) Definition() mcp.Tool {
	return mcp.NewTool("resolve_address",
		mcp.WithDescription(
			"Normalize a document, section or task address into its canonical form. "+
				"Returns JSON with the document path, namespace, slug and full path, or an "+
				"error with a machine-readable code (EMPTY_ADDRESS, EMPTY_SLUG, MISSING_CONTEXT, "+
				"INVALID_DOCUMENT_PATH, SLUG_TOO_DEEP, INVALID_SLUG).",
		),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("Address to resolve: /api.md, /api.md#auth, #auth or auth/jwt"),
		),
		mcp.WithString("context_document",
			mcp.Description("Document that relative section addresses resolve against"),
		),
		mcp.WithString("kind",
			mcp.Description("What the address names: 'auto' (default), 'document', 'section' or 'task'"),
			mcp.Enum(KindAuto, KindDocument, KindSection, KindTask),
		),
	)
}

// resolvedAddress is the JSON payload returned to the host.
type resolvedAddress struct {
	Kind      string `json:"kind"`
	Document  string `json:"document"`
	Namespace string `json:"namespace"`
	Slug      string `json:"slug,omitempty"`
	FullPath  string `json:"full_path"`
}

// Handle processes the resolve_address tool call.
func (t *ResolveAddressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, errRes := requireAddress(req)
	if errRes != nil {
		return errRes, nil
	}
	contextDoc := strings.TrimSpace(req.GetString("context_document", ""))
	kind := req.GetString("kind", KindAuto)

	res, err := t.resolve(address, contextDoc, kind)
	if err != nil {
		var addrErr *addressing.AddressingError
		if errors.As(err, &addrErr) {
			payload, _ := json.Marshal(map[string]any{
				"code":    addrErr.Code,
				"message": addrErr.Message,
				"context": addrErr.Context,
			})
			return mcp.NewToolResultError(string(payload)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling address: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *ResolveAddressTool) resolve(address, contextDoc, kind string) (resolvedAddress, error) {
	if kind == KindAuto {
		switch {
		case strings.HasPrefix(address, "/") && !strings.Contains(address, "#"):
			kind = KindDocument
		case strings.Contains(address, "#"), contextDoc != "":
			kind = KindSection
		default:
			kind = KindDocument
		}
	}

	switch kind {
	case KindDocument:
		doc, err := t.parser.ParseDocumentAddress(address)
		if err != nil {
			return resolvedAddress{}, err
		}
		return resolvedAddress{Kind: kind, Document: doc.Path, Namespace: doc.Namespace, FullPath: doc.FullPath}, nil
	case KindSection, KindTask:
		parse := t.parser.ParseSectionAddress
		if kind == KindTask {
			parse = t.parser.ParseTaskAddress
		}
		sec, err := parse(address, contextDoc)
		if err != nil {
			return resolvedAddress{}, err
		}
		return resolvedAddress{
			Kind:      kind,
			Document:  sec.Document.Path,
			Namespace: sec.Document.Namespace,
			Slug:      sec.Slug,
			FullPath:  sec.FullPath,
		}, nil
	default:
		return resolvedAddress{}, fmt.Errorf("unknown kind %q: use auto, document, section or task", kind)
	}
}
