// Package tools implements the MCP tool handlers of docmesh.
//
// Each tool is a struct that receives its dependencies through its
// constructor, describes itself with Definition() and serves calls with
// Handle(). Tools hold no domain logic: they parse arguments, call the
// addressing, document, references or index packages and render the
// result as markdown for the host.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/document"
	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
)

// DocumentSource is the read side of the document cache.
type DocumentSource interface {
	GetDocument(ctx context.Context, docPath string) (*document.Snapshot, error)
	GetSectionContent(ctx context.Context, docPath, slug string) (string, error)
	List(ctx context.Context, pattern string) ([]string, error)
}

// Detail level constants.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to "standard"
// for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// standardContentLimit caps content bodies in standard detail mode.
const standardContentLimit = 1200

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// truncate shortens s to max bytes on a rune boundary, marking the cut.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n\n[... truncated]"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// contentFor renders a body according to the detail level.
func contentFor(body, detail string) string {
	switch detail {
	case DetailSummary:
		return ""
	case DetailFull:
		return body
	default:
		return truncate(body, standardContentLimit)
	}
}

// estimateTokens approximates token count with the chars/4 heuristic.
func estimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	if n/4 == 0 {
		return 1
	}
	return n / 4
}

// tokenFooter reports the approximate size of a response.
func tokenFooter(text string) string {
	return fmt.Sprintf("\n~%s tokens", humanize.Comma(int64(estimateTokens(text))))
}

// navigationHint returns a one-line footer when results are capped by a
// limit, or an empty string when everything fits.
func navigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\nShowing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\nShowing %d of %d.", showing, total)
}

// errorResult maps a domain error to a tool error the host can act on.
// Addressing failures keep their error code.
func errorResult(action string, err error) *mcp.CallToolResult {
	var addrErr *addressing.AddressingError
	switch {
	case errors.As(err, &addrErr):
		return mcp.NewToolResultError(fmt.Sprintf("invalid address [%s]: %s", addrErr.Code, addrErr.Message))
	case errors.Is(err, document.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s: document not found", action))
	case errors.Is(err, document.ErrSectionNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s: section not found", action))
	case errors.Is(err, document.ErrOutsideRoot):
		return mcp.NewToolResultError(fmt.Sprintf("%s: path is outside the documentation root", action))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
	}
}

// requireAddress reads the mandatory "address" argument.
func requireAddress(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	address := strings.TrimSpace(req.GetString("address", ""))
	if address == "" {
		return "", mcp.NewToolResultError("'address' is required, e.g. /guides/setup.md or /api.md#authentication")
	}
	return address, nil
}
