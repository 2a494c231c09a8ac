// Package resources implements MCP resource handlers for docmesh.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (docmesh://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/index"
	"github.com/HendryAvila/docmesh/internal/lru"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	StatsURI  = "docmesh://stats"
	BrokenURI = "docmesh://index/broken"
)

// CacheStatter reports document cache counters.
type CacheStatter interface {
	Stats() lru.Stats
}

// Handler manages docmesh resource endpoints.
type Handler struct {
	addresses *addressing.Cache
	documents CacheStatter
	store     *index.Store // nil when the index is disabled
}

// NewHandler creates a resource Handler with its dependencies. store may be nil.
func NewHandler(addresses *addressing.Cache, documents CacheStatter, store *index.Store) *Handler {
	return &Handler{addresses: addresses, documents: documents, store: store}
}

// statsPayload is the JSON body of the stats resource.
type statsPayload struct {
	Addresses addressing.CacheStats `json:"addresses"`
	Documents lru.Stats             `json:"documents"`
	Index     *index.Stats          `json:"index,omitempty"`
}

// StatsResource returns the MCP resource definition for cache and index statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		StatsURI,
		"docmesh Statistics",
		mcp.WithResourceDescription("Address cache, document cache and reference index counters"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the current statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := statsPayload{
		Addresses: h.addresses.Stats(),
		Documents: h.documents.Stats(),
	}
	if h.store != nil {
		st, err := h.store.Stats()
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		payload.Index = st
	}
	return jsonResource(req.Params.URI, payload)
}

// BrokenResource returns the MCP resource definition for broken references.
func (h *Handler) BrokenResource() mcp.Resource {
	return mcp.NewResource(
		BrokenURI,
		"Broken References",
		mcp.WithResourceDescription("References whose target document is not in the index"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBroken lists every broken reference as JSON.
func (h *Handler) HandleBroken(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.store == nil {
		return errorResource(req.Params.URI, "reference index is disabled"), nil
	}
	links, err := h.store.BrokenLinks()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if links == nil {
		links = []index.Link{}
	}
	return jsonResource(req.Params.URI, links)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
