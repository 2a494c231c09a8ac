// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/config"
	"github.com/HendryAvila/docmesh/internal/document"
	"github.com/HendryAvila/docmesh/internal/index"
	"github.com/HendryAvila/docmesh/internal/prompts"
	"github.com/HendryAvila/docmesh/internal/references"
	"github.com/HendryAvila/docmesh/internal/resources"
	"github.com/HendryAvila/docmesh/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Components are the core services behind the MCP surface. The CLI uses
// them directly for its non-server commands.
type Components struct {
	Config  *config.Config
	Logger  *slog.Logger
	Parser  *addressing.Parser
	Docs    *document.Cache
	Loader  *references.Loader
	Store   *index.Store   // nil when the index is disabled or failed to open
	Indexer *index.Indexer // nil when Store is nil
	Watcher *document.Watcher
}

// Build resolves every dependency described by cfg. The index is an
// independent subsystem: if it fails to open, Build logs a warning and
// continues without it. The returned cleanup function is always non-nil.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	docs, err := document.NewCache(document.Options{
		Root:     cfg.DocsRoot,
		Capacity: cfg.DocumentCacheSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("creating document cache: %w", err)
	}

	c := &Components{
		Config: cfg,
		Logger: logger,
		Parser: addressing.NewParser(addressing.NewCache(cfg.AddressCacheSize)),
		Docs:   docs,
		Loader: references.NewLoader(docs, logger),
	}

	ctx, cancel := context.WithCancel(ctx)
	cleanups := []func(){cancel}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.IndexEnabled {
		idxCfg := index.DefaultConfig()
		idxCfg.DataDir = cfg.DataDir
		store, err := index.New(idxCfg)
		if err != nil {
			logger.Warn("reference index disabled", "error", err)
		} else {
			c.Store = store
			c.Indexer = index.NewIndexer(store, docs, logger)
			cleanups = append(cleanups, func() {
				if err := store.Close(); err != nil {
					logger.Warn("index store close", "error", err)
				}
			})
			if _, err := c.Indexer.Rebuild(ctx); err != nil {
				logger.Warn("initial index rebuild failed", "error", err)
			}
		}
	}

	// Invalidation keeps the address cache and the index in step with
	// the document cache.
	docs.OnInvalidate(func(docPath string) {
		c.Parser.InvalidateDocument(docPath)
		if c.Indexer == nil {
			return
		}
		if _, err := c.Indexer.Refresh(ctx, docPath); err != nil {
			logger.Warn("index refresh failed", "path", docPath, "error", err)
		}
	})

	if cfg.Watch {
		w, err := document.NewWatcher(docs, nil, logger)
		if err == nil {
			err = w.Start(ctx)
		}
		if err != nil {
			logger.Warn("document watcher disabled", "error", err)
		} else {
			c.Watcher = w
			cleanups = append(cleanups, func() {
				if err := w.Stop(); err != nil {
					logger.Warn("document watcher stop", "error", err)
				}
			})
		}
	}

	return c, cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup function stops the watcher and closes the index
// database. It must be called on shutdown (typically via defer) and is
// always non-nil.
func New(cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	c, cleanup, err := Build(context.Background(), cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}

	s := server.NewMCPServer(
		"docmesh",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)
	Register(s, c)
	return s, cleanup, nil
}

// Register adds every tool, prompt and resource backed by c to s. Tools
// that need the reference index are skipped when it is unavailable.
func Register(s *server.MCPServer, c *Components) {
	// --- Document tools ---

	viewTool := tools.NewViewDocumentTool(c.Docs, c.Parser, c.Loader, c.Config.ReferenceDepth)
	s.AddTool(viewTool.Definition(), viewTool.Handle)

	resolveTool := tools.NewResolveAddressTool(c.Parser)
	s.AddTool(resolveTool.Definition(), resolveTool.Handle)

	listTool := tools.NewListDocumentsTool(c.Docs)
	s.AddTool(listTool.Definition(), listTool.Handle)

	statsTool := tools.NewStatsTool(c.Parser.Cache(), c.Docs, c.Store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Index tools ---

	if c.Store != nil {
		backlinksTool := tools.NewFindBacklinksTool(c.Store, c.Parser)
		s.AddTool(backlinksTool.Definition(), backlinksTool.Handle)

		searchTool := tools.NewSearchDocumentsTool(c.Store)
		s.AddTool(searchTool.Definition(), searchTool.Handle)

		graphTool := tools.NewDocumentGraphTool(c.Store, c.Parser)
		s.AddTool(graphTool.Definition(), graphTool.Handle)
	}

	// --- Prompts ---

	explorePrompt := prompts.NewExplorePrompt()
	s.AddPrompt(explorePrompt.Definition(), explorePrompt.Handle)

	auditPrompt := prompts.NewAuditPrompt()
	s.AddPrompt(auditPrompt.Definition(), auditPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(c.Parser.Cache(), c.Docs, c.Store)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)
	s.AddResource(resourceHandler.BrokenResource(), resourceHandler.HandleBroken)
}

// noop is the cleanup returned when nothing needs releasing.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use docmesh effectively.
func serverInstructions() string {
	return `You have access to docmesh, a documentation server that understands links between markdown pages.

## ADDRESSES

- Documents: /guides/setup.md (the .md suffix may be omitted)
- Sections: /guides/setup.md#install, or a hierarchical slug such as /api.md#authentication/jwt
- Inside a document, @#slug refers to a section of the same page

## HOW TO READ DOCUMENTATION

1. Use list_documents or search_documents to find a starting page
2. Use view_document to read it. References written as @/other.md or @#section are
   followed automatically and returned as a tree, up to reference_depth levels
3. Use find_backlinks before changing a page, to see what depends on it
4. Use document_graph to see the neighborhood of a page

## RULES

- Prefer a section address over a whole document when you only need one part
- Keep reference_depth low (1-2) for large pages; use detail_level=summary to skim
- resolve_address explains why an address is invalid (error codes such as MISSING_CONTEXT)
- Broken references are listed by the docmesh://index/broken resource`
}
