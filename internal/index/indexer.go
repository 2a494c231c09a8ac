package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/docmesh/internal/document"
	"github.com/HendryAvila/docmesh/internal/references"
)

// Source is the document tree the indexer reads from.
type Source interface {
	List(ctx context.Context, pattern string) ([]string, error)
	GetDocument(ctx context.Context, docPath string) (*document.Snapshot, error)
}

// RebuildResult counts what a full rebuild did.
type RebuildResult struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

// Indexer keeps a Store in step with a Source.
type Indexer struct {
	store  *Store
	source Source
	logger *slog.Logger
}

// NewIndexer creates an Indexer writing into store.
func NewIndexer(store *Store, source Source, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, source: source, logger: logger}
}

// Store returns the underlying store.
func (ix *Indexer) Store() *Store {
	return ix.store
}

// Refresh reindexes one document. A document that no longer exists is
// removed from the index. It reports whether the index changed.
func (ix *Indexer) Refresh(ctx context.Context, docPath string) (bool, error) {
	docPath = document.CleanPath(docPath)

	snap, err := ix.source.GetDocument(ctx, docPath)
	if errors.Is(err, document.ErrNotFound) {
		removed, rerr := ix.store.RemoveDocument(docPath)
		if rerr != nil {
			return false, rerr
		}
		if removed {
			ix.logger.Debug("document removed from index", "path", docPath)
		}
		return removed, nil
	}
	if err != nil {
		return false, fmt.Errorf("refresh %s: %w", docPath, err)
	}

	existing, err := ix.store.GetDocument(docPath)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.ContentHash == snap.Metadata.ContentHash {
		return false, nil
	}

	refs, err := references.NormalizeReferences(
		references.ExtractReferences(snap.Content), docPath, ix.logger)
	if err != nil {
		return false, fmt.Errorf("refresh %s: %w", docPath, err)
	}

	rec := DocumentRecord{
		Path:        docPath,
		Title:       snap.Metadata.Title,
		Namespace:   snap.Metadata.Namespace,
		ContentHash: snap.Metadata.ContentHash,
		WordCount:   snap.Metadata.WordCount,
		Content:     snap.Content,
	}
	if err := ix.store.IndexDocument(rec, refs); err != nil {
		return false, err
	}
	ix.logger.Debug("document indexed", "path", docPath, "references", len(refs))
	return true, nil
}

// Rebuild indexes every markdown document in the source and drops indexed
// documents that no longer exist. Per-document failures are logged and
// counted; only listing failures and cancellation abort the rebuild.
func (ix *Indexer) Rebuild(ctx context.Context) (RebuildResult, error) {
	var result RebuildResult

	paths, err := ix.source.List(ctx, document.DefaultPattern)
	if err != nil {
		return result, fmt.Errorf("rebuild: %w", err)
	}

	present := make(map[string]bool, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		present[p] = true

		changed, err := ix.Refresh(ctx, p)
		switch {
		case err != nil:
			result.Failed++
			ix.logger.Warn("index refresh failed", "path", p, "error", err)
		case changed:
			result.Indexed++
		default:
			result.Unchanged++
		}
	}

	indexed, err := ix.store.Paths()
	if err != nil {
		return result, fmt.Errorf("rebuild: %w", err)
	}
	for _, p := range indexed {
		if present[p] {
			continue
		}
		if removed, err := ix.store.RemoveDocument(p); err != nil {
			result.Failed++
			ix.logger.Warn("index prune failed", "path", p, "error", err)
		} else if removed {
			result.Removed++
		}
	}

	ix.logger.Info("index rebuilt",
		"indexed", result.Indexed,
		"unchanged", result.Unchanged,
		"removed", result.Removed,
		"failed", result.Failed,
	)
	return result, nil
}
