// Package index keeps a persistent reference graph of the documentation
// tree: which documents exist, what each one references and which
// documents point back at it.
//
// It uses SQLite with FTS5 full-text search so backlink, outgoing-link and
// title/content queries survive restarts without reparsing every document.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/docmesh/internal/references"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// DocumentRecord is the indexed view of one document.
type DocumentRecord struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Namespace   string `json:"namespace"`
	ContentHash string `json:"content_hash"`
	WordCount   int    `json:"word_count"`
	Content     string `json:"-"`
	IndexedAt   string `json:"indexed_at,omitempty"`
}

// Link is one reference edge between documents.
type Link struct {
	FromPath     string `json:"from_path"`
	ToPath       string `json:"to_path"`
	Section      string `json:"section,omitempty"`
	ResolvedPath string `json:"resolved_path"`
	OriginalRef  string `json:"original_ref"`
	// Broken is set when ToPath is not an indexed document.
	Broken bool `json:"broken,omitempty"`
}

// SearchResult is a document matched by full-text search.
type SearchResult struct {
	DocumentRecord
	Rank float64 `json:"rank"`
}

// GraphNode is one document reached while walking the link graph.
type GraphNode struct {
	Path      string `json:"path"`
	Title     string `json:"title,omitempty"`
	Direction string `json:"direction"` // "outgoing" or "incoming"
	Via       string `json:"via"`
	Depth     int    `json:"depth"`
}

// GraphResult holds a link graph traversal.
type GraphResult struct {
	Root       string      `json:"root"`
	Connected  []GraphNode `json:"connected"`
	TotalNodes int         `json:"total_nodes"`
	MaxDepth   int         `json:"max_depth"`
}

// Stats holds aggregate index statistics.
type Stats struct {
	TotalDocuments   int      `json:"total_documents"`
	TotalReferences  int      `json:"total_references"`
	BrokenReferences int      `json:"broken_references"`
	Namespaces       []string `json:"namespaces"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds index store configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
	MaxGraphDepth    int
}

// DefaultConfig returns the default configuration for the index store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".docmesh"),
		MaxSearchResults: 20,
		MaxGraphDepth:    5,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent reference index backed by SQLite + FTS5.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type sqlRowScanner struct {
	rows *sql.Rows
}

func (r sqlRowScanner) Next() bool             { return r.rows.Next() }
func (r sqlRowScanner) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRowScanner) Err() error             { return r.rows.Err() }
func (r sqlRowScanner) Close() error           { return r.rows.Close() }

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	queryIt func(db queryer, query string, args ...any) (rowScanner, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		exec: func(db execer, query string, args ...any) (sql.Result, error) {
			return db.Exec(query, args...)
		},
		queryIt: func(db queryer, query string, args ...any) (rowScanner, error) {
			rows, err := db.Query(query, args...)
			if err != nil {
				return nil, err
			}
			return sqlRowScanner{rows: rows}, nil
		},
		beginTx: func(db *sql.DB) (*sql.Tx, error) {
			return db.Begin()
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryItHook(db queryer, query string, args ...any) (rowScanner, error) {
	if s.hooks.queryIt != nil {
		return s.hooks.queryIt(db, query, args...)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRowScanner{rows: rows}, nil
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 20
	}
	if cfg.MaxGraphDepth <= 0 {
		cfg.MaxGraphDepth = 5
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("index: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "index.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("index: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("index: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, hooks: defaultStoreHooks()}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			path         TEXT    NOT NULL UNIQUE,
			title        TEXT    NOT NULL,
			namespace    TEXT    NOT NULL,
			content_hash TEXT    NOT NULL,
			word_count   INTEGER NOT NULL DEFAULT 0,
			content      TEXT    NOT NULL,
			indexed_at   TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_doc_namespace ON documents(namespace);

		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			title,
			content,
			namespace,
			content='documents',
			content_rowid='id'
		);

		CREATE TABLE IF NOT EXISTS refs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			from_path     TEXT NOT NULL,
			to_path       TEXT NOT NULL,
			to_section    TEXT NOT NULL DEFAULT '',
			resolved_path TEXT NOT NULL,
			original_ref  TEXT NOT NULL,
			FOREIGN KEY (from_path) REFERENCES documents(path) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_refs_from ON refs(from_path);
		CREATE INDEX IF NOT EXISTS idx_refs_to   ON refs(to_path, to_section);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_refs_unique ON refs(from_path, resolved_path);
	`
	if _, err := s.execHook(s.db, schema); err != nil {
		return err
	}

	// Create FTS triggers (idempotent)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='doc_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER doc_fts_insert AFTER INSERT ON documents BEGIN
				INSERT INTO documents_fts(rowid, title, content, namespace)
				VALUES (new.id, new.title, new.content, new.namespace);
			END;

			CREATE TRIGGER doc_fts_delete AFTER DELETE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, content, namespace)
				VALUES ('delete', old.id, old.title, old.content, old.namespace);
			END;

			CREATE TRIGGER doc_fts_update AFTER UPDATE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, title, content, namespace)
				VALUES ('delete', old.id, old.title, old.content, old.namespace);
				INSERT INTO documents_fts(rowid, title, content, namespace)
				VALUES (new.id, new.title, new.content, new.namespace);
			END;
		`
		if _, err := s.execHook(s.db, triggers); err != nil {
			return fmt.Errorf("create fts triggers: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("check fts triggers: %w", err)
	}

	return nil
}

// ─── Documents ───────────────────────────────────────────────────────────────

// IndexDocument stores rec and replaces every outgoing reference recorded
// for it with refs, in one transaction. References that resolve to the same
// path are stored once.
func (s *Store) IndexDocument(rec DocumentRecord, refs []references.NormalizedReference) error {
	if strings.TrimSpace(rec.Path) == "" {
		return fmt.Errorf("index document: empty path")
	}

	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("index document: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.execHook(tx,
		`INSERT INTO documents (path, title, namespace, content_hash, word_count, content, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(path) DO UPDATE SET
			title        = excluded.title,
			namespace    = excluded.namespace,
			content_hash = excluded.content_hash,
			word_count   = excluded.word_count,
			content      = excluded.content,
			indexed_at   = excluded.indexed_at`,
		rec.Path, rec.Title, rec.Namespace, rec.ContentHash, rec.WordCount, rec.Content,
	); err != nil {
		return fmt.Errorf("index document %s: %w", rec.Path, err)
	}

	if _, err := s.execHook(tx, `DELETE FROM refs WHERE from_path = ?`, rec.Path); err != nil {
		return fmt.Errorf("index document %s: clear refs: %w", rec.Path, err)
	}

	for _, ref := range refs {
		if _, err := s.execHook(tx,
			`INSERT OR IGNORE INTO refs (from_path, to_path, to_section, resolved_path, original_ref)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.Path, ref.DocumentPath, ref.SectionSlug, ref.ResolvedPath, ref.OriginalRef,
		); err != nil {
			return fmt.Errorf("index document %s: add ref %s: %w", rec.Path, ref.ResolvedPath, err)
		}
	}

	return s.commitHook(tx)
}

// RemoveDocument drops a document and its outgoing references. References
// other documents hold to it stay and become broken. Reports whether the
// document was indexed.
func (s *Store) RemoveDocument(docPath string) (bool, error) {
	tx, err := s.beginTxHook()
	if err != nil {
		return false, fmt.Errorf("remove document %s: begin tx: %w", docPath, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.execHook(tx, `DELETE FROM refs WHERE from_path = ?`, docPath); err != nil {
		return false, fmt.Errorf("remove document %s: clear refs: %w", docPath, err)
	}
	res, err := s.execHook(tx, `DELETE FROM documents WHERE path = ?`, docPath)
	if err != nil {
		return false, fmt.Errorf("remove document %s: %w", docPath, err)
	}
	n, _ := res.RowsAffected()
	if err := s.commitHook(tx); err != nil {
		return false, fmt.Errorf("remove document %s: commit: %w", docPath, err)
	}
	return n > 0, nil
}

// GetDocument returns the indexed record for docPath, or nil when the
// document is not indexed.
func (s *Store) GetDocument(docPath string) (*DocumentRecord, error) {
	rows, err := s.queryItHook(s.db,
		`SELECT path, title, namespace, content_hash, word_count, content, indexed_at
		 FROM documents WHERE path = ?`, docPath)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docPath, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var rec DocumentRecord
	if err := rows.Scan(&rec.Path, &rec.Title, &rec.Namespace, &rec.ContentHash,
		&rec.WordCount, &rec.Content, &rec.IndexedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Paths lists every indexed document path in sorted order.
func (s *Store) Paths() ([]string, error) {
	rows, err := s.queryItHook(s.db, `SELECT path FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// ─── Links ───────────────────────────────────────────────────────────────────

// Backlinks returns the references other documents hold to docPath,
// ordered by source. A non-empty section narrows the result to references
// naming that section.
func (s *Store) Backlinks(docPath, section string) ([]Link, error) {
	query := `
		SELECT r.from_path, r.to_path, r.to_section, r.resolved_path, r.original_ref,
		       d.id IS NULL
		FROM refs r
		LEFT JOIN documents d ON d.path = r.to_path
		WHERE r.to_path = ? AND r.from_path <> r.to_path`
	args := []any{docPath}
	if section != "" {
		query += " AND r.to_section = ?"
		args = append(args, section)
	}
	query += " ORDER BY r.from_path, r.id"

	return s.queryLinks("backlinks", query, args...)
}

// Outgoing returns the references recorded for docPath in the order they
// were indexed.
func (s *Store) Outgoing(docPath string) ([]Link, error) {
	return s.queryLinks("outgoing", `
		SELECT r.from_path, r.to_path, r.to_section, r.resolved_path, r.original_ref,
		       d.id IS NULL
		FROM refs r
		LEFT JOIN documents d ON d.path = r.to_path
		WHERE r.from_path = ?
		ORDER BY r.id`, docPath)
}

// BrokenLinks returns every reference whose target document is not indexed.
func (s *Store) BrokenLinks() ([]Link, error) {
	return s.queryLinks("broken links", `
		SELECT r.from_path, r.to_path, r.to_section, r.resolved_path, r.original_ref, 1
		FROM refs r
		LEFT JOIN documents d ON d.path = r.to_path
		WHERE d.id IS NULL
		ORDER BY r.from_path, r.id`)
}

func (s *Store) queryLinks(op, query string, args ...any) ([]Link, error) {
	rows, err := s.queryItHook(s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.FromPath, &l.ToPath, &l.Section, &l.ResolvedPath, &l.OriginalRef, &l.Broken); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Neighborhood walks the link graph outward from docPath using BFS,
// following references in both directions. Each document appears once, at
// the depth it was first reached. Depth defaults to 2 and is capped by
// MaxGraphDepth.
func (s *Store) Neighborhood(docPath string, maxDepth int) (*GraphResult, error) {
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if maxDepth > s.cfg.MaxGraphDepth {
		maxDepth = s.cfg.MaxGraphDepth
	}

	type queueItem struct {
		path  string
		depth int
	}

	visited := map[string]bool{docPath: true}
	queue := []queueItem{{path: docPath, depth: 0}}
	result := &GraphResult{Root: docPath, Connected: []GraphNode{}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}

		out, err := s.Outgoing(current.path)
		if err != nil {
			return nil, err
		}
		in, err := s.Backlinks(current.path, "")
		if err != nil {
			return nil, err
		}

		edges := make([]GraphNode, 0, len(out)+len(in))
		for _, l := range out {
			edges = append(edges, GraphNode{Path: l.ToPath, Direction: "outgoing", Via: l.OriginalRef})
		}
		for _, l := range in {
			edges = append(edges, GraphNode{Path: l.FromPath, Direction: "incoming", Via: l.OriginalRef})
		}

		for _, node := range edges {
			if visited[node.Path] {
				continue
			}
			visited[node.Path] = true

			node.Depth = current.depth + 1
			if rec, err := s.GetDocument(node.Path); err == nil && rec != nil {
				node.Title = rec.Title
			}
			result.Connected = append(result.Connected, node)
			if node.Depth > result.MaxDepth {
				result.MaxDepth = node.Depth
			}

			queue = append(queue, queueItem{path: node.Path, depth: node.Depth})
		}
	}

	result.TotalNodes = len(result.Connected)
	return result, nil
}

// ─── Search (FTS5) ───────────────────────────────────────────────────────────

// Search performs full-text search across indexed titles and content.
// An empty query returns the most recently indexed documents.
func (s *Store) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	var (
		sqlStr string
		args   []any
	)
	if ftsQuery := sanitizeFTS(query); ftsQuery != "" {
		sqlStr = `
			SELECT d.path, d.title, d.namespace, d.content_hash, d.word_count, d.content, d.indexed_at,
			       fts.rank
			FROM documents_fts fts
			JOIN documents d ON d.id = fts.rowid
			WHERE documents_fts MATCH ?
			ORDER BY fts.rank LIMIT ?`
		args = []any{ftsQuery, limit}
	} else {
		sqlStr = `
			SELECT path, title, namespace, content_hash, word_count, content, indexed_at, 0 AS rank
			FROM documents
			ORDER BY indexed_at DESC, path LIMIT ?`
		args = []any{limit}
	}

	rows, err := s.queryItHook(s.db, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []SearchResult{}
	for rows.Next() {
		var sr SearchResult
		if err := rows.Scan(&sr.Path, &sr.Title, &sr.Namespace, &sr.ContentHash,
			&sr.WordCount, &sr.Content, &sr.IndexedAt, &sr.Rank); err != nil {
			return nil, err
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate index statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{Namespaces: []string{}}

	_ = s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&stats.TotalDocuments)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM refs").Scan(&stats.TotalReferences)
	_ = s.db.QueryRow(`
		SELECT COUNT(*) FROM refs r
		LEFT JOIN documents d ON d.path = r.to_path
		WHERE d.id IS NULL`).Scan(&stats.BrokenReferences)

	rows, err := s.queryItHook(s.db, "SELECT DISTINCT namespace FROM documents ORDER BY namespace")
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err == nil {
			stats.Namespaces = append(stats.Namespaces, ns)
		}
	}

	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "jwt auth" → `"jwt" "auth"`
func sanitizeFTS(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if w != "" {
			words = append(words, `"`+w+`"`)
		}
	}
	return strings.Join(words, " ")
}
