package metadatastore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DepKind enumerates why one chunk references a symbol.
type DepKind string

const (
	DepImport DepKind = "import"
	DepCall   DepKind = "call"
)

// DepEdge is one row of the deps(src_chunk_id, dst_symbol_name, kind)
// table: chunk src references symbol dst via kind.
type DepEdge struct {
	SrcChunkID    string
	DstSymbolName string
	Kind          DepKind
}

// DepsStore persists the dependency graph in a small relational table.
// Bleve has no efficient notion of a graph join, so this concern is kept
// out of ChunkStore and served by a pure-Go sqlite driver instead, the
// way the teacher keeps its relational needs (metadata) and its
// full-text needs (Bleve) in separate stores rather than forcing one
// engine to do both.
type DepsStore struct {
	db *sql.DB
}

// OpenDepsStore opens or creates the sqlite database at path and ensures
// the deps table and its indexes exist.
func OpenDepsStore(path string) (*DepsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: open deps db: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS deps (
	src_chunk_id    TEXT NOT NULL,
	dst_symbol_name TEXT NOT NULL,
	kind            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS deps_src_idx ON deps(src_chunk_id);
CREATE INDEX IF NOT EXISTS deps_dst_idx ON deps(dst_symbol_name);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("metadatastore: init deps schema: %w", err)
	}

	return &DepsStore{db: db}, nil
}

// ReplaceEdges atomically replaces every edge sourced from srcChunkID
// with edges, so re-indexing a chunk never leaves stale dependency rows
// behind.
func (s *DepsStore) ReplaceEdges(srcChunkID string, edges []DepEdge) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("metadatastore: begin replace edges: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM deps WHERE src_chunk_id = ?`, srcChunkID); err != nil {
		return fmt.Errorf("metadatastore: clear edges for %q: %w", srcChunkID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO deps (src_chunk_id, dst_symbol_name, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("metadatastore: prepare insert edge: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.Exec(e.SrcChunkID, e.DstSymbolName, string(e.Kind)); err != nil {
			return fmt.Errorf("metadatastore: insert edge %+v: %w", e, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("metadatastore: commit replace edges: %w", err)
	}
	return nil
}

// DeleteBySource removes every edge sourced from srcChunkID, used when
// the chunk itself is deleted.
func (s *DepsStore) DeleteBySource(srcChunkID string) error {
	if _, err := s.db.Exec(`DELETE FROM deps WHERE src_chunk_id = ?`, srcChunkID); err != nil {
		return fmt.Errorf("metadatastore: delete edges for %q: %w", srcChunkID, err)
	}
	return nil
}

// SourcesReferencing returns the distinct chunk IDs that declare a
// dependency on dstSymbolName, ascending, for deterministic traversal
// order in the dependency retriever.
func (s *DepsStore) SourcesReferencing(dstSymbolName string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT src_chunk_id FROM deps WHERE dst_symbol_name = ? ORDER BY src_chunk_id ASC`,
		dstSymbolName,
	)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: sources referencing %q: %w", dstSymbolName, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("metadatastore: scan source id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SymbolsReferencedBy returns the symbol names srcChunkID declares a
// dependency on.
func (s *DepsStore) SymbolsReferencedBy(srcChunkID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT dst_symbol_name FROM deps WHERE src_chunk_id = ? ORDER BY dst_symbol_name ASC`,
		srcChunkID,
	)
	if err != nil {
		return nil, fmt.Errorf("metadatastore: symbols referenced by %q: %w", srcChunkID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("metadatastore: scan symbol name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the underlying database handle.
func (s *DepsStore) Close() error {
	return s.db.Close()
}
