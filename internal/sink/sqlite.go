package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteSink is the default, zero-setup Graph Sink Adapter backend: a
// local SQLite cache with the same node/edge table shape the teacher's
// own store used for its code-graph cache, generalized behind the Sink
// interface and driven entirely by qualified-name upserts instead of
// Cypher.
type SQLiteSink struct {
	db    *sql.DB
	batch *Batch
}

// OpenSQLite opens (creating if necessary) a SQLite-backed sink at path.
// path == ":memory:" opens a private in-memory database, useful for tests.
func OpenSQLite(path string) (*SQLiteSink, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir sink dir: %w", err)
			}
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	} else {
		dsn += "?_pragma=foreign_keys(ON)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite sink: %w", err)
	}
	s := &SQLiteSink{db: db, batch: NewBatch()}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sink schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		label TEXT NOT NULL,
		name TEXT NOT NULL,
		qualified_name TEXT NOT NULL,
		file_path TEXT DEFAULT '',
		start_line INTEGER DEFAULT 0,
		end_line INTEGER DEFAULT 0,
		properties TEXT DEFAULT '{}',
		UNIQUE(project, qualified_name)
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(project, label);
	CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(project, file_path);

	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		source_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		target_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		properties TEXT DEFAULT '{}',
		UNIQUE(source_id, target_id, type)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id, type);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id, type);

	CREATE TABLE IF NOT EXISTS file_hashes (
		project TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		hash TEXT NOT NULL,
		PRIMARY KEY (project, rel_path)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// EnsureNode stages a node upsert.
func (s *SQLiteSink) EnsureNode(n Node) { s.batch.Add(n) }

// EnsureRelationship stages a relationship upsert.
func (s *SQLiteSink) EnsureRelationship(e Edge) { s.batch.AddEdge(e) }

// Flush writes every staged node then every staged edge inside a single
// transaction, resolving edge endpoints by qualified name. Nodes are
// written before edges so an edge can reference a node staged earlier in
// the same batch.
func (s *SQLiteSink) Flush(ctx context.Context) error {
	if s.batch.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (project, label, name, qualified_name, file_path, start_line, end_line, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project, qualified_name) DO UPDATE SET
			label=excluded.label, name=excluded.name, file_path=excluded.file_path,
			start_line=excluded.start_line, end_line=excluded.end_line, properties=excluded.properties
	`)
	if err != nil {
		return fmt.Errorf("prepare node upsert: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range s.batch.Nodes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := nodeStmt.ExecContext(ctx, n.Project, n.Label, n.Name, n.QualifiedName, n.FilePath, n.StartLine, n.EndLine, marshalProps(n.Properties)); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.QualifiedName, err)
		}
	}

	idStmt, err := tx.PrepareContext(ctx, `SELECT id FROM nodes WHERE project = ? AND qualified_name = ?`)
	if err != nil {
		return fmt.Errorf("prepare id lookup: %w", err)
	}
	defer idStmt.Close()

	lookup := func(project, qn string) (int64, bool) {
		var id int64
		if err := idStmt.QueryRowContext(ctx, project, qn).Scan(&id); err != nil {
			return 0, false
		}
		return id, true
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (project, source_id, target_id, type, properties)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, type) DO UPDATE SET properties=excluded.properties
	`)
	if err != nil {
		return fmt.Errorf("prepare edge upsert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range s.batch.Edges() {
		if err := ctx.Err(); err != nil {
			return err
		}
		srcID, ok := lookup(e.Project, e.SourceQN)
		if !ok {
			slog.Warn("sink.edge.unresolved_source", "source", e.SourceQN, "type", e.Type)
			continue
		}
		tgtID, ok := lookup(e.Project, e.TargetQN)
		if !ok {
			slog.Warn("sink.edge.unresolved_target", "target", e.TargetQN, "type", e.Type)
			continue
		}
		if _, err := edgeStmt.ExecContext(ctx, e.Project, srcID, tgtID, e.Type, marshalProps(e.Properties)); err != nil {
			return fmt.Errorf("upsert edge %s->%s: %w", e.SourceQN, e.TargetQN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}
	s.batch.Reset()
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// FileHash returns the stored content hash for relPath, if any.
func (s *SQLiteSink) FileHash(ctx context.Context, project, relPath string) (string, bool) {
	var h string
	err := s.db.QueryRowContext(ctx, `SELECT hash FROM file_hashes WHERE project = ? AND rel_path = ?`, project, relPath).Scan(&h)
	return h, err == nil
}

// SetFileHash records the content hash for relPath, used by the
// incremental reindex path to decide which files changed.
func (s *SQLiteSink) SetFileHash(ctx context.Context, project, relPath, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_hashes (project, rel_path, hash) VALUES (?, ?, ?)
		ON CONFLICT(project, rel_path) DO UPDATE SET hash = excluded.hash
	`, project, relPath, hash)
	return err
}

// DeleteProject removes every node/edge/hash for project — used by the
// CLI's --clean flag.
func (s *SQLiteSink) DeleteProject(ctx context.Context, project string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE project = ?`, project); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE project = ?`, project); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_hashes WHERE project = ?`, project); err != nil {
		return err
	}
	return tx.Commit()
}

func marshalProps(props map[string]any) string {
	if len(props) == 0 {
		return "{}"
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "{}"
	}
	return string(b)
}
