// Package index provides the SQLite-backed analysis cache: classification
// results keyed by content and taxonomy checksums, plus run summaries.
// A cache hit only short-circuits recomputation; classification itself is
// deterministic, so hits and misses produce identical proposals.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS classifications (
	path              TEXT PRIMARY KEY,
	checksum          TEXT NOT NULL,
	taxonomy_checksum TEXT NOT NULL,
	proposal          TEXT,
	updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	mode        TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	notes_total INTEGER NOT NULL DEFAULT 0,
	proposed    INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	applied     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode, started_at);
`

// DB wraps a sql.DB with cache-specific operations.
type DB struct {
	conn *sql.DB
}

// Cache is the interface the orchestrator depends on, so analysis can run
// without a database (nil cache) and tests can substitute fakes.
type Cache interface {
	Get(path, checksum, taxonomyChecksum string) (proposalJSON string, hit bool, err error)
	Put(path, checksum, taxonomyChecksum, proposalJSON string) error
	Prune(keep map[string]struct{}) error
	RecordRun(r RunRecord) error
	LastRun(mode string) (*RunRecord, error)
	Close() error
}

var _ Cache = (*DB)(nil)

// Open opens (or creates) the SQLite cache and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
