package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunRecord summarizes one completed run for later reporting.
type RunRecord struct {
	Mode      string
	StartedAt time.Time
	Total     int
	Proposed  int
	Skipped   int
	Failed    int
	Applied   int
}

// Get returns the cached proposal JSON for a note. hit is false when the
// note is unknown or was cached against different content or taxonomy.
// An empty proposalJSON with hit=true means the note classified below the
// confidence threshold last time.
func (db *DB) Get(path, checksum, taxonomyChecksum string) (string, bool, error) {
	var (
		storedChecksum string
		storedTax      string
		proposal       sql.NullString
	)
	err := db.conn.QueryRow(
		`SELECT checksum, taxonomy_checksum, proposal FROM classifications WHERE path = ?`,
		path,
	).Scan(&storedChecksum, &storedTax, &proposal)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("index: get %s: %w", path, err)
	}
	if storedChecksum != checksum || storedTax != taxonomyChecksum {
		return "", false, nil
	}
	return proposal.String, true, nil
}

// Put stores (or replaces) the classification result for a note. An empty
// proposalJSON records a below-threshold outcome.
func (db *DB) Put(path, checksum, taxonomyChecksum, proposalJSON string) error {
	stored := sql.NullString{String: proposalJSON, Valid: proposalJSON != ""}
	_, err := db.conn.Exec(`
		INSERT INTO classifications (path, checksum, taxonomy_checksum, proposal, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum          = excluded.checksum,
			taxonomy_checksum = excluded.taxonomy_checksum,
			proposal          = excluded.proposal,
			updated_at        = excluded.updated_at
	`, path, checksum, taxonomyChecksum, stored, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: put %s: %w", path, err)
	}
	return nil
}

// Prune removes cache rows for notes that no longer exist on disk.
func (db *DB) Prune(keep map[string]struct{}) error {
	rows, err := db.conn.Query(`SELECT path FROM classifications`)
	if err != nil {
		return fmt.Errorf("index: prune scan: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return fmt.Errorf("index: prune scan: %w", err)
		}
		if _, ok := keep[p]; !ok {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("index: prune scan: %w", err)
	}

	for _, p := range stale {
		if _, err := db.conn.Exec(`DELETE FROM classifications WHERE path = ?`, p); err != nil {
			return fmt.Errorf("index: prune %s: %w", p, err)
		}
	}
	return nil
}

// RecordRun appends a run summary row.
func (db *DB) RecordRun(r RunRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO runs (mode, started_at, notes_total, proposed, skipped, failed, applied)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Mode, r.StartedAt.UTC(), r.Total, r.Proposed, r.Skipped, r.Failed, r.Applied)
	if err != nil {
		return fmt.Errorf("index: record run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run summary for the given mode, or nil
// when no run of that mode was recorded yet.
func (db *DB) LastRun(mode string) (*RunRecord, error) {
	var r RunRecord
	err := db.conn.QueryRow(`
		SELECT mode, started_at, notes_total, proposed, skipped, failed, applied
		FROM runs WHERE mode = ? ORDER BY id DESC LIMIT 1
	`, mode).Scan(&r.Mode, &r.StartedAt, &r.Total, &r.Proposed, &r.Skipped, &r.Failed, &r.Applied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: last run: %w", err)
	}
	return &r, nil
}
