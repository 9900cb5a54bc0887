// Package ledger keeps local bookkeeping for an indexed vault: which
// documents went in, in what shape, and how past runs went.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the on-disk ledger for one vault.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			rel TEXT PRIMARY KEY,
			size INTEGER,
			mtime INTEGER,
			chunks INTEGER,
			indexed_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT,
			started_at INTEGER,
			finished_at INTEGER,
			documents INTEGER,
			chunks INTEGER,
			outcome TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS runs_started_idx ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// DocumentEntry is the indexed shape of one vault document.
type DocumentEntry struct {
	Rel       string
	Size      int64
	Mtime     time.Time
	Chunks    int
	IndexedAt time.Time
}

// ReplaceDocuments swaps the document table for the given entries in one
// transaction. Indexing is all-or-nothing, so partial states never land.
func (s *Store) ReplaceDocuments(entries []DocumentEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO documents (rel, size, mtime, chunks, indexed_at) VALUES (?, ?, ?, ?, ?)`,
			e.Rel, e.Size, e.Mtime.Unix(), e.Chunks, e.IndexedAt.Unix(),
		); err != nil {
			return fmt.Errorf("insert document %s: %w", e.Rel, err)
		}
	}
	return tx.Commit()
}

// Documents returns every ledger entry ordered by path.
func (s *Store) Documents() ([]DocumentEntry, error) {
	rows, err := s.db.Query(`SELECT rel, size, mtime, chunks, indexed_at FROM documents ORDER BY rel`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var entries []DocumentEntry
	for rows.Next() {
		var e DocumentEntry
		var mtime, indexedAt int64
		if err := rows.Scan(&e.Rel, &e.Size, &mtime, &e.Chunks, &indexedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		e.Mtime = time.Unix(mtime, 0)
		e.IndexedAt = time.Unix(indexedAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes the indexed documents.
type Stats struct {
	Documents   int
	Chunks      int
	LastIndexed time.Time
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	var last sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(chunks), 0), MAX(indexed_at) FROM documents`,
	).Scan(&st.Documents, &st.Chunks, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("ledger stats: %w", err)
	}
	if last.Valid {
		st.LastIndexed = time.Unix(last.Int64, 0)
	}
	return st, nil
}

// Run is one recorded pipeline run.
type Run struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	Documents  int
	Chunks     int
	Outcome    string
}

// RecordRun appends a finished run. An id is assigned when the run has none.
func (s *Store) RecordRun(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, kind, started_at, finished_at, documents, chunks, outcome) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Documents, run.Chunks, run.Outcome,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.ID, nil
}

// RecentRuns returns the latest runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, started_at, finished_at, documents, chunks, outcome FROM runs ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Kind, &started, &finished, &r.Documents, &r.Chunks, &r.Outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
