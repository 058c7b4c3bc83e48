// Package store caches the last good rows of every feed in SQLite so the
// dashboard can still show something when a fetch fails.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/ctfterm/internal/extract"
	"github.com/abelbrown/ctfterm/internal/model"
)

// ErrNotCached is returned by Load when a feed has never been saved.
var ErrNotCached = errors.New("feed not cached")

// Store handles SQLite persistence. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Snapshot is the cached state of one feed.
type Snapshot struct {
	Page      extract.Page
	FetchedAt time.Time
}

// Status is the bookkeeping row kept per feed.
type Status struct {
	Kind      model.FeedKind
	FetchedAt time.Time // last successful fetch, zero if never
	Rows      int
	LastError string
	UpdatedAt time.Time
}

// Open creates a Store at dbPath, creating tables if needed.
// ":memory:" opens a shared in-memory database.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection keeps every caller on the same in-memory database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feeds (
		kind TEXT PRIMARY KEY,
		fetched_at DATETIME,
		entries INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feed_rows (
		kind TEXT NOT NULL,
		pos INTEGER NOT NULL,
		cells TEXT NOT NULL,
		PRIMARY KEY (kind, pos)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Save replaces the cached rows of kind with page.
func (s *Store) Save(ctx context.Context, kind model.FeedKind, page extract.Page, fetched time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_rows WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("clear %s rows: %w", kind, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO feed_rows (kind, pos, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range page.Rows {
		cells, err := json.Marshal([]string(row))
		if err != nil {
			return fmt.Errorf("encode %s row %d: %w", kind, i, err)
		}
		if _, err := stmt.ExecContext(ctx, string(kind), i, string(cells)); err != nil {
			return fmt.Errorf("insert %s row %d: %w", kind, i, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO feeds (kind, fetched_at, entries, row_count, last_error, updated_at)
		VALUES (?, ?, ?, ?, '', ?)
		ON CONFLICT(kind) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			entries = excluded.entries,
			row_count = excluded.row_count,
			last_error = '',
			updated_at = excluded.updated_at
	`, string(kind), fetched.UTC(), page.Entries, len(page.Rows), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update %s status: %w", kind, err)
	}

	return tx.Commit()
}

// Load returns the cached rows of kind, or ErrNotCached.
func (s *Store) Load(ctx context.Context, kind model.FeedKind) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	var fetched sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, entries FROM feeds WHERE kind = ?`, string(kind),
	).Scan(&fetched, &snap.Page.Entries)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !fetched.Valid) {
		return Snapshot{}, fmt.Errorf("%s: %w", kind, ErrNotCached)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s status: %w", kind, err)
	}
	snap.FetchedAt = fetched.Time

	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM feed_rows WHERE kind = ? ORDER BY pos`, string(kind))
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s rows: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return Snapshot{}, err
		}
		var row extract.Row
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s row: %w", kind, err)
		}
		snap.Page.Rows = append(snap.Page.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// RecordFailure notes the latest fetch error of kind without touching
// its cached rows.
func (s *Store) RecordFailure(ctx context.Context, kind model.FeedKind, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feeds (kind, last_error, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`, string(kind), msg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record %s failure: %w", kind, err)
	}
	return nil
}

// Statuses returns the bookkeeping row of every known feed seen so far,
// ordered by kind. Rows for unknown feed kinds are skipped.
func (s *Store) Statuses(ctx context.Context) ([]Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, fetched_at, row_count, last_error, updated_at
		FROM feeds ORDER BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	var out []Status
	for rows.Next() {
		var st Status
		var kind string
		var fetched sql.NullTime
		if err := rows.Scan(&kind, &fetched, &st.Rows, &st.LastError, &st.UpdatedAt); err != nil {
			return nil, err
		}
		k, err := model.ParseFeedKind(kind)
		if err != nil {
			continue // written by a build with a different feed set
		}
		st.Kind = k
		if fetched.Valid {
			st.FetchedAt = fetched.Time
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
