package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"stepwise/internal/domain"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db          *sql.DB
	hintStateMu sync.Mutex // Serializes hint toggles to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS readers (
		reader_id TEXT PRIMARY KEY,
		nickname TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readers_last_seen ON readers(last_seen_at);

	CREATE TABLE IF NOT EXISTS hint_states (
		reader_id TEXT NOT NULL,
		doc_slug TEXT NOT NULL,
		hint_id TEXT NOT NULL,
		expanded INTEGER NOT NULL DEFAULT 0,
		toggled_at INTEGER NOT NULL,
		PRIMARY KEY (reader_id, doc_slug, hint_id)
	);

	CREATE TABLE IF NOT EXISTS step_progress (
		reader_id TEXT NOT NULL,
		doc_slug TEXT NOT NULL,
		section_id TEXT NOT NULL,
		completed_at INTEGER NOT NULL,
		PRIMARY KEY (reader_id, doc_slug, section_id)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetReader retrieves a reader by ID.
func (s *SQLiteStore) GetReader(ctx context.Context, readerID string) (*domain.Reader, error) {
	query := `
		SELECT reader_id, nickname, last_seen_at, created_at, updated_at
		FROM readers WHERE reader_id = ?`

	row := s.db.QueryRowContext(ctx, query, readerID)

	var reader domain.Reader
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&reader.ReaderID, &reader.Nickname, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reader row: %w", err)
	}

	reader.LastSeenAt = time.Unix(lastSeen, 0)
	reader.CreatedAt = time.Unix(createdAt, 0)
	reader.UpdatedAt = time.Unix(updatedAt, 0)

	return &reader, nil
}

// UpsertReader creates or updates a reader record.
func (s *SQLiteStore) UpsertReader(ctx context.Context, reader *domain.Reader) error {
	query := `
	INSERT INTO readers (reader_id, nickname, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(reader_id) DO UPDATE SET
		nickname = excluded.nickname,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		reader.ReaderID, reader.Nickname,
		reader.LastSeenAt.Unix(), reader.CreatedAt.Unix(), reader.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert reader: %w", err)
	}
	return nil
}

// TouchReader updates the last_seen_at timestamp for a reader.
func (s *SQLiteStore) TouchReader(ctx context.Context, readerID string, lastSeen time.Time) error {
	query := `UPDATE readers SET last_seen_at = ?, updated_at = ? WHERE reader_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), readerID)
	if err != nil {
		return fmt.Errorf("touch reader: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("TouchReader affected 0 rows", "reader_id", readerID)
	}

	return nil
}

// ExpandedHints returns the hint IDs a reader has expanded for a document.
func (s *SQLiteStore) ExpandedHints(ctx context.Context, readerID, docSlug string) ([]string, error) {
	query := `
		SELECT hint_id FROM hint_states
		WHERE reader_id = ? AND doc_slug = ? AND expanded = 1`

	rows, err := s.db.QueryContext(ctx, query, readerID, docSlug)
	if err != nil {
		return nil, fmt.Errorf("query expanded hints: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close expanded hints rows", "error", closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hint row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expanded hints: %w", err)
	}

	return ids, nil
}

// ToggleHint flips visibility of one hint box and returns the new expanded flag.
func (s *SQLiteStore) ToggleHint(ctx context.Context, readerID, docSlug, hintID string) (bool, error) {
	s.hintStateMu.Lock()
	defer s.hintStateMu.Unlock()

	// A fresh row starts expanded (first toggle opens a collapsed hint);
	// an existing row flips.
	query := `
	INSERT INTO hint_states (reader_id, doc_slug, hint_id, expanded, toggled_at)
	VALUES (?, ?, ?, 1, ?)
	ON CONFLICT(reader_id, doc_slug, hint_id) DO UPDATE SET
		expanded = 1 - hint_states.expanded,
		toggled_at = excluded.toggled_at`

	if _, err := s.db.ExecContext(ctx, query, readerID, docSlug, hintID, time.Now().Unix()); err != nil {
		return false, fmt.Errorf("toggle hint: %w", err)
	}

	var expanded int
	row := s.db.QueryRowContext(ctx,
		`SELECT expanded FROM hint_states WHERE reader_id = ? AND doc_slug = ? AND hint_id = ?`,
		readerID, docSlug, hintID)
	if err := row.Scan(&expanded); err != nil {
		return false, fmt.Errorf("read toggled hint: %w", err)
	}

	return expanded == 1, nil
}

// ResetDocState collapses all hints and clears progress for one document.
func (s *SQLiteStore) ResetDocState(ctx context.Context, readerID, docSlug string) error {
	s.hintStateMu.Lock()
	defer s.hintStateMu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM hint_states WHERE reader_id = ? AND doc_slug = ?`, readerID, docSlug); err != nil {
		return fmt.Errorf("reset hint states: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM step_progress WHERE reader_id = ? AND doc_slug = ?`, readerID, docSlug); err != nil {
		return fmt.Errorf("reset step progress: %w", err)
	}
	return nil
}

// MarkSectionDone records completion of a section.
func (s *SQLiteStore) MarkSectionDone(ctx context.Context, readerID, docSlug, sectionID string, at time.Time) error {
	query := `
	INSERT INTO step_progress (reader_id, doc_slug, section_id, completed_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(reader_id, doc_slug, section_id) DO UPDATE SET
		completed_at = excluded.completed_at`

	if _, err := s.db.ExecContext(ctx, query, readerID, docSlug, sectionID, at.Unix()); err != nil {
		return fmt.Errorf("mark section done: %w", err)
	}
	return nil
}

// GetProgress returns all completed sections for a reader.
func (s *SQLiteStore) GetProgress(ctx context.Context, readerID string) ([]domain.SectionProgress, error) {
	query := `
		SELECT doc_slug, section_id, completed_at FROM step_progress
		WHERE reader_id = ? ORDER BY completed_at`

	rows, err := s.db.QueryContext(ctx, query, readerID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close progress rows", "error", closeErr)
		}
	}()

	var progress []domain.SectionProgress
	for rows.Next() {
		var p domain.SectionProgress
		var completedAt int64
		if err := rows.Scan(&p.DocSlug, &p.SectionID, &completedAt); err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		p.CompletedAt = time.Unix(completedAt, 0)
		progress = append(progress, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}

	return progress, nil
}

// GetStaleReaders retrieves readers idle longer than ttl.
func (s *SQLiteStore) GetStaleReaders(ctx context.Context, ttl time.Duration) ([]*domain.Reader, error) {
	threshold := time.Now().Add(-ttl).Unix()
	query := `
		SELECT reader_id, nickname, last_seen_at, created_at, updated_at
		FROM readers WHERE last_seen_at < ?`

	rows, err := s.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("query stale readers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close stale readers rows", "error", closeErr)
		}
	}()

	var readers []*domain.Reader
	for rows.Next() {
		var reader domain.Reader
		var lastSeen, createdAt, updatedAt int64

		if err := rows.Scan(&reader.ReaderID, &reader.Nickname, &lastSeen, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan stale reader row: %w", err)
		}

		reader.LastSeenAt = time.Unix(lastSeen, 0)
		reader.CreatedAt = time.Unix(createdAt, 0)
		reader.UpdatedAt = time.Unix(updatedAt, 0)
		readers = append(readers, &reader)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale readers: %w", err)
	}

	return readers, nil
}

// PurgeReaderState removes a reader and all associated state.
func (s *SQLiteStore) PurgeReaderState(ctx context.Context, readerID string) (int64, error) {
	s.hintStateMu.Lock()
	defer s.hintStateMu.Unlock()

	var purged int64
	for _, q := range []string{
		`DELETE FROM hint_states WHERE reader_id = ?`,
		`DELETE FROM step_progress WHERE reader_id = ?`,
		`DELETE FROM readers WHERE reader_id = ?`,
	} {
		res, err := s.db.ExecContext(ctx, q, readerID)
		if err != nil {
			return purged, fmt.Errorf("purge reader state: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return purged, fmt.Errorf("purge rows affected: %w", err)
		}
		purged += rows
	}

	return purged, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
