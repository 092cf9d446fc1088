// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"stepwise/internal/domain"
)

// Repository defines the interface for persisting reader and hint state.
type Repository interface {
	// GetReader retrieves a reader by ID. Returns nil, nil when absent.
	GetReader(ctx context.Context, readerID string) (*domain.Reader, error)

	// UpsertReader creates or updates a reader record.
	UpsertReader(ctx context.Context, reader *domain.Reader) error

	// TouchReader updates the last_seen_at timestamp for a reader.
	TouchReader(ctx context.Context, readerID string, lastSeen time.Time) error

	// ExpandedHints returns the hint IDs a reader has expanded for a document.
	ExpandedHints(ctx context.Context, readerID, docSlug string) ([]string, error)

	// ToggleHint flips visibility of one hint box and returns the new
	// expanded flag.
	ToggleHint(ctx context.Context, readerID, docSlug, hintID string) (bool, error)

	// ResetDocState collapses all hints and clears progress for one document.
	ResetDocState(ctx context.Context, readerID, docSlug string) error

	// MarkSectionDone records completion of a section.
	MarkSectionDone(ctx context.Context, readerID, docSlug, sectionID string, at time.Time) error

	// GetProgress returns all completed sections for a reader.
	GetProgress(ctx context.Context, readerID string) ([]domain.SectionProgress, error)

	// GetStaleReaders retrieves readers idle longer than ttl.
	GetStaleReaders(ctx context.Context, ttl time.Duration) ([]*domain.Reader, error)

	// PurgeReaderState removes a reader and all associated state. Returns the
	// number of state rows removed.
	PurgeReaderState(ctx context.Context, readerID string) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
