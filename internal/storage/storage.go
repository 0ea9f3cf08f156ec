package storage

import (
	"context"
	"errors"

	"booksapi/internal/models"
)

// ErrNotFound is returned when a by-id operation addresses a book that does not exist
var ErrNotFound = errors.New("book not found")

// Storage defines the interface for book storage operations
type Storage interface {
	// ListBooks returns every stored book ordered by ID
	ListBooks(ctx context.Context) ([]models.Book, error)

	// GetBook returns the book with the given ID or ErrNotFound
	GetBook(ctx context.Context, id int64) (models.Book, error)

	// CreateBook inserts a book and returns it with its assigned ID
	CreateBook(ctx context.Context, in models.BookInput) (models.Book, error)

	// UpdateBook replaces every mutable field of the book with the given ID.
	// Returns ErrNotFound if no book was updated.
	UpdateBook(ctx context.Context, id int64, in models.BookInput) (models.Book, error)

	// DeleteBook removes the book and returns its ID, or ErrNotFound
	DeleteBook(ctx context.Context, id int64) (int64, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

// ActivityLog records changes made to the catalog
type ActivityLog interface {
	RecordEvent(ctx context.Context, event models.Event) error

	// GetLastEvents returns the last N events, newest first
	GetLastEvents(ctx context.Context, limit int) ([]models.Event, error)

	Initialize(ctx context.Context) error
	Close() error
}
