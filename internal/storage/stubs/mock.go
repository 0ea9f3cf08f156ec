package stubs

import (
	"context"
	"sort"
	"sync"

	"booksapi/internal/models"
	"booksapi/internal/storage"
)

// MockDB is an in-memory implementation of storage.Storage and storage.ActivityLog
type MockDB struct {
	mu     sync.RWMutex
	books  map[int64]models.Book
	nextID int64
	events []models.Event
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		books:  make(map[int64]models.Book),
		nextID: 1,
		events: make([]models.Event, 0),
	}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// ListBooks returns all books sorted by ID
func (m *MockDB) ListBooks(ctx context.Context) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]models.Book, 0, len(m.books))
	for _, book := range m.books {
		books = append(books, cloneBook(book))
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].ID < books[j].ID
	})

	return books, nil
}

// GetBook returns the book with the given ID
func (m *MockDB) GetBook(ctx context.Context, id int64) (models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return models.Book{}, storage.ErrNotFound
	}
	return cloneBook(book), nil
}

// CreateBook stores a new book under the next free ID
func (m *MockDB) CreateBook(ctx context.Context, in models.BookInput) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book := fromInput(m.nextID, in)
	m.nextID++

	m.books[book.ID] = book
	return cloneBook(book), nil
}

// UpdateBook replaces the book with the given ID if it exists
func (m *MockDB) UpdateBook(ctx context.Context, id int64, in models.BookInput) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return models.Book{}, storage.ErrNotFound
	}

	book := fromInput(id, in)
	m.books[id] = book
	return cloneBook(book), nil
}

// DeleteBook removes the book with the given ID if it exists
func (m *MockDB) DeleteBook(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return 0, storage.ErrNotFound
	}

	delete(m.books, id)
	return id, nil
}

// RecordEvent appends an event to the in-memory activity log
func (m *MockDB) RecordEvent(ctx context.Context, event models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return nil
}

// GetLastEvents returns the last N events
func (m *MockDB) GetLastEvents(ctx context.Context, limit int) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Sort events by date descending, most recently recorded first on ties
	sortedEvents := make([]models.Event, len(m.events))
	for i, e := range m.events {
		sortedEvents[len(m.events)-1-i] = e
	}
	sort.SliceStable(sortedEvents, func(i, j int) bool {
		return sortedEvents[i].Date.After(sortedEvents[j].Date)
	})

	if limit > len(sortedEvents) {
		limit = len(sortedEvents)
	}
	if limit < 0 {
		limit = 0
	}

	return sortedEvents[:limit], nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

func fromInput(id int64, in models.BookInput) models.Book {
	return cloneBook(models.Book{
		ID:     id,
		Title:  in.Title,
		Author: in.Author,
		Year:   in.Year,
		Genre:  in.Genre,
		Status: in.StatusOrDefault(),
		Rating: in.Rating,
	})
}

// cloneBook copies the optional fields so callers never share pointers with the store
func cloneBook(b models.Book) models.Book {
	if b.Year != nil {
		year := *b.Year
		b.Year = &year
	}
	if b.Genre != nil {
		genre := *b.Genre
		b.Genre = &genre
	}
	if b.Rating != nil {
		rating := *b.Rating
		b.Rating = &rating
	}
	return b
}
