package api

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"booksapi/internal/models"
	"booksapi/internal/storage"
)

const (
	defaultEventsLimit = 20
	maxEventsLimit     = 1000
)

// handleListBooks returns every book
//
//	@Summary	List books
//	@Tags		books
//	@Produce	json
//	@Success	200	{array}		models.Book
//	@Failure	500	{object}	errorResponse
//	@Router		/books [get]
func (hs *HTTPServer) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := hs.db.ListBooks(r.Context())
	if err != nil {
		hs.storageError(w, r, "Failed to list books", err)
		return
	}
	if books == nil {
		books = []models.Book{}
	}

	writeJSON(w, http.StatusOK, books)
}

// handleGetBook returns a single book
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		int	true	"Book ID"
//	@Success	200	{object}	models.Book
//	@Failure	404	{object}	errorResponse
//	@Failure	422	{object}	errorResponse
//	@Failure	500	{object}	errorResponse
//	@Router		/books/{id} [get]
func (hs *HTTPServer) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		hs.badRequest(w, err)
		return
	}

	book, err := hs.db.GetBook(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		hs.storageError(w, r, "Failed to get book", err, zap.Int64("book_id", id))
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// handleCreateBook stores a new book and returns it with its assigned ID
//
//	@Summary	Create a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		models.BookInput	true	"Book"
//	@Success	200		{object}	models.Book
//	@Failure	422		{object}	errorResponse
//	@Failure	500		{object}	errorResponse
//	@Router		/books [post]
func (hs *HTTPServer) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	in, err := hs.decodeBookInput(r)
	if err != nil {
		hs.badRequest(w, err)
		return
	}

	book, err := hs.db.CreateBook(r.Context(), in)
	if err != nil {
		hs.storageError(w, r, "Failed to create book", err, zap.String("title", in.Title))
		return
	}

	hs.logger.Info("Book created",
		zap.Int64("book_id", book.ID),
		zap.String("title", book.Title),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	hs.recordChange(r.Context(), models.ActionCreated, book.ID, book.Title)

	writeJSON(w, http.StatusOK, book)
}

// handleUpdateBook replaces all mutable fields of a book
//
//	@Summary	Replace a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Book ID"
//	@Param		book	body		models.BookInput	true	"Book"
//	@Success	200		{object}	models.Book
//	@Failure	404		{object}	errorResponse
//	@Failure	422		{object}	errorResponse
//	@Failure	500		{object}	errorResponse
//	@Router		/books/{id} [put]
func (hs *HTTPServer) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		hs.badRequest(w, err)
		return
	}

	in, err := hs.decodeBookInput(r)
	if err != nil {
		hs.badRequest(w, err)
		return
	}

	book, err := hs.db.UpdateBook(r.Context(), id, in)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		hs.storageError(w, r, "Failed to update book", err, zap.Int64("book_id", id))
		return
	}

	hs.logger.Info("Book updated",
		zap.Int64("book_id", book.ID),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	hs.recordChange(r.Context(), models.ActionUpdated, book.ID, book.Title)

	writeJSON(w, http.StatusOK, book)
}

// handleDeleteBook removes a book
//
//	@Summary	Delete a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		int	true	"Book ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	errorResponse
//	@Failure	422	{object}	errorResponse
//	@Failure	500	{object}	errorResponse
//	@Router		/books/{id} [delete]
func (hs *HTTPServer) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		hs.badRequest(w, err)
		return
	}

	deleted, err := hs.db.DeleteBook(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		hs.storageError(w, r, "Failed to delete book", err, zap.Int64("book_id", id))
		return
	}

	hs.logger.Info("Book deleted",
		zap.Int64("book_id", deleted),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	hs.recordChange(r.Context(), models.ActionDeleted, deleted, "")

	writeJSON(w, http.StatusOK, map[string]string{
		"message": msgDeleted,
	})
}

// handleEvents returns the most recent catalog changes
//
//	@Summary	List recent catalog changes
//	@Tags		events
//	@Produce	json
//	@Param		limit	query		int	false	"Maximum number of events (1-1000, default 20)"
//	@Success	200		{array}		models.Event
//	@Failure	422		{object}	errorResponse
//	@Failure	500		{object}	errorResponse
//	@Router		/events [get]
func (hs *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxEventsLimit {
			hs.badRequest(w, invalidField("limit", "must be an integer between 1 and 1000"))
			return
		}
		limit = n
	}

	events, err := hs.activity.GetLastEvents(r.Context(), limit)
	if err != nil {
		hs.storageError(w, r, "Failed to get last events", err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// badRequest answers 422 for validation errors and 500 for anything else
func (hs *HTTPServer) badRequest(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		writeValidationError(w, verr)
		return
	}
	hs.logger.Error("Failed to validate request", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}
