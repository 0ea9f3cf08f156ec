package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"booksapi/docs"
	"booksapi/internal/models"
	"booksapi/internal/notify"
	"booksapi/internal/storage"
)

const (
	msgNotFound = "Libro no encontrado"
	msgDeleted  = "Libro eliminado correctamente"
	msgInternal = "Internal Server Error"
)

// HTTPServer serves the books REST API
type HTTPServer struct {
	db       storage.Storage
	activity storage.ActivityLog // nil when no activity log is configured
	notifier notify.Notifier
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHTTPServer creates a new HTTP server.
// activity may be nil; a nil notifier discards notifications.
func NewHTTPServer(db storage.Storage, activity storage.ActivityLog, notifier notify.Notifier, logger *zap.Logger) *HTTPServer {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &HTTPServer{
		db:       db,
		activity: activity,
		notifier: notifier,
		validate: newValidator(),
		logger:   logger,
	}
}

// Handler returns a router with every route registered
func (hs *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	hs.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers middleware and API routes on the provided router
func (hs *HTTPServer) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(hs.accessLog)

	r.Get("/", hs.handleRoot)
	r.Get("/health", hs.handleHealth)

	r.Get("/openapi.json", hs.handleOpenAPI)
	r.Get("/docs", http.RedirectHandler("/docs/index.html", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/books", func(r chi.Router) {
		r.Get("/", hs.handleListBooks)
		r.Post("/", hs.handleCreateBook)
		r.Get("/{id}", hs.handleGetBook)
		r.Put("/{id}", hs.handleUpdateBook)
		r.Delete("/{id}", hs.handleDeleteBook)
	})

	if hs.activity != nil {
		r.Get("/events", hs.handleEvents)
	}
}

func (hs *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Books API is running")
}

func (hs *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// handleOpenAPI serves the generated API description
func (hs *HTTPServer) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, docs.SwaggerInfo.ReadDoc())
}

// recordChange writes the activity log entry and sends the notification for a mutation.
// Neither can fail the request.
func (hs *HTTPServer) recordChange(ctx context.Context, action string, bookID int64, title string) {
	event := models.Event{
		Date:   time.Now().UTC(),
		BookID: bookID,
		Action: action,
		Title:  title,
	}

	if hs.activity != nil {
		if err := hs.activity.RecordEvent(ctx, event); err != nil {
			hs.logger.Warn("Failed to record event",
				zap.Error(err),
				zap.Int64("book_id", bookID),
				zap.String("action", action),
				zap.String("request_id", RequestIDFromContext(ctx)),
			)
		}
	}

	hs.notifier.Notify(ctx, notify.FormatEvent(event))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeValidationError(w http.ResponseWriter, verr *ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: verr.Detail, Errors: verr.Fields})
}

// storageError logs an unexpected storage failure and answers 500
func (hs *HTTPServer) storageError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.Error(err),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	hs.logger.Error(msg, fields...)
	writeError(w, http.StatusInternalServerError, msgInternal)
}
