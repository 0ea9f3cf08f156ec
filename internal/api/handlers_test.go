package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"booksapi/internal/models"
	"booksapi/internal/storage/stubs"
)

// recordingNotifier captures notification texts
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

func (n *recordingNotifier) Close() error { return nil }

// brokenDB fails every storage call
type brokenDB struct {
	*stubs.MockDB
}

var errBroken = errors.New("connection refused")

func (brokenDB) ListBooks(context.Context) ([]models.Book, error) { return nil, errBroken }
func (brokenDB) GetBook(context.Context, int64) (models.Book, error) {
	return models.Book{}, errBroken
}
func (brokenDB) CreateBook(context.Context, models.BookInput) (models.Book, error) {
	return models.Book{}, errBroken
}

// brokenActivityLog fails to record events
type brokenActivityLog struct {
	*stubs.MockDB
}

func (brokenActivityLog) RecordEvent(context.Context, models.Event) error { return errBroken }

func newTestServer(t *testing.T) (*HTTPServer, *stubs.MockDB, *recordingNotifier) {
	t.Helper()
	db := stubs.NewMockDB()
	notifier := &recordingNotifier{}
	return NewHTTPServer(db, db, notifier, zap.NewNop()), db, notifier
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func TestEndToEndScenario(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"id":1,"title":"Dune","author":"Herbert","year":null,"genre":null,"status":"to_read","rating":null}`,
		rr.Body.String())

	rr = do(t, h, http.MethodPut, "/books/1", `{"title":"Dune","author":"Herbert","status":"reading"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	book := decode[models.Book](t, rr)
	assert.Equal(t, int64(1), book.ID)
	assert.Equal(t, "reading", book.Status)

	rr = do(t, h, http.MethodDelete, "/books/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Libro eliminado correctamente"}`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/books/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"detail":"Libro no encontrado"}`, rr.Body.String())
}

func TestCreateThenGet(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	payloads := []string{
		`{"title":"Dune","author":"Herbert"}`,
		`{"title":"Emma","author":"Austen","year":1815,"genre":"novel","status":"done","rating":4}`,
		`{"title":"Ulysses","author":"Joyce","rating":-3,"status":"abandoned"}`,
		`{"id":99,"title":"Ignored id","author":"Someone"}`,
	}

	for _, p := range payloads {
		rr := do(t, h, http.MethodPost, "/books", p)
		require.Equal(t, http.StatusOK, rr.Code, p)
		created := decode[models.Book](t, rr)
		assert.Positive(t, created.ID)
		assert.NotEqual(t, int64(99), created.ID)

		rr = do(t, h, http.MethodGet, "/books/"+itoa(created.ID), "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, created, decode[models.Book](t, rr))
	}
}

func TestListBooks(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	var ids []int64
	for _, title := range []string{"A", "B", "C"} {
		rr := do(t, h, http.MethodPost, "/books", `{"title":"`+title+`","author":"X"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		ids = append(ids, decode[models.Book](t, rr).ID)
	}

	rr = do(t, h, http.MethodDelete, "/books/"+itoa(ids[1]), "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, rr.Code)
	books := decode[[]models.Book](t, rr)

	var got []int64
	for _, b := range books {
		got = append(got, b.ID)
	}
	assert.ElementsMatch(t, []int64{ids[0], ids[2]}, got)
}

func TestUpdateBook_NotFound(t *testing.T) {
	hs, db, notifier := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	before, err := db.ListBooks(context.Background())
	require.NoError(t, err)

	rr = do(t, h, http.MethodPut, "/books/999999", `{"title":"X","author":"Y"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"detail":"Libro no encontrado"}`, rr.Body.String())

	after, err := db.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Only the create was announced
	assert.Len(t, notifier.messages, 1)
}

func TestUpdateBook_TotalReplace(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert","year":1965,"genre":"sci-fi","status":"done","rating":5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	id := decode[models.Book](t, rr).ID

	rr = do(t, h, http.MethodPut, "/books/"+itoa(id), `{"title":"Dune Messiah","author":"Herbert"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"id":`+itoa(id)+`,"title":"Dune Messiah","author":"Herbert","year":null,"genre":null,"status":"to_read","rating":null}`,
		rr.Body.String())
}

func TestDeleteBook_NotFound(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodDelete, "/books/42", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"detail":"Libro no encontrado"}`, rr.Body.String())
}

func TestValidationErrors(t *testing.T) {
	hs, db, _ := newTestServer(t)
	h := hs.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		field  string
	}{
		{name: "missing title", method: http.MethodPost, path: "/books", body: `{"author":"Herbert"}`, field: "title"},
		{name: "empty author", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":""}`, field: "author"},
		{name: "year not integer", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert","year":"abc"}`, field: "year"},
		{name: "year boolean", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert","year":true}`, field: "year"},
		{name: "rating fractional string", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert","rating":"4.5"}`, field: "rating"},
		{name: "status null", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert","status":null}`, field: "status"},
		{name: "status not string", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert","status":3}`, field: "status"},
		{name: "rating fractional", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert","rating":4.5}`, field: "rating"},
		{name: "title not string", method: http.MethodPost, path: "/books", body: `{"title":7,"author":"Herbert"}`, field: "title"},
		{name: "array body", method: http.MethodPost, path: "/books", body: `[]`, field: "body"},
		{name: "malformed json", method: http.MethodPost, path: "/books", body: `{"title":`},
		{name: "trailing garbage", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert"} this is not json`},
		{name: "trailing brace", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert"}}`},
		{name: "two objects", method: http.MethodPost, path: "/books", body: `{"title":"Dune","author":"Herbert"} {"title":"Emma","author":"Austen"}`},
		{name: "empty body", method: http.MethodPost, path: "/books", field: "body"},
		{name: "update missing author", method: http.MethodPut, path: "/books/1", body: `{"title":"Dune"}`, field: "author"},
		{name: "non-integer id", method: http.MethodGet, path: "/books/abc", field: "id"},
		{name: "non-integer id on delete", method: http.MethodDelete, path: "/books/1.5", field: "id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

			resp := decode[errorResponse](t, rr)
			assert.NotEmpty(t, resp.Detail)
			if tc.field != "" {
				assert.Contains(t, resp.Errors, tc.field)
			}
		})
	}

	// Nothing reached storage
	books, err := db.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestNumericStringsAreCoerced(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert","year":"1965","rating":" 5 "}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	book := decode[models.Book](t, rr)
	require.NotNil(t, book.Year)
	require.NotNil(t, book.Rating)
	assert.Equal(t, 1965, *book.Year)
	assert.Equal(t, 5, *book.Rating)

	rr = do(t, h, http.MethodPut, "/books/"+itoa(book.ID), `{"title":"Dune","author":"Herbert","year":"-10","rating":null}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	book = decode[models.Book](t, rr)
	require.NotNil(t, book.Year)
	assert.Equal(t, -10, *book.Year)
	assert.Nil(t, book.Rating)
}

func TestTrailingWhitespaceIsAccepted(t *testing.T) {
	hs, _, _ := newTestServer(t)

	rr := do(t, hs.Handler(), http.MethodPost, "/books", "{\"title\":\"Dune\",\"author\":\"Herbert\"}\n\t ")
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestStorageFailure(t *testing.T) {
	db := brokenDB{stubs.NewMockDB()}
	h := NewHTTPServer(db, nil, nil, zap.NewNop()).Handler()

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/books", ""},
		{http.MethodGet, "/books/1", ""},
		{http.MethodPost, "/books", `{"title":"Dune","author":"Herbert"}`},
	} {
		rr := do(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, tc.method+" "+tc.path)
		assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rr.Body.String())
	}
}

func TestActivityLogAndNotifications(t *testing.T) {
	hs, _, notifier := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodPut, "/books/1", `{"title":"Dune","author":"Herbert","status":"reading"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodDelete, "/books/1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/events?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	events := decode[[]models.Event](t, rr)
	require.Len(t, events, 2)
	assert.Equal(t, models.ActionDeleted, events[0].Action)
	assert.Equal(t, models.ActionUpdated, events[1].Action)

	rr = do(t, h, http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]models.Event](t, rr), 3)

	rr = do(t, h, http.MethodGet, "/events?limit=0", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	require.Len(t, notifier.messages, 3)
	assert.Contains(t, notifier.messages[0], "Dune")
}

func TestActivityLogFailureDoesNotFailRequest(t *testing.T) {
	db := stubs.NewMockDB()
	h := NewHTTPServer(db, brokenActivityLog{stubs.NewMockDB()}, nil, zap.NewNop()).Handler()

	rr := do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEventsRouteRequiresActivityLog(t *testing.T) {
	h := NewHTTPServer(stubs.NewMockDB(), nil, nil, zap.NewNop()).Handler()

	rr := do(t, h, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthAndRoot(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	hs, _, _ := newTestServer(t)

	rr := do(t, hs.Handler(), http.MethodPatch, "/books/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
