package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"booksapi/internal/models"
)

// fakeBotAPI answers getMe and records sendMessage calls
type fakeBotAPI struct {
	mu       sync.Mutex
	messages []string
	chatIDs  []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Books","username":"books_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.messages = append(f.messages, r.FormValue("text"))
		f.chatIDs = append(f.chatIDs, r.FormValue("chat_id"))
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func TestTelegram_Notify(t *testing.T) {
	fake := &fakeBotAPI{}
	server := httptest.NewServer(fake)
	defer server.Close()

	n, err := NewTelegramWithEndpoint("test-token", server.URL+"/bot%s/%s", 42, zap.NewNop())
	require.NoError(t, err)

	n.Notify(context.Background(), "hello")
	n.Notify(context.Background(), "world")
	require.NoError(t, n.Close())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.ElementsMatch(t, []string{"hello", "world"}, fake.messages)
	assert.Equal(t, []string{"42", "42"}, fake.chatIDs)
}

func TestNewTelegram_InvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	_, err := NewTelegramWithEndpoint("bad-token", server.URL+"/bot%s/%s", 42, zap.NewNop())
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	n.Notify(context.Background(), "ignored")
	assert.NoError(t, n.Close())
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name  string
		event models.Event
		want  string
	}{
		{
			name:  "created",
			event: models.Event{BookID: 1, Action: models.ActionCreated, Title: "Dune"},
			want:  "New book added!\n\nID: 1\nTitle: Dune",
		},
		{
			name:  "updated",
			event: models.Event{BookID: 2, Action: models.ActionUpdated, Title: "Emma"},
			want:  "Book updated\n\nID: 2\nTitle: Emma",
		},
		{
			name:  "deleted",
			event: models.Event{BookID: 3, Action: models.ActionDeleted},
			want:  "Book removed\n\nID: 3",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatEvent(tc.event))
		})
	}
}
