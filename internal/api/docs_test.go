package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiDoc struct {
	Info struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"info"`
	Paths map[string]map[string]any `json:"paths"`
}

func TestDocs(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	for _, path := range []string{"/docs/doc.json", "/openapi.json"} {
		t.Run(path, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, path, "")
			require.Equal(t, http.StatusOK, rr.Code)

			doc := decode[apiDoc](t, rr)
			assert.Equal(t, "Books API", doc.Info.Title)
			assert.Equal(t, "CRUD básico para libros", doc.Info.Description)
			require.Contains(t, doc.Paths, "/books")
			require.Contains(t, doc.Paths, "/books/{id}")
			assert.Contains(t, doc.Paths["/books"], "post")
			assert.Contains(t, doc.Paths["/books/{id}"], "delete")
		})
	}
}

func TestDocsUI(t *testing.T) {
	hs, _, _ := newTestServer(t)
	h := hs.Handler()

	rr := do(t, h, http.MethodGet, "/docs/index.html", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "swagger")

	rr = do(t, h, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusMovedPermanently, rr.Code)
	assert.Equal(t, "/docs/index.html", rr.Header().Get("Location"))
}
