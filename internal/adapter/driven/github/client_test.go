package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/automatrixhq/automatrix/internal/adapter/driven/github"
	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// contentJSON is a helper struct for building GitHub contents API responses.
type contentJSON struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha,omitempty"`
	Size     int    `json:"size,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Content  string `json:"content,omitempty"`
}

// newTestClient creates a CatalogClient backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler, ref string) *ghAdapter.CatalogClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewCatalogClientWithHTTPClient(server.Client(), server.URL+"/", "acme/catalog", "/workflows/", ref)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListEntries_WalksSubdirectories(t *testing.T) {
	var refs []string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/catalog/contents/workflows", func(w http.ResponseWriter, r *http.Request) {
		refs = append(refs, r.URL.Query().Get("ref"))
		writeJSON(t, w, []contentJSON{
			{Type: "file", Name: "lead-router.json", Path: "workflows/lead-router.json", SHA: "s1", Size: 120},
			{Type: "dir", Name: "sales", Path: "workflows/sales"},
			{Type: "symlink", Name: "link", Path: "workflows/link"},
		})
	})
	mux.HandleFunc("/repos/acme/catalog/contents/workflows/sales", func(w http.ResponseWriter, r *http.Request) {
		refs = append(refs, r.URL.Query().Get("ref"))
		writeJSON(t, w, []contentJSON{
			{Type: "file", Name: "crm-sync.json", Path: "workflows/sales/crm-sync.json", SHA: "s2", Size: 64},
		})
	})

	client := newTestClient(t, mux, "main")

	entries, err := client.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CatalogEntry{
		{Path: "workflows/lead-router.json", Name: "lead-router.json", SHA: "s1", Size: 120},
		{Path: "workflows/sales/crm-sync.json", Name: "crm-sync.json", SHA: "s2", Size: 64},
	}, entries)
	assert.Equal(t, []string{"main", "main"}, refs)
}

func TestListEntries_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/catalog/contents/workflows", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	client := newTestClient(t, mux, "")

	_, err := client.ListEntries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing acme/catalog:workflows")
}

func TestFetch_DecodesContent(t *testing.T) {
	body := `{"name":"Lead Router","nodes":[]}`
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/catalog/contents/workflows/lead-router.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, contentJSON{
			Type: "file", Name: "lead-router.json", Path: "workflows/lead-router.json",
			Encoding: "base64", Content: base64.StdEncoding.EncodeToString([]byte(body)),
		})
	})

	client := newTestClient(t, mux, "")

	data, err := client.Fetch(context.Background(), "workflows/lead-router.json")
	require.NoError(t, err)
	assert.JSONEq(t, body, string(data))
}

func TestFetch_DirectoryIsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/catalog/contents/workflows/sales", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []contentJSON{{Type: "file", Name: "a.json", Path: "workflows/sales/a.json"}})
	})

	client := newTestClient(t, mux, "")

	_, err := client.Fetch(context.Background(), "workflows/sales")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a file")
}

func TestNewCatalogClient_InvalidRepo(t *testing.T) {
	for _, name := range []string{"", "acme", "/catalog", "acme/"} {
		_, err := ghAdapter.NewCatalogClient(name, "workflows", "", "")
		assert.Error(t, err, name)
	}
}
