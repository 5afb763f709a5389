package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "org-a/doc-1/plan.txt", ObjectKey("org-a", "doc-1", "plan.txt"))
}

func TestPutUnconfigured(t *testing.T) {
	store := NewStore(Config{})
	assert.False(t, store.Configured())

	url, err := store.Put(context.Background(), "org-a/doc-1/plan.txt", []byte("data"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "blob://unconfigured/org-a/doc-1/plan.txt", url)
}

func TestPutUploads(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewStore(Config{Endpoint: srv.URL, Bucket: "uploads"})
	url, err := store.Put(context.Background(), "org-a/doc-1/plan.txt", []byte("raw bytes"), "text/plain")
	require.NoError(t, err)

	assert.Equal(t, "/uploads/org-a/doc-1/plan.txt", gotPath)
	assert.Equal(t, "text/plain", gotContentType)
	assert.Equal(t, "raw bytes", string(gotBody))
	assert.Equal(t, srv.URL+"/uploads/org-a/doc-1/plan.txt", url)
}

func TestPutServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket missing", http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewStore(Config{Endpoint: srv.URL, Bucket: "uploads"})
	_, err := store.Put(context.Background(), "k", []byte("data"), "text/plain")
	assert.Error(t, err)
}
