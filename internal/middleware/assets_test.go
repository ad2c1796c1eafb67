package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStaticServesWithETagAndRevalidates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "site.css")
	require.NoError(t, os.WriteFile(file, []byte("body{margin:0}"), 0o644))

	h := NewStatic("/assets", dir)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/assets/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age")
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest("GET", "/assets/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)

	// weak-comparison and list forms of the header also match
	req = httptest.NewRequest("GET", "/assets/site.css", nil)
	req.Header.Set("If-None-Match", `"nope", W/`+etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestStaticRetagsEditedFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(file, []byte("let a = 1"), 0o644))

	h := NewStatic("/assets", dir)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/assets/app.js", nil))
	first := rec.Header().Get("ETag")
	require.NotEmpty(t, first)

	require.NoError(t, os.WriteFile(file, []byte("let a = 2;"), 0o644))
	// coarse filesystems may not advance mtime on a fast rewrite
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(file, future, future))

	req := httptest.NewRequest("GET", "/assets/app.js", nil)
	req.Header.Set("If-None-Match", first)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEqual(t, first, rec.Header().Get("ETag"))
}

func TestStaticMissingFileHasNoETag(t *testing.T) {
	h := NewStatic("/assets", t.TempDir())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/assets/nope.css", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, rec.Header().Get("ETag"))
}
