package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"
)

// Static serves files under dir at the given URL prefix with long-lived
// caching. ETags are content hashes computed on first request and revalidated
// against the file's modtime and size, so edited assets get a new tag without
// a restart.
type Static struct {
	prefix string
	dir    string
	files  http.Handler

	mu   sync.Mutex
	tags map[string]assetTag
}

type assetTag struct {
	etag    string
	modTime time.Time
	size    int64
}

// NewStatic builds the asset handler. prefix is the mount path ("/assets").
func NewStatic(prefix, dir string) *Static {
	return &Static{
		prefix: strings.TrimSuffix(prefix, "/"),
		dir:    dir,
		files:  http.StripPrefix(prefix, http.FileServer(http.Dir(dir))),
		tags:   map[string]assetTag{},
	}
}

func (s *Static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=604800")
	w.Header().Set("Vary", "Accept-Encoding")

	rel := strings.TrimPrefix(r.URL.Path, s.prefix)
	if etag := s.etagFor(rel); etag != "" {
		w.Header().Set("ETag", etag)
		if requestMatchesETag(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	s.files.ServeHTTP(w, r)
}

// etagFor returns the cached tag for the asset at URL path rel, hashing the
// file when the cache is cold or the file on disk has changed. Anything that
// fails to stat or read is left without a tag; the file server will 404 it.
func (s *Static) etagFor(rel string) string {
	clean := path.Clean("/" + rel)
	if strings.Contains(clean, "..") {
		return ""
	}
	full := s.dir + clean
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tag, ok := s.tags[clean]; ok && tag.modTime.Equal(info.ModTime()) && tag.size == info.Size() {
		return tag.etag
	}

	b, err := os.ReadFile(full)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`
	s.tags[clean] = assetTag{etag: etag, modTime: info.ModTime(), size: info.Size()}
	return etag
}

// requestMatchesETag implements the If-None-Match comparison, including the
// wildcard and comma-separated candidate lists.
func requestMatchesETag(header, etag string) bool {
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}
