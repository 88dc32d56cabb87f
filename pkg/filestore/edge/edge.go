// Package edge serves object reads for browser delivery. It sits in
// front of a read-only view of the blob store: GET and HEAD are the only
// verbs it answers, transport must be HTTPS, and small responses are
// held in an in-process cache.
package edge

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/datadives/project-roodha/pkg/filestore"
)

// maxCacheableSize caps the object size the edge is willing to buffer
// for its cache. Larger bodies are streamed straight through.
const maxCacheableSize = 4 << 20

// Server answers read traffic for the upload bucket.
type Server struct {
	store       filestore.BlobStore
	cache       *Cache
	logger      *slog.Logger
	requireTLS  bool
	redirectTLS bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCache attaches a read cache.
func WithCache(cache *Cache) ServerOption {
	return func(s *Server) { s.cache = cache }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithTLSRedirect makes insecure requests redirect to their https URL
// instead of being rejected with 403.
func WithTLSRedirect(redirect bool) ServerOption {
	return func(s *Server) { s.redirectTLS = redirect }
}

// WithoutTLS disables transport enforcement, for local development.
func WithoutTLS() ServerOption {
	return func(s *Server) { s.requireTLS = false }
}

// NewServer creates an edge server reading from store. The store should
// be a read-only guarded view so that the edge cannot write or delete.
func NewServer(store filestore.BlobStore, opts ...ServerOption) *Server {
	s := &Server{
		store:      store,
		logger:     slog.Default(),
		requireTLS: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the edge router: GET and HEAD on every path, everything
// else answered with 405.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.secureTransport)
	r.Get("/*", s.handleGet)
	r.Head("/*", s.handleHead)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

func (s *Server) secureTransport(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.requireTLS || isSecure(r) {
			next.ServeHTTP(w, r)
			return
		}
		if s.redirectTLS && r.Method == http.MethodGet {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
		http.Error(w, "https required", http.StatusForbidden)
	})
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := objectKey(r)
	if key == "" {
		http.Error(w, "object key required", http.StatusNotFound)
		return
	}

	if entry, ok := s.cache.Get(key); ok {
		s.writeMeta(w, entry.contentType, entry.etag, int64(len(entry.body)))
		w.Write(entry.body)
		return
	}

	meta, err := s.store.Head(r.Context(), key)
	if err != nil {
		s.writeError(w, r, key, err)
		return
	}

	reader, err := s.store.Download(r.Context(), key)
	if err != nil {
		s.writeError(w, r, key, err)
		return
	}
	defer reader.Close()

	s.writeMeta(w, meta.ContentType, meta.ETag, meta.Size)

	if s.cache != nil && meta.Size > 0 && meta.Size <= maxCacheableSize {
		body, err := io.ReadAll(reader)
		if err != nil {
			s.logger.Error("edge read failed", "key", key, "error", err)
			return
		}
		s.cache.Put(key, body, meta.ContentType, meta.ETag)
		w.Write(body)
		return
	}

	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("edge stream failed", "key", key, "error", err)
	}
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	key := objectKey(r)
	if key == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if entry, ok := s.cache.Get(key); ok {
		s.writeMeta(w, entry.contentType, entry.etag, int64(len(entry.body)))
		w.WriteHeader(http.StatusOK)
		return
	}

	meta, err := s.store.Head(r.Context(), key)
	if err != nil {
		s.writeError(w, r, key, err)
		return
	}

	s.writeMeta(w, meta.ContentType, meta.ETag, meta.Size)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeMeta(w http.ResponseWriter, contentType, etag string, size int64) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, key string, err error) {
	switch {
	case errors.Is(err, filestore.ErrObjectNotFound):
		http.Error(w, "object not found", http.StatusNotFound)
	case errors.Is(err, filestore.ErrAccessDenied):
		s.logger.Warn("edge access denied", "key", key, "remote", r.RemoteAddr)
		http.Error(w, "access denied", http.StatusForbidden)
	default:
		s.logger.Error("edge request failed", "key", key, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func objectKey(r *http.Request) string {
	key := chi.URLParam(r, "*")
	if key == "" {
		key = strings.TrimPrefix(r.URL.Path, "/")
	}
	return key
}
