package server

import (
	"net/http"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/golang/groupcache/lru"
	"github.com/imjasonh/gitblob/internal/repo"
)

// DefaultBlameCacheSize is the number of blame results kept in memory.
const DefaultBlameCacheSize = 128

// Server serves blobs and blame over HTTP.
type Server struct {
	repo *repo.Repository

	mu     sync.Mutex
	blames *lru.Cache // commit id + path -> []blame.Hunk; nil when off
}

// Option configures a Server.
type Option func(*Server)

// WithBlameCacheSize bounds the blame result cache. A size of zero or
// less turns the cache off.
func WithBlameCacheSize(n int) Option {
	return func(s *Server) {
		s.blames = nil
		if n > 0 {
			s.blames = lru.New(n)
		}
	}
}

// New creates a new HTTP server.
func New(r *repo.Repository, opts ...Option) *Server {
	s := &Server{
		repo:   r,
		blames: lru.New(DefaultBlameCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /blobs/{id}", s.handleBlob)
	mux.HandleFunc("GET /raw/{rev}/{path...}", s.handleRaw)
	mux.HandleFunc("GET /blame/{rev}/{path...}", s.handleBlame)

	// Revisions containing a slash, such as feature/x, are passed as ?rev=.
	mux.HandleFunc("GET /raw/{path...}", s.handleRaw)
	mux.HandleFunc("GET /blame/{path...}", s.handleBlame)

	return s.logMiddleware(mux)
}

// logMiddleware logs HTTP requests.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := clog.FromContext(r.Context())
		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"remote", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}
