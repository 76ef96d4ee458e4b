package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/chainguard-dev/clog"
	"github.com/imjasonh/gitblob/internal/blame"
	"github.com/imjasonh/gitblob/internal/gitcmd"
	"github.com/imjasonh/gitblob/internal/object"
	"github.com/imjasonh/gitblob/internal/repo"
)

// handleBlob serves a blob by id. The optional name parameter drives the
// Content-Type guess.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !object.IsID(id) {
		http.Error(w, "Invalid blob id", http.StatusBadRequest)
		return
	}

	var opts []object.BlobOption
	if name := r.URL.Query().Get("name"); name != "" {
		opts = append(opts, object.WithName(name))
	}
	s.writeBlob(w, r, s.repo.Blob(id, opts...))
}

// revisionPath returns the revision and file path a request names. When
// the rev query parameter is set, the whole path after the route prefix
// is the file path.
func revisionPath(r *http.Request) (rev, path string) {
	rev, path = r.PathValue("rev"), r.PathValue("path")
	if q := r.URL.Query().Get("rev"); q != "" {
		if rev != "" {
			path = rev + "/" + path
		}
		rev = q
	}
	return rev, path
}

// handleRaw serves the blob at a path in a revision.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	rev, path := revisionPath(r)
	b, err := s.repo.BlobAt(r.Context(), rev, path)
	if err != nil {
		s.writeError(w, r, "failed to find blob", err)
		return
	}
	s.writeBlob(w, r, b)
}

func (s *Server) writeBlob(w http.ResponseWriter, r *http.Request, b *object.Blob) {
	ctx := r.Context()

	size, err := b.Size(ctx)
	if err != nil {
		s.writeError(w, r, "failed to read blob size", err)
		return
	}
	content, err := b.Content(ctx)
	if err != nil {
		s.writeError(w, r, "failed to read blob", err)
		return
	}

	w.Header().Set("Content-Type", b.MimeType())
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("ETag", strconv.Quote(b.ID))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := w.Write(content); err != nil {
		clog.FromContext(ctx).Error("failed to write blob", "id", b.ID, "error", err)
	}
}

// handleBlame serves the blame of a file as JSON hunks.
func (s *Server) handleBlame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rev, path := revisionPath(r)

	// Cache on the resolved commit so moving refs are never served stale.
	commit, err := s.repo.ResolveCommit(ctx, rev)
	if err != nil {
		s.writeError(w, r, "failed to resolve revision", err)
		return
	}
	key := commit + "\x00" + path

	var hunks []blame.Hunk
	if cached, ok := s.cachedBlame(key); ok {
		hunks = cached
	} else {
		entries, err := s.repo.Blame(ctx, commit, path)
		if err != nil {
			s.writeError(w, r, "failed to blame", err)
			return
		}
		hunks = blame.Hunks(entries)
		s.cacheBlame(key, hunks)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(hunks); err != nil {
		clog.FromContext(ctx).Error("failed to encode blame", "path", path, "error", err)
	}
}

func (s *Server) cachedBlame(key string) ([]blame.Hunk, bool) {
	if s.blames == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.blames.Get(key)
	if !ok {
		return nil, false
	}
	return cached.([]blame.Hunk), true
}

func (s *Server) cacheBlame(key string, hunks []blame.Hunk) {
	if s.blames == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blames.Add(key, hunks)
}

// writeError maps repository and git errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repo.ErrInvalidRevision):
		status = http.StatusBadRequest
	case errors.Is(err, repo.ErrNotFound), gitcmd.ExitCode(err) == 128:
		status = http.StatusNotFound
	}

	log := clog.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		log.Error(msg, "error", err)
	} else {
		log.Info(msg, "status", status, "error", err)
	}
	http.Error(w, http.StatusText(status), status)
}
