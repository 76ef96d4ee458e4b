package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/golang/groupcache/lru"
	"github.com/imjasonh/gitblob/internal/blame"
	"github.com/imjasonh/gitblob/internal/gitcmd"
	"github.com/imjasonh/gitblob/internal/object"
)

var (
	// ErrNotRepository is returned by New for a directory git does not recognize.
	ErrNotRepository = errors.New("not a git repository")

	// ErrNotFound is returned when a path does not name a blob at a revision.
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidRevision is returned for revisions git would read as a flag.
	ErrInvalidRevision = errors.New("invalid revision")
)

// DefaultCacheSize is the number of blobs kept by a Repository.
const DefaultCacheSize = 256

// Repository represents a Git repository accessed through the git binary.
type Repository struct {
	path   string
	gitDir string
	git    gitcmd.Runner

	mu    sync.Mutex
	blobs *lru.Cache
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	runner    gitcmd.Runner
	execOpts  []gitcmd.Option
	cacheSize int
}

// WithRunner replaces the git subprocess runner.
func WithRunner(r gitcmd.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithExecOptions configures the default subprocess runner.
func WithExecOptions(opts ...gitcmd.Option) Option {
	return func(o *options) { o.execOpts = append(o.execOpts, opts...) }
}

// WithCacheSize bounds the number of cached blobs. A size of zero or
// less turns the cache off.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// New opens the Git repository at path.
func New(ctx context.Context, path string, opts ...Option) (*Repository, error) {
	o := &options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(o)
	}
	if o.runner == nil {
		o.runner = gitcmd.New(path, o.execOpts...)
	}

	out, err := o.runner.Run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotRepository, path, err)
	}

	r := &Repository{
		path:   path,
		gitDir: strings.TrimSpace(string(out)),
		git:    o.runner,
	}
	// lru treats zero as unbounded.
	if o.cacheSize > 0 {
		r.blobs = lru.New(o.cacheSize)
	}
	clog.FromContext(ctx).Debug("opened repository", "path", path, "gitdir", r.gitDir)
	return r, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// GitDir returns the git directory as reported by git, possibly relative to Path.
func (r *Repository) GitDir() string {
	return r.gitDir
}

// Runner returns the runner used for git invocations.
func (r *Repository) Runner() gitcmd.Runner {
	return r.git
}

// Blob returns the blob with the given id. Blobs are cached by id and
// name, so repeated lookups share content already read from git.
func (r *Repository) Blob(id string, opts ...object.BlobOption) *object.Blob {
	b := object.NewBlob(r.git, id, opts...)
	if r.blobs == nil {
		return b
	}
	key := strings.ToLower(id) + "\x00" + b.Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.blobs.Get(key); ok {
		return cached.(*object.Blob)
	}
	r.blobs.Add(key, b)
	return b
}

// BlobAt returns the blob at path in the tree of rev, with its mode and
// size already filled in.
func (r *Repository) BlobAt(ctx context.Context, rev, path string) (*object.Blob, error) {
	if err := checkRevision(rev); err != nil {
		return nil, err
	}
	out, err := r.git.Run(ctx, "ls-tree", "-l", "-z", rev, "--", path)
	if err != nil {
		return nil, fmt.Errorf("listing %s at %s: %w", path, rev, err)
	}

	for _, rec := range bytes.Split(out, []byte{0}) {
		if len(rec) == 0 {
			continue
		}
		entry, err := object.ParseTreeEntry(string(rec))
		if err != nil {
			return nil, fmt.Errorf("listing %s at %s: %w", path, rev, err)
		}
		if entry.Name != path {
			continue
		}
		if entry.Type != object.TypeBlob {
			return nil, fmt.Errorf("%w: %s at %s is a %s", ErrNotFound, path, rev, entry.Type)
		}
		return r.Blob(entry.ID,
			object.WithName(entry.Name),
			object.WithMode(entry.Mode),
			object.WithSize(entry.Size),
		), nil
	}
	return nil, fmt.Errorf("%w: %s at %s", ErrNotFound, path, rev)
}

// Blame attributes each line of path at rev to the commit that last changed it.
func (r *Repository) Blame(ctx context.Context, rev, path string) ([]blame.Entry, error) {
	if err := checkRevision(rev); err != nil {
		return nil, err
	}
	out, err := r.git.Run(ctx, "blame", "--porcelain", rev, "--", path)
	if err != nil {
		return nil, fmt.Errorf("blaming %s at %s: %w", path, rev, err)
	}
	entries, err := blame.Parse(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parsing blame of %s at %s: %w", path, rev, err)
	}
	return entries, nil
}

// ResolveCommit returns the full id of the commit rev names.
func (r *Repository) ResolveCommit(ctx context.Context, rev string) (string, error) {
	if err := checkRevision(rev); err != nil {
		return "", err
	}
	out, err := r.git.Run(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rev, err)
	}
	id := strings.TrimSpace(string(out))
	if !object.IsID(id) {
		return "", fmt.Errorf("resolving %s: unexpected output %q", rev, out)
	}
	return id, nil
}

func checkRevision(rev string) error {
	if rev == "" || strings.HasPrefix(rev, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidRevision, rev)
	}
	return nil
}
