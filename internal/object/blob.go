package object

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/imjasonh/gitblob/internal/gitcmd"
)

// DefaultMimeType is reported for blobs whose name gives no better guess.
const DefaultMimeType = "text/plain"

var (
	// ErrMalformedSize is returned when git reports a size that is not an integer.
	ErrMalformedSize = errors.New("malformed blob size")

	// ErrHashMismatch is returned by Verify when content does not hash to the blob id.
	ErrHashMismatch = errors.New("blob content does not match id")
)

// Blob represents a Git blob object (file content).
//
// Size and content are fetched from git on first use and kept for the
// lifetime of the Blob.
type Blob struct {
	ID   string
	Mode string
	Name string

	git gitcmd.Runner

	mu         sync.Mutex
	size       int64
	hasSize    bool
	content    []byte
	hasContent bool
}

// BlobOption supplies a field that is already known.
type BlobOption func(*Blob)

// WithName sets the path of the blob.
func WithName(name string) BlobOption {
	return func(b *Blob) { b.Name = name }
}

// WithMode sets the file mode of the blob.
func WithMode(mode string) BlobOption {
	return func(b *Blob) { b.Mode = mode }
}

// WithSize records a size so Size does not have to ask git.
func WithSize(size int64) BlobOption {
	return func(b *Blob) {
		b.size = size
		b.hasSize = true
	}
}

// WithContent records content so Content does not have to ask git.
func WithContent(content []byte) BlobOption {
	return func(b *Blob) {
		b.content = content
		b.hasContent = true
	}
}

// NewBlob creates a blob with the given id whose missing fields are
// resolved through git.
func NewBlob(git gitcmd.Runner, id string, opts ...BlobOption) *Blob {
	b := &Blob{ID: id, git: git}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Type returns the object type.
func (b *Blob) Type() Type {
	return TypeBlob
}

// Size returns the size of the blob in bytes.
func (b *Blob) Size(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hasSize {
		return b.size, nil
	}
	if b.hasContent {
		b.size, b.hasSize = int64(len(b.content)), true
		return b.size, nil
	}

	// Peeling to a blob makes git refuse trees, commits and tags.
	out, err := b.git.Run(ctx, "cat-file", "-s", b.ID+"^{blob}")
	if err != nil {
		return 0, fmt.Errorf("reading size of blob %s: %w", b.ID, err)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: blob %s: %q", ErrMalformedSize, b.ID, out)
	}

	b.size, b.hasSize = size, true
	return size, nil
}

// Content returns the raw blob content exactly as git stores it. It fails
// if the id names an object other than a blob.
func (b *Blob) Content(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hasContent {
		return b.content, nil
	}

	out, err := b.git.Run(ctx, "cat-file", "blob", b.ID)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", b.ID, err)
	}

	b.content, b.hasContent = out, true
	if !b.hasSize {
		b.size, b.hasSize = int64(len(out)), true
	}
	return out, nil
}

// MimeType guesses the MIME type from the file name.
func (b *Blob) MimeType() string {
	if b.Name == "" {
		return DefaultMimeType
	}
	typ := mime.TypeByExtension(path.Ext(b.Name))
	if typ == "" {
		return DefaultMimeType
	}
	// Drop parameters such as "; charset=utf-8".
	if mediaType, _, err := mime.ParseMediaType(typ); err == nil {
		return mediaType
	}
	return typ
}

// Basename returns the final path segment of the name.
func (b *Blob) Basename() string {
	return b.Name[strings.LastIndexByte(b.Name, '/')+1:]
}

// Verify checks that the content hashes to the blob id.
func (b *Blob) Verify(ctx context.Context) error {
	content, err := b.Content(ctx)
	if err != nil {
		return err
	}
	if got := Hash(TypeBlob, content); !SameID(got, b.ID) {
		return fmt.Errorf("%w: %s hashes to %s", ErrHashMismatch, b.ID, got)
	}
	return nil
}

func (b *Blob) String() string {
	if b.Name != "" {
		return fmt.Sprintf("blob %s (%s)", b.ID, b.Name)
	}
	return "blob " + b.ID
}
