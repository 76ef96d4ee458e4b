package object

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Type represents a Git object type.
type Type string

const (
	TypeBlob   Type = "blob"
	TypeTree   Type = "tree"
	TypeCommit Type = "commit"
	TypeTag    Type = "tag"
)

// Hash computes the SHA-1 object id of data stored as type t.
func Hash(t Type, data []byte) string {
	header := fmt.Sprintf("%s %d\x00", t, len(data))

	h := sha1.New()
	h.Write([]byte(header))
	h.Write(data)

	return fmt.Sprintf("%x", h.Sum(nil))
}

// IsID reports whether s is a full 40 character hex object id, in either case.
func IsID(s string) bool {
	return plumbing.IsHash(s)
}

// SameID compares two hex ids ignoring case.
func SameID(a, b string) bool {
	return strings.EqualFold(a, b)
}
