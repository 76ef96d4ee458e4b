package object

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeEntry is one line of `git ls-tree -l` output.
type TreeEntry struct {
	Mode string // File mode (e.g., "100644" for regular file)
	Type Type
	ID   string
	Size int64 // -1 for entries that are not blobs
	Name string
}

// ParseTreeEntry parses "<mode> SP <type> SP <id> SP+ <size> TAB <name>".
func ParseTreeEntry(line string) (TreeEntry, error) {
	meta, name, ok := strings.Cut(line, "\t")
	if !ok {
		return TreeEntry{}, fmt.Errorf("invalid tree entry %q: no tab", line)
	}
	fields := strings.Fields(meta)
	if len(fields) != 4 {
		return TreeEntry{}, fmt.Errorf("invalid tree entry %q: want 4 fields, got %d", line, len(fields))
	}
	if !IsID(fields[2]) {
		return TreeEntry{}, fmt.Errorf("invalid tree entry %q: bad id", line)
	}

	size := int64(-1)
	if fields[3] != "-" {
		n, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return TreeEntry{}, fmt.Errorf("invalid tree entry %q: %w", line, err)
		}
		size = n
	}

	return TreeEntry{
		Mode: fields[0],
		Type: Type(fields[1]),
		ID:   fields[2],
		Size: size,
		Name: name,
	}, nil
}
