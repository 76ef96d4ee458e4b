// Package blame parses the porcelain output of git blame.
package blame

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/imjasonh/gitblob/internal/object"
)

var (
	// ErrMalformed is returned for input that does not follow the porcelain format.
	ErrMalformed = errors.New("malformed blame output")

	// ErrUnknownField is returned for a metadata line with an unrecognized key.
	ErrUnknownField = errors.New("unknown blame field")
)

// ParseError reports the input line a parse failed on.
type ParseError struct {
	Line int // 1-based
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("blame line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Entry attributes one line of the blamed file to a commit.
type Entry struct {
	Commit    *object.Commit `json:"commit"`
	Text      string         `json:"text"`
	OrigLine  int            `json:"orig_line"`
	FinalLine int            `json:"final_line"`
}

// Hunk is a run of consecutive lines last changed by the same commit.
type Hunk struct {
	Commit    *object.Commit `json:"commit"`
	StartLine int            `json:"start_line"`
	Lines     []string       `json:"lines"`
}

// header is a parsed "<id> <orig> <final> [<count>]" line.
type header struct {
	id        string
	origLine  int
	finalLine int
}

// metadata accumulates the key/value lines that follow the first header
// of a commit.
type metadata struct {
	author, authorMail, authorTime, authorTZ             *string
	committer, committerMail, committerTime, committerTZ *string
	summary, filename, previous                          *string
	boundary                                             bool
}

// parser holds the state of a single Parse call.
type parser struct {
	commits   map[string]*object.Commit
	entries   []Entry
	groupOpen bool
	pending   *header
	meta      metadata
}

// Parse reads git blame --porcelain output and returns one entry per line
// of the blamed file, in file order. Entries for the same commit share a
// single *object.Commit.
func Parse(r io.Reader) ([]Entry, error) {
	p := &parser{commits: make(map[string]*object.Commit)}

	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading blame output: %w", err)
		}
		if line == "" && err == io.EOF {
			break
		}
		line = strings.TrimSuffix(line, "\n")

		if perr := p.line(line); perr != nil {
			return nil, &ParseError{Line: n, Err: perr}
		}
		if err == io.EOF {
			break
		}
	}

	if p.pending != nil {
		return nil, fmt.Errorf("%w: input ends after header for %s", ErrMalformed, p.pending.id)
	}
	return p.entries, nil
}

// ParseString is Parse over a string.
func ParseString(s string) ([]Entry, error) {
	return Parse(strings.NewReader(s))
}

func (p *parser) line(line string) error {
	if text, ok := strings.CutPrefix(line, "\t"); ok {
		return p.content(text)
	}

	key, value, _ := strings.Cut(line, " ")
	if object.IsID(key) {
		return p.header(line)
	}
	return p.metadata(key, value)
}

func (p *parser) header(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 3 && len(fields) != 4 {
		return fmt.Errorf("%w: header %q has %d fields", ErrMalformed, line, len(fields))
	}

	nums := make([]int, 0, 3)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: header %q: bad line number %q", ErrMalformed, line, f)
		}
		nums = append(nums, n)
	}

	if len(fields) == 4 {
		p.groupOpen = true
	}
	p.pending = &header{
		id:        fields[0],
		origLine:  nums[0],
		finalLine: nums[1],
	}
	return nil
}

func (p *parser) metadata(key, value string) error {
	if p.pending == nil {
		return fmt.Errorf("%w: %q before any header", ErrMalformed, key)
	}

	m := &p.meta
	var field **string
	switch key {
	case "author":
		field = &m.author
	case "author-mail":
		field = &m.authorMail
	case "author-time":
		field = &m.authorTime
	case "author-tz":
		field = &m.authorTZ
	case "committer":
		field = &m.committer
	case "committer-mail":
		field = &m.committerMail
	case "committer-time":
		field = &m.committerTime
	case "committer-tz":
		field = &m.committerTZ
	case "summary":
		field = &m.summary
	case "filename":
		field = &m.filename
	case "previous":
		field = &m.previous
	case "boundary":
		m.boundary = true
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	*field = &value
	return nil
}

func (p *parser) content(text string) error {
	if p.pending == nil {
		return fmt.Errorf("%w: content line without header", ErrMalformed)
	}
	if !p.groupOpen {
		return fmt.Errorf("%w: content line before the first group", ErrMalformed)
	}

	h := p.pending
	c, ok := p.commits[h.id]
	if !ok {
		var err error
		if c, err = p.meta.commit(h.id); err != nil {
			return err
		}
		p.commits[h.id] = c
	}

	p.entries = append(p.entries, Entry{
		Commit:    c,
		Text:      text,
		OrigLine:  h.origLine,
		FinalLine: h.finalLine,
	})
	p.pending = nil
	p.meta = metadata{}
	return nil
}

func (m *metadata) commit(id string) (*object.Commit, error) {
	required := []struct {
		name  string
		value *string
	}{
		{"author", m.author},
		{"author-mail", m.authorMail},
		{"author-time", m.authorTime},
		{"committer", m.committer},
		{"committer-mail", m.committerMail},
		{"committer-time", m.committerTime},
		{"summary", m.summary},
	}
	for _, r := range required {
		if r.value == nil {
			return nil, fmt.Errorf("%w: commit %s has no %s", ErrMalformed, id, r.name)
		}
	}

	authorDate, err := parseTime(*m.authorTime, m.authorTZ)
	if err != nil {
		return nil, fmt.Errorf("%w: commit %s author-time: %v", ErrMalformed, id, err)
	}
	commitDate, err := parseTime(*m.committerTime, m.committerTZ)
	if err != nil {
		return nil, fmt.Errorf("%w: commit %s committer-time: %v", ErrMalformed, id, err)
	}

	return &object.Commit{
		ID:         id,
		Author:     actor(*m.author, *m.authorMail),
		AuthorDate: authorDate,
		Committer:  actor(*m.committer, *m.committerMail),
		CommitDate: commitDate,
		Message:    *m.summary,
	}, nil
}

func actor(name, mail string) object.Actor {
	mail = strings.TrimSuffix(strings.TrimPrefix(mail, "<"), ">")
	return object.Actor{Name: name, Email: mail}
}

// parseTime converts Unix seconds to a time in the "+hhmm" zone tz, or UTC.
func parseTime(secs string, tz *string) (time.Time, error) {
	n, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Unix(n, 0).UTC()
	if tz == nil {
		return t, nil
	}
	loc, err := parseZone(*tz)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func parseZone(tz string) (*time.Location, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return nil, fmt.Errorf("bad zone %q", tz)
	}
	hh, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return nil, fmt.Errorf("bad zone %q", tz)
	}
	mm, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return nil, fmt.Errorf("bad zone %q", tz)
	}
	offset := hh*3600 + mm*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(tz, offset), nil
}

// Hunks groups consecutive entries with the same commit.
func Hunks(entries []Entry) []Hunk {
	var hunks []Hunk
	for _, e := range entries {
		if n := len(hunks); n > 0 && hunks[n-1].Commit == e.Commit {
			hunks[n-1].Lines = append(hunks[n-1].Lines, e.Text)
			continue
		}
		hunks = append(hunks, Hunk{
			Commit:    e.Commit,
			StartLine: e.FinalLine,
			Lines:     []string{e.Text},
		})
	}
	return hunks
}
