package gitcmdtest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit describes one commit written by NewRepo.
type Commit struct {
	Files   map[string]string // path -> content
	Name    string
	Email   string
	When    time.Time
	Message string
}

// RequireGit skips the test when no git binary is on PATH.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
}

// NewRepo creates a repository in a temporary directory containing commits
// in order and returns its path and the commit hashes.
func NewRepo(t testing.TB, commits ...Commit) (string, []string) {
	t.Helper()
	dir := t.TempDir()

	r, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	w, err := r.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	var hashes []string
	for i, c := range commits {
		for name, content := range c.Files {
			path := filepath.Join(dir, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("failed to create dir for %s: %v", name, err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
			if _, err := w.Add(name); err != nil {
				t.Fatalf("failed to add %s: %v", name, err)
			}
		}

		sig := &object.Signature{Name: c.Name, Email: c.Email, When: c.When}
		hash, err := w.Commit(c.Message, &git.CommitOptions{
			Author:    sig,
			Committer: sig,
		})
		if err != nil {
			t.Fatalf("failed to create commit %d: %v", i, err)
		}
		hashes = append(hashes, hash.String())
	}
	return dir, hashes
}
