package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chainguard-dev/clog/slogtest"
	"github.com/imjasonh/gitblob/internal/blame"
	"github.com/imjasonh/gitblob/internal/gitcmd/gitcmdtest"
	"github.com/imjasonh/gitblob/internal/repo"
	"github.com/imjasonh/gitblob/internal/server"
)

func TestServeRepository(t *testing.T) {
	gitcmdtest.RequireGit(t)
	ctx := slogtest.Context(t)

	// Create a repository with two commits touching the same file
	repoDir, hashes := gitcmdtest.NewRepo(t,
		gitcmdtest.Commit{
			Files:   map[string]string{"README.md": "# Title\n\nBody\n"},
			Name:    "Alice",
			Email:   "alice@example.com",
			When:    time.Unix(1700000000, 0),
			Message: "Add README",
		},
		gitcmdtest.Commit{
			Files:   map[string]string{"README.md": "# Title\n\nBetter body\n"},
			Name:    "Bob",
			Email:   "bob@example.com",
			When:    time.Unix(1700100000, 0),
			Message: "Improve README",
		},
	)

	gitRepo, err := repo.New(ctx, repoDir)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}

	// Start test server
	ts := httptest.NewServer(server.New(gitRepo).Handler())
	defer ts.Close()

	// Fetch the file at the first commit
	resp, err := http.Get(ts.URL + "/raw/" + hashes[0] + "/README.md")
	if err != nil {
		t.Fatalf("failed to fetch raw file: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("raw status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got, want := string(body), "# Title\n\nBody\n"; got != want {
		t.Errorf("raw body = %q, want %q", got, want)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/markdown" && got != "text/plain" {
		t.Errorf("unexpected Content-Type %q", got)
	}

	// Blame the file at HEAD
	resp, err = http.Get(ts.URL + "/blame/HEAD/README.md")
	if err != nil {
		t.Fatalf("failed to fetch blame: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("blame status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var hunks []blame.Hunk
	if err := json.NewDecoder(resp.Body).Decode(&hunks); err != nil {
		t.Fatalf("failed to decode blame: %v", err)
	}
	if len(hunks) != 2 {
		t.Fatalf("got %d hunks, want 2: %+v", len(hunks), hunks)
	}
	if hunks[0].Commit.ID != hashes[0] || len(hunks[0].Lines) != 2 {
		t.Errorf("first hunk = %s %q, want %s with 2 lines", hunks[0].Commit.ID, hunks[0].Lines, hashes[0])
	}
	if hunks[1].Commit.ID != hashes[1] || hunks[1].Lines[0] != "Better body" {
		t.Errorf("second hunk = %s %q, want %s [Better body]", hunks[1].Commit.ID, hunks[1].Lines, hashes[1])
	}
	if hunks[1].Commit.Author.Name != "Bob" {
		t.Errorf("second hunk author = %q, want Bob", hunks[1].Commit.Author.Name)
	}
}

func TestServeMissingObject(t *testing.T) {
	gitcmdtest.RequireGit(t)
	ctx := slogtest.Context(t)

	repoDir, _ := gitcmdtest.NewRepo(t, gitcmdtest.Commit{
		Files:   map[string]string{"a.txt": "a\n", "d/a.txt": "a\n", "d/b.txt": "b\n"},
		Name:    "Alice",
		Email:   "alice@example.com",
		When:    time.Unix(1700000000, 0),
		Message: "Add a",
	})
	gitRepo, err := repo.New(ctx, repoDir)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}

	ts := httptest.NewServer(server.New(gitRepo).Handler())
	defer ts.Close()

	// Trees and commits have ids but are not blobs.
	out, err := gitRepo.Runner().Run(ctx, "rev-parse", "HEAD:d", "HEAD")
	if err != nil {
		t.Fatalf("failed to resolve ids: %v", err)
	}
	ids := strings.Fields(string(out))

	for _, path := range []string{
		"/blobs/0123456789012345678901234567890123456789",
		"/blobs/" + ids[0],
		"/blobs/" + ids[1],
		"/raw/HEAD/missing.txt",
		"/blame/HEAD/missing.txt",
		"/blame/no-such-branch/a.txt",
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d, want %d", path, resp.StatusCode, http.StatusNotFound)
		}
	}
}
