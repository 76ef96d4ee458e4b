// Package gitcmdtest provides a scripted gitcmd.Runner for tests.
package gitcmdtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/imjasonh/gitblob/internal/gitcmd"
)

// Response is the canned result of one invocation.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Fake answers invocations from a table keyed by the space-joined args.
// Unscripted invocations fail with exit code 128, the way git reports
// unknown objects.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     [][]string
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// Set scripts the response for args.
func (f *Fake) Set(resp Response, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.Join(args, " ")] = resp
	return f
}

// Stdout scripts a successful invocation printing out.
func (f *Fake) Stdout(out string, args ...string) *Fake {
	return f.Set(Response{Stdout: out}, args...)
}

// Run implements gitcmd.Runner.
func (f *Fake) Run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), args...))

	resp, ok := f.responses[strings.Join(args, " ")]
	if !ok {
		resp = Response{
			Stderr:   fmt.Sprintf("fatal: unscripted invocation: %s", strings.Join(args, " ")),
			ExitCode: 128,
		}
	}
	if resp.ExitCode != 0 {
		return nil, &gitcmd.Error{
			Args:     args,
			ExitCode: resp.ExitCode,
			Stderr:   resp.Stderr,
			Err:      fmt.Errorf("exit status %d", resp.ExitCode),
		}
	}
	return []byte(resp.Stdout), nil
}

// Calls returns every invocation so far.
func (f *Fake) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

// Count returns how many times args was invoked.
func (f *Fake) Count(args ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.Join(args, " ")
	n := 0
	for _, c := range f.calls {
		if strings.Join(c, " ") == key {
			n++
		}
	}
	return n
}
