package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

// Runner invokes git subcommands and returns their standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// Error is returned when a git invocation fails to start or exits non-zero.
type Error struct {
	Args     []string
	ExitCode int // -1 if the process never exited normally
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Exec runs git as a subprocess.
type Exec struct {
	binary  string
	dir     string
	env     []string
	timeout time.Duration
}

// Option configures an Exec.
type Option func(*Exec)

// WithBinary sets the git executable, "git" by default.
func WithBinary(binary string) Option {
	return func(e *Exec) { e.binary = binary }
}

// WithTimeout bounds every invocation. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Exec) { e.timeout = d }
}

// WithEnv appends KEY=VALUE pairs to the subprocess environment.
func WithEnv(env ...string) Option {
	return func(e *Exec) { e.env = append(e.env, env...) }
}

// New creates a Runner executing git in dir.
func New(dir string, opts ...Option) *Exec {
	e := &Exec{
		binary: "git",
		dir:    dir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dir returns the working directory invocations run in.
func (e *Exec) Dir() string {
	return e.dir
}

// Run executes git with args and returns its standard output.
func (e *Exec) Run(ctx context.Context, args ...string) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log := clog.FromContext(ctx)
	start := time.Now()

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Dir = e.dir
	if len(e.env) > 0 {
		cmd.Env = append(cmd.Environ(), e.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Report the deadline rather than the kill signal it caused.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		log.Debug("git failed", "args", args, "exit", exitCode, "duration", time.Since(start))
		return nil, &Error{
			Args:     args,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	log.Debug("git", "args", args, "bytes", stdout.Len(), "duration", time.Since(start))
	return stdout.Bytes(), nil
}

// ExitCode reports the exit status carried by err, or -1 if err is not a
// failed git invocation.
func ExitCode(err error) int {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.ExitCode
	}
	return -1
}
