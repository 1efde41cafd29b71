// Package environment executes build commands on behalf of a documentation
// build and captures their output and exit status.
//
// Every Command carries its own working directory, so callers never need to
// change the process working directory to run a tool in a checkout.
package environment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/project"
)

var (
	ErrEmptyCommand    = errors.New("empty command")
	ErrCommandNotFound = errors.New("command not found")
)

// Command describes one process invocation.
type Command struct {
	Args []string
	// Dir is the working directory. Empty means the version's checkout path.
	Dir string
	// Env is appended to the inherited process environment.
	Env []string
}

// Result captures the outcome of a finished command.
type Result struct {
	Args     []string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	Start    time.Time
	End      time.Time
}

func (r *Result) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r *Result) Failed() bool { return r.ExitCode != 0 }

// Output returns stdout and stderr combined, stdout first.
func (r *Result) Output() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// CommandError is returned when a command exits with a non-zero status.
type CommandError struct {
	Result *Result
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", strings.Join(e.Result.Args, " "), e.Result.ExitCode)
	if out := strings.TrimSpace(e.Result.Output()); out != "" {
		msg += ": " + out
	}
	return msg
}

// Local runs commands directly on the host.
type Local struct {
	project project.Project
	version project.Version
	env     []string
}

// Option configures a Local environment.
type Option func(*Local)

// WithEnv adds KEY=VALUE pairs to every command run in the environment.
func WithEnv(kv ...string) Option {
	return func(l *Local) { l.env = append(l.env, kv...) }
}

// NewLocal binds an execution environment to one project version.
func NewLocal(p project.Project, v project.Version, opts ...Option) *Local {
	l := &Local{project: p, version: v}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Project() project.Project { return l.project }

func (l *Local) Version() project.Version { return l.version }

// Run executes cmd and waits for it. A non-zero exit status yields both the
// Result and a *CommandError.
func (l *Local) Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Args) == 0 {
		return nil, ErrEmptyCommand
	}
	if _, err := exec.LookPath(cmd.Args[0]); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCommandNotFound, cmd.Args[0], err)
	}

	dir := cmd.Dir
	if dir == "" {
		dir = l.project.CheckoutPath(l.version.Slug)
	}

	// #nosec G204 -- commands come from backend definitions and operator config
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Dir = dir
	c.Env = append(append(os.Environ(), l.env...), cmd.Env...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	res := &Result{Args: cmd.Args, Dir: dir, Start: time.Now()}
	slog.Debug("Running build command", logfields.Command(cmd.Args), logfields.Path(dir))
	err := c.Run()
	res.End = time.Now()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("run %s: %w", cmd.Args[0], err)
		}
		res.ExitCode = exitErr.ExitCode()
		slog.Warn("Build command failed",
			logfields.Command(cmd.Args),
			logfields.ExitCode(res.ExitCode),
			slog.String("stderr", res.Stderr))
		return res, &CommandError{Result: res}
	}

	slog.Debug("Build command finished",
		logfields.Command(cmd.Args),
		logfields.DurationMS(float64(res.Duration().Milliseconds())))
	return res, nil
}
