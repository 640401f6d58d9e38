// Package executor runs resolved commands: one process per tokenized
// action, strictly sequential, fail-fast, with stdio passed through to the
// invoking terminal.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/plz-run/plz/pkg/shellwords"
	"github.com/plz-run/plz/pkg/task"
)

// Exit codes reserved by the runner itself. Anything else is a child's own
// exit status surfaced unchanged.
const (
	// ExitUsage covers configuration, resolution and substitution failures:
	// nothing was spawned.
	ExitUsage = 2
	// ExitSpawnFailure mirrors the shell convention for "command not found".
	ExitSpawnFailure = 127
	// ExitInterrupted mirrors the shell convention for SIGINT termination.
	ExitInterrupted = 130
)

// waitDelay is how long a signalled child gets to exit before it is killed.
const waitDelay = 10 * time.Second

// Executor spawns processes for resolved commands. The zero value is not
// usable; construct with New.
type Executor struct {
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	dir    string
	env    []string
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the structured logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithDir sets the working directory for spawned processes. Conventionally
// the directory containing plz.yaml, so actions behave the same regardless
// of where in the project the user invoked plz.
func WithDir(dir string) Option {
	return func(e *Executor) {
		e.dir = dir
	}
}

// WithStdio replaces the inherited standard streams. Used by tests.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithEnv replaces the base process environment. Defaults to os.Environ().
func WithEnv(env []string) Option {
	return func(e *Executor) {
		e.env = env
	}
}

// New creates an Executor with inherited stdio and environment.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		env:    os.Environ(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the resolved command. A node with actions runs them in
// declared order; a group node runs each available child in declared order,
// recursively. The first failure aborts the entire chain and its outcome is
// returned unchanged.
func (e *Executor) Run(ctx context.Context, rc *task.ResolvedCommand) Outcome {
	return e.runNode(ctx, rc, rc.Node, rc.Path, rc.Scope)
}

// CaptureOutput runs argv and returns its stdout. It satisfies
// task.ExecFunc for exec variable evaluation; stderr stays passed through so
// diagnostics from the variable's command remain visible.
func (e *Executor) CaptureOutput(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.dir
	cmd.Env = e.env
	cmd.Stderr = e.stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func (e *Executor) runNode(ctx context.Context, rc *task.ResolvedCommand, node *task.CommandNode, path []string, scope *task.Scope) Outcome {
	if node.IsGroup() {
		return e.runGroup(ctx, rc, node, path, scope)
	}
	return e.runActions(ctx, node, path, scope)
}

// runGroup descends into each child in declared order, chaining the child's
// variable frame onto the invocation scope. CLI overrides stay innermost
// throughout the descent.
func (e *Executor) runGroup(ctx context.Context, rc *task.ResolvedCommand, node *task.CommandNode, path []string, scope *task.Scope) Outcome {
	for _, name := range node.ChildOrder {
		child := node.Children[name]
		if !child.AvailableOn(rc.Tree.GOOS()) {
			continue
		}
		childPath := append(append([]string(nil), path...), name)

		childScope, err := rc.Tree.PushFrame(ctx, child, scope)
		if err != nil {
			return Outcome{Code: ExitUsage, Path: childPath, Err: err}
		}
		if out := e.runNode(ctx, rc, child, childPath, childScope); !out.Success() {
			return out
		}
	}
	return Outcome{Path: path}
}

func (e *Executor) runActions(ctx context.Context, node *task.CommandNode, path []string, scope *task.Scope) Outcome {
	env, err := e.environment(scope)
	if err != nil {
		return Outcome{Code: ExitUsage, Path: path, Err: err}
	}

	for _, action := range node.Actions {
		if ctx.Err() != nil {
			return Outcome{Code: ExitInterrupted, Path: path, Action: action, Interrupted: true, Err: ctx.Err()}
		}

		argv, err := shellwords.Expand(action, scope)
		if err != nil {
			// Substitution failed: nothing is spawned for this action.
			return Outcome{Code: ExitUsage, Path: path, Action: action, Err: err}
		}
		if len(argv) == 0 {
			return Outcome{Code: ExitUsage, Path: path, Action: action, Err: fmt.Errorf("action expanded to an empty command")}
		}

		e.logger.Debug("spawning process", "command", strings.Join(path, " "), "argv", argv)

		if out := e.spawn(ctx, argv, env, path, action); !out.Success() {
			return out
		}
	}
	return Outcome{Path: path}
}

// spawn runs a single argument vector to completion and classifies the
// result.
func (e *Executor) spawn(ctx context.Context, argv, env []string, path []string, action string) Outcome {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.Dir = e.dir
	cmd.Env = env

	// Forward cancellation as an interrupt rather than the default kill,
	// giving the child a chance to clean up; WaitDelay is the hard limit.
	// Interrupt is not implemented on Windows, where the delayed kill
	// applies instead.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return Outcome{Path: path, Action: action}
	}

	if ctx.Err() != nil {
		return Outcome{Code: ExitInterrupted, Path: path, Action: action, Interrupted: true, Err: err}
	}

	var exit *exec.ExitError
	if errors.As(err, &exit) {
		code := exit.ExitCode()
		if code < 0 {
			// Terminated by a signal outside our own cancellation.
			code = ExitInterrupted
		}
		return Outcome{Code: code, Path: path, Action: action, Err: err}
	}

	// The process never started: missing executable, permission problem.
	return Outcome{Code: ExitSpawnFailure, Path: path, Action: action, SpawnFailed: true, Err: err}
}

// environment extends the base environment with the scope's exported
// variables, resolved through the scope so overrides apply.
func (e *Executor) environment(scope *task.Scope) ([]string, error) {
	exports := scope.Exports()
	if len(exports) == 0 {
		return e.env, nil
	}

	envNames := make([]string, 0, len(exports))
	for envName := range exports {
		envNames = append(envNames, envName)
	}
	sort.Strings(envNames)

	env := append([]string(nil), e.env...)
	for _, envName := range envNames {
		raw, ok := scope.Lookup(exports[envName])
		if !ok {
			continue
		}
		value, err := shellwords.Interpolate(raw, scope)
		if err != nil {
			return nil, fmt.Errorf("exporting %s: %w", envName, err)
		}
		env = append(env, envName+"="+value)
	}
	return env, nil
}
