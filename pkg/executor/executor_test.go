package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/plz-run/plz/pkg/shellwords"
	"github.com/plz-run/plz/pkg/task"
)

// The executor tests spawn real processes and rely on a POSIX userland
// (true, false, sh, touch, sleep).
func skipWithoutPOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX userland")
	}
}

// resolved builds a one-command tree around node and resolves it.
func resolved(t *testing.T, node *task.CommandNode, overrides map[string]string) *task.ResolvedCommand {
	t.Helper()
	root := &task.CommandNode{}
	root.AddChild(node)
	tree := task.NewTree(root, task.WithExecFunc(New().CaptureOutput))
	rc, err := tree.Resolve(context.Background(), []string{node.Name}, nil, overrides)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return rc
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	skipWithoutPOSIX(t)
	dir := t.TempDir()
	before := filepath.Join(dir, "before")
	after := filepath.Join(dir, "after")

	node := &task.CommandNode{
		Name:    "job",
		Actions: []string{"touch " + before, "false", "touch " + after},
	}

	out := New().Run(context.Background(), resolved(t, node, nil))

	if out.Success() {
		t.Fatal("run succeeded, want failure")
	}
	if out.Code != 1 {
		t.Errorf("exit code = %d, want 1 (false's exit code)", out.Code)
	}
	if out.Action != "false" {
		t.Errorf("failing action = %q, want %q", out.Action, "false")
	}
	if _, err := os.Stat(before); err != nil {
		t.Error("action before the failure did not run")
	}
	if _, err := os.Stat(after); err == nil {
		t.Error("action after the failure ran, want it skipped")
	}
}

func TestRunPropagatesExitCode(t *testing.T) {
	skipWithoutPOSIX(t)
	node := &task.CommandNode{
		Name:    "job",
		Actions: []string{`sh -c "exit 3"`},
	}

	out := New().Run(context.Background(), resolved(t, node, nil))
	if out.Code != 3 {
		t.Errorf("exit code = %d, want 3", out.Code)
	}
	if out.SpawnFailed {
		t.Error("non-zero exit misclassified as spawn failure")
	}
}

func TestRunStdoutPassthrough(t *testing.T) {
	skipWithoutPOSIX(t)
	var stdout, stderr bytes.Buffer
	e := New(WithStdio(nil, &stdout, &stderr))

	node := &task.CommandNode{
		Name:    "greet",
		Actions: []string{"echo Hello, $name!"},
	}
	rc := resolved(t, node, map[string]string{"name": "Godzilla"})

	out := e.Run(context.Background(), rc)
	if !out.Success() {
		t.Fatalf("run failed: %v", out.Err)
	}
	if got := stdout.String(); got != "Hello, Godzilla!\n" {
		t.Errorf("stdout = %q, want %q", got, "Hello, Godzilla!\n")
	}
}

func TestRunUndefinedVariableSpawnsNothing(t *testing.T) {
	skipWithoutPOSIX(t)
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	node := &task.CommandNode{
		Name:    "job",
		Actions: []string{"touch " + marker + " $missing"},
	}

	out := New().Run(context.Background(), resolved(t, node, nil))
	if out.Code != ExitUsage {
		t.Errorf("exit code = %d, want %d", out.Code, ExitUsage)
	}
	var undef *shellwords.UndefinedVariableError
	if !errors.As(out.Err, &undef) {
		t.Fatalf("err = %v, want UndefinedVariableError", out.Err)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("process spawned despite substitution failure")
	}
}

func TestRunSpawnFailure(t *testing.T) {
	node := &task.CommandNode{
		Name:    "job",
		Actions: []string{"plz-no-such-binary-anywhere"},
	}

	out := New().Run(context.Background(), resolved(t, node, nil))
	if out.Code != ExitSpawnFailure {
		t.Errorf("exit code = %d, want %d", out.Code, ExitSpawnFailure)
	}
	if !out.SpawnFailed {
		t.Error("spawn failure not flagged")
	}
}

func TestRunGroupNodeRunsChildrenInOrderAndAborts(t *testing.T) {
	skipWithoutPOSIX(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	third := filepath.Join(dir, "third")

	group := &task.CommandNode{Name: "all"}
	group.AddChild(&task.CommandNode{Name: "one", Actions: []string{"touch " + first}})
	group.AddChild(&task.CommandNode{Name: "two", Actions: []string{"false"}})
	group.AddChild(&task.CommandNode{Name: "three", Actions: []string{"touch " + third}})

	out := New().Run(context.Background(), resolved(t, group, nil))

	if out.Code != 1 {
		t.Errorf("exit code = %d, want 1", out.Code)
	}
	if got := out.Path; len(got) != 2 || got[1] != "two" {
		t.Errorf("failure path = %v, want [all two]", got)
	}
	if _, err := os.Stat(first); err != nil {
		t.Error("first child did not run")
	}
	if _, err := os.Stat(third); err == nil {
		t.Error("sibling after the failure ran, want whole chain aborted")
	}
}

func TestRunGroupChildSeesOwnFrameUnderOverrides(t *testing.T) {
	skipWithoutPOSIX(t)
	var stdout bytes.Buffer
	e := New(WithStdio(nil, &stdout, os.Stderr))

	group := &task.CommandNode{Name: "all"}
	group.AddChild(&task.CommandNode{
		Name:      "child",
		Variables: []task.Variable{{Name: "who", Value: "config"}},
		Actions:   []string{"echo $who"},
	})

	// Without overrides the child's own frame applies.
	out := e.Run(context.Background(), resolved(t, group, nil))
	if !out.Success() {
		t.Fatalf("run failed: %v", out.Err)
	}
	if got := stdout.String(); got != "config\n" {
		t.Errorf("stdout = %q, want %q", got, "config\n")
	}

	// A CLI override outranks the child frame pushed during descent.
	stdout.Reset()
	out = e.Run(context.Background(), resolved(t, group, map[string]string{"who": "cli"}))
	if !out.Success() {
		t.Fatalf("run failed: %v", out.Err)
	}
	if got := stdout.String(); got != "cli\n" {
		t.Errorf("stdout = %q, want %q", got, "cli\n")
	}
}

func TestRunExportedVariableReachesEnvironment(t *testing.T) {
	skipWithoutPOSIX(t)
	var stdout bytes.Buffer
	e := New(WithStdio(nil, &stdout, os.Stderr))

	node := &task.CommandNode{
		Name: "job",
		Variables: []task.Variable{
			{Name: "token", Value: "hunter2", Export: "PLZ_TOKEN"},
		},
		// Single quotes keep $PLZ_TOKEN away from our interpolation and
		// hand it to the shell.
		Actions: []string{`sh -c 'printf %s "$PLZ_TOKEN"'`},
	}

	out := e.Run(context.Background(), resolved(t, node, nil))
	if !out.Success() {
		t.Fatalf("run failed: %v", out.Err)
	}
	if got := stdout.String(); got != "hunter2" {
		t.Errorf("exported value = %q, want %q", got, "hunter2")
	}
}

func TestRunCancelledContextRunsNothing(t *testing.T) {
	skipWithoutPOSIX(t)
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	node := &task.CommandNode{
		Name:    "job",
		Actions: []string{"touch " + marker},
	}
	rc := resolved(t, node, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := New().Run(ctx, rc)
	if out.Code != ExitInterrupted {
		t.Errorf("exit code = %d, want %d", out.Code, ExitInterrupted)
	}
	if !out.Interrupted {
		t.Error("outcome not marked interrupted")
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("action ran despite cancelled context")
	}
}

func TestRunCancellationStopsTheChain(t *testing.T) {
	skipWithoutPOSIX(t)
	dir := t.TempDir()
	after := filepath.Join(dir, "after")

	node := &task.CommandNode{
		Name:    "job",
		Actions: []string{"sleep 30", "touch " + after},
	}
	rc := resolved(t, node, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := New().Run(ctx, rc)

	if time.Since(start) > 10*time.Second {
		t.Fatal("cancellation did not reach the running child")
	}
	if out.Code != ExitInterrupted {
		t.Errorf("exit code = %d, want %d", out.Code, ExitInterrupted)
	}
	if _, err := os.Stat(after); err == nil {
		t.Error("action after cancellation ran")
	}
}

func TestCaptureOutput(t *testing.T) {
	skipWithoutPOSIX(t)
	e := New()

	got, err := e.CaptureOutput(context.Background(), []string{"echo", "abc"})
	if err != nil {
		t.Fatalf("CaptureOutput: %v", err)
	}
	if got != "abc\n" {
		t.Errorf("output = %q, want %q", got, "abc\n")
	}

	if _, err := e.CaptureOutput(context.Background(), []string{"false"}); err == nil {
		t.Error("CaptureOutput of failing command succeeded, want error")
	}
}
