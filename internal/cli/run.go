// Package cli wires configuration loading, resolution and execution behind
// the cobra commands, and maps the error taxonomy onto process exit codes.
package cli

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plz-run/plz/internal/logging"
	"github.com/plz-run/plz/internal/presentation/tui"
	"github.com/plz-run/plz/pkg/config"
	"github.com/plz-run/plz/pkg/executor"
	"github.com/plz-run/plz/pkg/task"
)

// Options carries the flag and argument state shared by the commands.
type Options struct {
	// File is an explicit config path; empty means search upward from the
	// working directory.
	File string
	// Segments is the command path the user typed.
	Segments []string
	// Dash holds the tokens after "--": name=value overrides and bare
	// positional values.
	Dash []string
	// Verbose enables debug logging.
	Verbose bool
}

// Run executes one invocation end to end and returns the process exit code:
// 0 on success, the failing child's code on abort, and a distinguished
// non-zero code when nothing was spawned.
func Run(opts Options) int {
	printer := tui.NewPrinter(os.Stderr)
	logger := logging.NewNop()
	if opts.Verbose {
		logger = logging.New(slog.LevelDebug)
	}

	root, dir, code := loadTree(opts, printer)
	if code != 0 {
		return code
	}

	overrides, positional := splitDashArgs(opts.Dash)

	signals := executor.NewSignalManager()
	defer signals.Stop()

	exec := executor.New(
		executor.WithLogger(logger),
		executor.WithDir(dir),
	)
	tree := task.NewTree(root, task.WithExecFunc(exec.CaptureOutput))

	rc, err := tree.Resolve(signals.Context(), opts.Segments, positional, overrides)
	if err != nil {
		printer.Errorf("plz: %v", err)
		suggestCommands(printer, tree, err)
		return executor.ExitUsage
	}
	logger.Debug("resolved command",
		"path", strings.Join(rc.Path, " "),
		"positional", rc.Positional,
		"actions", len(rc.Node.Actions))

	out := exec.Run(signals.Context(), rc)
	switch {
	case out.Success():
		logger.Debug("invocation complete", "command", strings.Join(out.Path, " "))
	case out.Interrupted:
		printer.Warnf("plz: interrupted")
	default:
		printer.Errorf("plz: %s", out)
	}
	return out.Code
}

// loadTree locates and parses the configuration. The second result is the
// directory containing the config file, which becomes the working directory
// for every spawned process.
func loadTree(opts Options, printer *tui.Printer) (*task.CommandNode, string, int) {
	path := opts.File
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			printer.Errorf("plz: %v", err)
			return nil, "", executor.ExitUsage
		}
		path, err = config.Find(cwd)
		if err != nil {
			printer.Errorf("plz: %v", err)
			printer.Hintf("create a plz.yaml in your project root to define commands")
			return nil, "", executor.ExitUsage
		}
	}

	root, err := config.Load(path)
	if err != nil {
		printer.Errorf("plz: %v", err)
		return nil, "", executor.ExitUsage
	}
	return root, filepath.Dir(path), 0
}

// splitDashArgs separates the post-dash tokens: name=value pairs become
// scope overrides, everything else is positional.
func splitDashArgs(dash []string) (map[string]string, []string) {
	overrides := make(map[string]string)
	var positional []string
	for _, tok := range dash {
		if eq := strings.IndexByte(tok, '='); eq > 0 {
			overrides[tok[:eq]] = tok[eq+1:]
			continue
		}
		positional = append(positional, tok)
	}
	return overrides, positional
}

// suggestCommands prints the commands available under the longest prefix
// that did resolve, to shorten the user's next attempt.
func suggestCommands(printer *tui.Printer, tree *task.Tree, err error) {
	var unknown *task.UnknownCommandError
	if !errors.As(err, &unknown) {
		return
	}

	node := tree.Root()
	for _, seg := range unknown.Prefix {
		child, ok := node.Child(seg)
		if !ok {
			return
		}
		node = child
	}

	var names []string
	for name, child := range node.Children {
		if child.Hidden || !child.AvailableOn(tree.GOOS()) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}
	sort.Strings(names)

	where := "available commands"
	if len(unknown.Prefix) > 0 {
		where = "available under " + strings.Join(unknown.Prefix, " ")
	}
	printer.Hintf("%s: %s", where, strings.Join(names, ", "))
}
