package task

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is the category sentinel for failed path resolution.
// Use errors.Is against it, or errors.As with *UnknownCommandError for the
// details.
var ErrUnknownCommand = errors.New("unknown command")

// UnknownCommandError reports a path segment that matched no child, together
// with the longest prefix that did resolve.
type UnknownCommandError struct {
	// Prefix is the chain of segments that resolved, possibly empty.
	Prefix []string
	// Segment is the offending segment.
	Segment string
}

func (e *UnknownCommandError) Error() string {
	if len(e.Prefix) == 0 {
		return fmt.Sprintf("unknown command %q", e.Segment)
	}
	return fmt.Sprintf("unknown command %q under %q", e.Segment, strings.Join(e.Prefix, " "))
}

func (e *UnknownCommandError) Unwrap() error {
	return ErrUnknownCommand
}

// ExecVariableError reports an exec variable whose command could not be
// tokenized or exited non-zero during resolution.
type ExecVariableError struct {
	Name string
	Err  error
}

func (e *ExecVariableError) Error() string {
	return fmt.Sprintf("evaluating variable %q: %v", e.Name, e.Err)
}

func (e *ExecVariableError) Unwrap() error {
	return e.Err
}
