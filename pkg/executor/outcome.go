package executor

import (
	"fmt"
	"strings"
)

// Outcome records how an invocation ended: the exit code the tool should
// itself exit with, and which action of which node produced it. Success is
// the zero Code with a nil Err.
type Outcome struct {
	// Code is the process exit code to surface.
	Code int
	// Path is the command path of the node the outcome belongs to.
	Path []string
	// Action is the raw template of the failing action, empty on success
	// and for group-level failures.
	Action string
	// Err is the underlying failure, nil on success.
	Err error
	// SpawnFailed distinguishes "could not start" from "exited non-zero".
	SpawnFailed bool
	// Interrupted marks termination caused by cancellation.
	Interrupted bool
}

// Success reports whether the whole chain completed.
func (o Outcome) Success() bool {
	return o.Code == 0 && o.Err == nil
}

// String renders a one-line description for user-facing reporting.
func (o Outcome) String() string {
	where := strings.Join(o.Path, " ")
	switch {
	case o.Success():
		return fmt.Sprintf("%s: ok", where)
	case o.Interrupted:
		return fmt.Sprintf("%s: interrupted", where)
	case o.SpawnFailed:
		return fmt.Sprintf("%s: failed to start %q: %v", where, o.Action, o.Err)
	case o.Action != "":
		return fmt.Sprintf("%s: %q exited with code %d", where, o.Action, o.Code)
	default:
		return fmt.Sprintf("%s: failed: %v", where, o.Err)
	}
}
