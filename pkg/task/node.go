/*
Package task contains the core model of the runner: the command tree, the
hierarchical variable scope, and path resolution.

The tree is built once from configuration and is immutable afterwards, so
concurrent invocations may share it freely. Everything transient (override
bindings, positional arguments, evaluated exec variables) lives in the
per-invocation Scope produced by resolution.
*/
package task

// Variable is one declared variable of a command node, in declared order.
// Exactly one of Value or Exec is meaningful: a literal value template, or a
// command line whose captured stdout becomes the value.
type Variable struct {
	Name   string
	Value  string
	Exec   string
	Export string
}

// CommandNode is a named, configured unit owning variables, ordered actions
// and optional child nodes. Each node is exclusively owned by its parent;
// the Parent link exists only so resolution can chain scopes and is never
// used to walk back up during execution.
type CommandNode struct {
	Name        string
	Description string
	Hidden      bool

	// Platforms restricts the node to the named GOOS values. Empty means
	// available everywhere.
	Platforms []string

	Variables []Variable

	// Actions are raw templates, executed in declared order. A node with no
	// actions is a group node and must have children.
	Actions []string

	Children   map[string]*CommandNode
	ChildOrder []string // declared order of Children keys

	Parent *CommandNode
}

// AddChild attaches child to n, preserving declaration order.
func (n *CommandNode) AddChild(child *CommandNode) {
	if n.Children == nil {
		n.Children = make(map[string]*CommandNode)
	}
	child.Parent = n
	n.Children[child.Name] = child
	n.ChildOrder = append(n.ChildOrder, child.Name)
}

// Child returns the named child, if present.
func (n *CommandNode) Child(name string) (*CommandNode, bool) {
	c, ok := n.Children[name]
	return c, ok
}

// IsGroup reports whether the node only exists to hold children.
func (n *CommandNode) IsGroup() bool {
	return len(n.Actions) == 0
}

// AvailableOn reports whether the node may run on the given GOOS.
func (n *CommandNode) AvailableOn(goos string) bool {
	if len(n.Platforms) == 0 {
		return true
	}
	for _, p := range n.Platforms {
		if p == goos {
			return true
		}
	}
	return false
}

// Path returns the segments from the root (exclusive) down to this node.
func (n *CommandNode) Path() []string {
	if n.Parent == nil {
		return nil
	}
	return append(n.Parent.Path(), n.Name)
}
