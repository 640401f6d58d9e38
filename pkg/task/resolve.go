package task

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/plz-run/plz/pkg/shellwords"
)

// ExecFunc evaluates an exec variable: it runs the argument vector and
// returns the captured stdout. Injected by the caller so the tree stays free
// of process-creation concerns.
type ExecFunc func(ctx context.Context, argv []string) (string, error)

// Tree holds the immutable command tree and resolves invocation paths
// against it.
type Tree struct {
	root *CommandNode
	goos string
	exec ExecFunc
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithGOOS overrides the platform used for availability filtering.
// Defaults to runtime.GOOS.
func WithGOOS(goos string) TreeOption {
	return func(t *Tree) {
		t.goos = goos
	}
}

// WithExecFunc installs the evaluator for exec variables.
func WithExecFunc(fn ExecFunc) TreeOption {
	return func(t *Tree) {
		t.exec = fn
	}
}

// NewTree creates a resolver over root.
func NewTree(root *CommandNode, opts ...TreeOption) *Tree {
	t := &Tree{
		root: root,
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root exposes the root node for listing and validation.
func (t *Tree) Root() *CommandNode {
	return t.root
}

// GOOS returns the platform the tree filters against.
func (t *Tree) GOOS() string {
	return t.goos
}

// ResolvedCommand is the result of path resolution: a node plus its fully
// chained scope. It is valid for the duration of a single invocation.
type ResolvedCommand struct {
	Node  *CommandNode
	Scope *Scope

	// Tree is the resolver that produced this command; execution uses it to
	// chain child frames when descending into group nodes.
	Tree *Tree

	// Path is the matched segment chain, Positional the trailing value
	// arguments bound as $1..$n and $@.
	Path       []string
	Positional []string
}

// Resolve maps segments onto a single node and builds its effective scope:
// root frame outermost, then each node frame down the matched chain, then
// positionals, with CLI overrides innermost. Exec variables along the chain
// are evaluated here, once per invocation.
//
// Segments beyond the deepest matching node are legal only when that node
// has actions; they become positional arguments. Anywhere else the
// non-matching segment fails resolution.
func (t *Tree) Resolve(ctx context.Context, segments []string, positional []string, overrides map[string]string) (*ResolvedCommand, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no command given: %w", ErrUnknownCommand)
	}

	cur := t.root
	matched := 0
	for matched < len(segments) {
		child, ok := cur.Child(segments[matched])
		if ok && child.AvailableOn(t.goos) {
			cur = child
			matched++
			continue
		}
		if cur != t.root && !cur.IsGroup() {
			// Trailing segments become positional arguments.
			break
		}
		return nil, &UnknownCommandError{
			Prefix:  append([]string(nil), segments[:matched]...),
			Segment: segments[matched],
		}
	}

	args := append(append([]string(nil), segments[matched:]...), positional...)

	scope := NewScope()
	for name, value := range overrides {
		scope.Bind(name, literal(value))
	}

	for _, node := range chain(cur) {
		next, err := t.PushFrame(ctx, node, scope)
		if err != nil {
			return nil, err
		}
		scope = next
	}

	if len(args) > 0 {
		pf := NewFrame()
		for i, v := range args {
			pf.Set(strconv.Itoa(i+1), Binding{Value: literal(v)})
		}
		pf.Set("@", Binding{Value: literal(strings.Join(args, " "))})
		scope = scope.Push(pf)
	}

	return &ResolvedCommand{
		Node:       cur,
		Scope:      scope,
		Tree:       t,
		Path:       append([]string(nil), segments[:matched]...),
		Positional: args,
	}, nil
}

// PushFrame builds node's variable frame on top of scope, evaluating any
// exec variables it declares. Variables are processed in declared order, so
// a variable may reference earlier siblings as well as anything in the outer
// chain. Execution calls this when descending into the children of a group
// node.
func (t *Tree) PushFrame(ctx context.Context, node *CommandNode, scope *Scope) (*Scope, error) {
	frame := NewFrame()
	next := scope.Push(frame)

	for _, v := range node.Variables {
		b := Binding{Value: v.Value, Export: v.Export}
		if v.Exec != "" && !next.overridden(v.Name) {
			if t.exec == nil {
				return nil, &ExecVariableError{Name: v.Name, Err: fmt.Errorf("exec variables are not enabled")}
			}
			argv, err := shellwords.Expand(v.Exec, next)
			if err != nil {
				return nil, &ExecVariableError{Name: v.Name, Err: err}
			}
			out, err := t.exec(ctx, argv)
			if err != nil {
				return nil, &ExecVariableError{Name: v.Name, Err: err}
			}
			b.Value = literal(strings.TrimSpace(out))
		}
		frame.Set(v.Name, b)
	}
	return next, nil
}

// overridden reports whether name is shadowed by a CLI override, in which
// case evaluating its exec command would be wasted work.
func (s *Scope) overridden(name string) bool {
	if s.overrides == nil {
		return false
	}
	_, ok := s.overrides.Get(name)
	return ok
}

// chain returns root..node, outermost first.
func chain(node *CommandNode) []*CommandNode {
	var nodes []*CommandNode
	for n := node; n != nil; n = n.Parent {
		nodes = append(nodes, n)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

// literal escapes runtime-supplied text so later interpolation treats it as
// opaque data rather than a template.
func literal(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
