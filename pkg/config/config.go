// Package config loads the plz.yaml document and compiles it into the
// command tree.
//
// The document is walked as a yaml.Node tree rather than unmarshalled
// directly: mappings in Go lose declaration order, and the declared order of
// commands is what a group node executes its children in. Individual command
// mappings are then decoded with mapstructure, which gives strict
// unknown-key detection for free — a typoed key fails the load instead of
// being silently ignored.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/plz-run/plz/pkg/task"
)

// FileNames are the config file names probed by Find, in order.
var FileNames = []string{"plz.yaml", "plz.yml"}

// ErrInvalid is the category sentinel for malformed configuration.
var ErrInvalid = errors.New("invalid configuration")

// ErrNotFound is returned by Find when no config file exists in the
// directory or any of its ancestors.
var ErrNotFound = errors.New("no plz.yaml found")

// Find locates the nearest config file, searching dir and then each parent
// directory up to the filesystem root. This makes plz invocable from
// anywhere inside a project.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load reads and parses the config file at path.
func Load(path string) (*task.CommandNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Parse compiles a raw document into the command tree root.
func Parse(data []byte) (*task.CommandNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrInvalid)
	}

	root := &task.CommandNode{}
	var sawCommands bool

	for i := 0; i < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		switch key.Value {
		case "description":
			root.Description = value.Value
		case "variables":
			vars, err := decodeVariables(value)
			if err != nil {
				return nil, err
			}
			root.Variables = vars
		case "commands":
			if err := decodeCommands(value, root); err != nil {
				return nil, err
			}
			sawCommands = true
		default:
			return nil, fmt.Errorf("%w: unknown key %q at line %d", ErrInvalid, key.Value, key.Line)
		}
	}

	if !sawCommands || len(root.ChildOrder) == 0 {
		return nil, fmt.Errorf("%w: no commands defined", ErrInvalid)
	}
	return root, nil
}

// commandSpec mirrors the scalar keys of a command mapping. The variables
// and commands keys are pulled out before decoding so their node structure
// (and order) survives.
type commandSpec struct {
	Description string   `mapstructure:"description"`
	Hidden      bool     `mapstructure:"hidden"`
	Platforms   []string `mapstructure:"platforms"`
	Action      string   `mapstructure:"action"`
	Actions     []string `mapstructure:"actions"`
}

// variableSpec mirrors the extended variable form.
type variableSpec struct {
	Value  string `mapstructure:"value"`
	Exec   string `mapstructure:"exec"`
	Export string `mapstructure:"export"`
}

func decodeCommands(node *yaml.Node, parent *task.CommandNode) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: commands must be a mapping (line %d)", ErrInvalid, node.Line)
	}

	for i := 0; i < len(node.Content); i += 2 {
		nameNode, specNode := node.Content[i], node.Content[i+1]
		name := nameNode.Value
		if name == "" {
			return fmt.Errorf("%w: empty command name at line %d", ErrInvalid, nameNode.Line)
		}
		if _, exists := parent.Children[name]; exists {
			return fmt.Errorf("%w: duplicate command %q at line %d", ErrInvalid, name, nameNode.Line)
		}
		if specNode.Kind != yaml.MappingNode {
			return fmt.Errorf("%w: command %q must be a mapping (line %d)", ErrInvalid, name, specNode.Line)
		}

		raw := make(map[string]any)
		var varsNode, childrenNode *yaml.Node
		for j := 0; j < len(specNode.Content); j += 2 {
			key, value := specNode.Content[j], specNode.Content[j+1]
			switch key.Value {
			case "variables":
				varsNode = value
			case "commands":
				childrenNode = value
			default:
				var v any
				if err := value.Decode(&v); err != nil {
					return fmt.Errorf("%w: command %q, key %q: %v", ErrInvalid, name, key.Value, err)
				}
				raw[key.Value] = v
			}
		}

		var spec commandSpec
		if err := strictDecode(raw, &spec); err != nil {
			return fmt.Errorf("%w: command %q: %v", ErrInvalid, name, err)
		}

		actions, err := normalizeActions(name, spec, childrenNode != nil)
		if err != nil {
			return err
		}

		cmd := &task.CommandNode{
			Name:        name,
			Description: spec.Description,
			Hidden:      spec.Hidden,
			Platforms:   spec.Platforms,
			Actions:     actions,
		}
		if varsNode != nil {
			vars, err := decodeVariables(varsNode)
			if err != nil {
				return fmt.Errorf("command %q: %w", name, err)
			}
			cmd.Variables = vars
		}
		parent.AddChild(cmd)

		if childrenNode != nil {
			if err := decodeCommands(childrenNode, cmd); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeActions folds the action/actions surface union into the single
// ordered list the rest of the system works with.
func normalizeActions(name string, spec commandSpec, hasChildren bool) ([]string, error) {
	if spec.Action != "" && len(spec.Actions) > 0 {
		return nil, fmt.Errorf("%w: command %q declares both action and actions", ErrInvalid, name)
	}
	var actions []string
	if spec.Action != "" {
		actions = []string{spec.Action}
	} else {
		actions = spec.Actions
	}
	for _, a := range actions {
		if a == "" {
			return nil, fmt.Errorf("%w: command %q has an empty action", ErrInvalid, name)
		}
	}
	if len(actions) == 0 && !hasChildren {
		return nil, fmt.Errorf("%w: command %q has no action and no subcommands", ErrInvalid, name)
	}
	return actions, nil
}

func decodeVariables(node *yaml.Node) ([]task.Variable, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: variables must be a mapping (line %d)", ErrInvalid, node.Line)
	}

	var vars []task.Variable
	seen := make(map[string]bool)
	for i := 0; i < len(node.Content); i += 2 {
		nameNode, valueNode := node.Content[i], node.Content[i+1]
		name := nameNode.Value
		if name == "" {
			return nil, fmt.Errorf("%w: empty variable name at line %d", ErrInvalid, nameNode.Line)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate variable %q at line %d", ErrInvalid, name, nameNode.Line)
		}
		seen[name] = true

		switch valueNode.Kind {
		case yaml.ScalarNode:
			// Shorthand literal: name: value.
			vars = append(vars, task.Variable{Name: name, Value: valueNode.Value})
		case yaml.MappingNode:
			var raw map[string]any
			if err := valueNode.Decode(&raw); err != nil {
				return nil, fmt.Errorf("%w: variable %q: %v", ErrInvalid, name, err)
			}
			var spec variableSpec
			if err := strictDecode(raw, &spec); err != nil {
				return nil, fmt.Errorf("%w: variable %q: %v", ErrInvalid, name, err)
			}
			if spec.Value != "" && spec.Exec != "" {
				return nil, fmt.Errorf("%w: variable %q declares both value and exec", ErrInvalid, name)
			}
			if spec.Value == "" && spec.Exec == "" {
				return nil, fmt.Errorf("%w: variable %q declares neither value nor exec", ErrInvalid, name)
			}
			vars = append(vars, task.Variable{
				Name:   name,
				Value:  spec.Value,
				Exec:   spec.Exec,
				Export: spec.Export,
			})
		default:
			return nil, fmt.Errorf("%w: variable %q must be a string or a mapping (line %d)", ErrInvalid, name, valueNode.Line)
		}
	}
	return vars, nil
}

// strictDecode maps raw into out, rejecting unknown keys and coercing
// scalar types loosely (a numeric YAML value is accepted where a string is
// expected).
func strictDecode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
