// Package shellwords turns raw action templates into argument vectors.
//
// It implements POSIX-style word splitting (single quotes, double quotes,
// backslash escapes) combined with $name / ${name} variable interpolation
// against a caller-supplied scope. No shell is ever involved: the resulting
// vector is handed directly to process creation, which is what makes the
// runner work on hosts without /bin/sh.
//
// Two deliberate deviations from shell behavior:
//   - an undefined variable is an error, never an empty string, so
//     configuration typos surface before a process is spawned;
//   - interpolated values are inserted verbatim into the current word and are
//     never re-split, so values containing spaces stay single arguments.
package shellwords

import (
	"fmt"
	"strings"
)

// Scope resolves variable names to raw value templates.
// A value template may itself contain $name references; Expand resolves
// those recursively.
type Scope interface {
	Lookup(name string) (value string, ok bool)
}

// maxDepth bounds recursive value interpolation. Variable values referencing
// each other deeper than this are treated as a cycle.
const maxDepth = 16

// UndefinedVariableError reports a $name reference with no binding anywhere
// in the scope chain.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// SyntaxError reports a malformed template (unterminated quote, dangling
// escape, empty ${} reference).
type SyntaxError struct {
	Template string
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid template %q: %s", e.Template, e.Reason)
}

// CycleError reports variable values that reference each other without end.
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("variable %q expands into itself", e.Name)
}

// Expand tokenizes template into an argument vector, resolving variable
// references through scope. The first element of the result is the program
// name, the rest are its arguments.
func Expand(template string, scope Scope) ([]string, error) {
	var argv []string
	var word strings.Builder
	inWord := false

	flush := func() {
		if inWord {
			argv = append(argv, word.String())
			word.Reset()
			inWord = false
		}
	}

	i := 0
	for i < len(template) {
		c := template[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
			i++

		case c == '\'':
			// Single quotes: no interpolation, no escapes.
			end := strings.IndexByte(template[i+1:], '\'')
			if end < 0 {
				return nil, &SyntaxError{Template: template, Reason: "unterminated single quote"}
			}
			word.WriteString(template[i+1 : i+1+end])
			inWord = true
			i += end + 2

		case c == '"':
			consumed, err := scanDoubleQuoted(template, i+1, scope, &word)
			if err != nil {
				return nil, err
			}
			inWord = true
			i = consumed

		case c == '\\':
			if i+1 >= len(template) {
				return nil, &SyntaxError{Template: template, Reason: "trailing backslash"}
			}
			word.WriteByte(template[i+1])
			inWord = true
			i += 2

		case c == '$':
			value, next, err := interpolate(template, i, scope, 0)
			if err != nil {
				return nil, err
			}
			word.WriteString(value)
			// An unquoted expansion that produced nothing does not start
			// a word on its own.
			if value != "" {
				inWord = true
			}
			i = next

		default:
			word.WriteByte(c)
			inWord = true
			i++
		}
	}
	flush()

	return argv, nil
}

// Interpolate resolves $name references in a bare value string. No word
// splitting or quote processing happens; this is used for variable values
// and environment exports.
func Interpolate(value string, scope Scope) (string, error) {
	return interpolateValue(value, scope, 0)
}

// scanDoubleQuoted consumes a double-quoted section starting just past the
// opening quote. Interpolation stays active; word splitting does not.
func scanDoubleQuoted(template string, start int, scope Scope, word *strings.Builder) (int, error) {
	i := start
	for i < len(template) {
		c := template[i]
		switch {
		case c == '"':
			return i + 1, nil
		case c == '\\' && i+1 < len(template):
			// Inside double quotes only these escapes are special; a
			// backslash before anything else is literal.
			switch template[i+1] {
			case '"', '\\', '$':
				word.WriteByte(template[i+1])
				i += 2
			default:
				word.WriteByte(c)
				i++
			}
		case c == '$':
			value, next, err := interpolate(template, i, scope, 0)
			if err != nil {
				return 0, err
			}
			word.WriteString(value)
			i = next
		default:
			word.WriteByte(c)
			i++
		}
	}
	return 0, &SyntaxError{Template: template, Reason: "unterminated double quote"}
}

// interpolate resolves the reference starting at the '$' at position i.
// It returns the substituted value and the index just past the reference.
func interpolate(template string, i int, scope Scope, depth int) (string, int, error) {
	// i points at '$'.
	if i+1 >= len(template) {
		// A trailing dollar is literal, matching shell behavior.
		return "$", i + 1, nil
	}

	next := template[i+1]
	switch {
	case next == '$':
		// $$ escapes a literal dollar for the child process.
		return "$", i + 2, nil

	case next == '{':
		end := strings.IndexByte(template[i+2:], '}')
		if end < 0 {
			return "", 0, &SyntaxError{Template: template, Reason: "unterminated ${} reference"}
		}
		name := template[i+2 : i+2+end]
		if name == "" {
			return "", 0, &SyntaxError{Template: template, Reason: "empty ${} reference"}
		}
		value, err := resolve(name, scope, depth)
		if err != nil {
			return "", 0, err
		}
		return value, i + 2 + end + 1, nil

	default:
		name := scanName(template[i+1:])
		if name == "" {
			// '$' followed by something that cannot start a name is literal.
			return "$", i + 1, nil
		}
		value, err := resolve(name, scope, depth)
		if err != nil {
			return "", 0, err
		}
		return value, i + 1 + len(name), nil
	}
}

// scanName consumes the longest prefix that forms a bare variable name:
// an identifier, a positional index (1, 2, ...), or @.
func scanName(s string) string {
	if s == "" {
		return ""
	}
	if s[0] == '@' {
		return "@"
	}
	if s[0] >= '0' && s[0] <= '9' {
		end := 1
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		return s[:end]
	}
	if !isNameStart(s[0]) {
		return ""
	}
	end := 1
	for end < len(s) && isNamePart(s[end]) {
		end++
	}
	return s[:end]
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// resolve looks up name and recursively interpolates the value template.
func resolve(name string, scope Scope, depth int) (string, error) {
	if depth >= maxDepth {
		return "", &CycleError{Name: name}
	}
	raw, ok := scope.Lookup(name)
	if !ok {
		return "", &UndefinedVariableError{Name: name}
	}
	return interpolateValue(raw, scope, depth+1)
}

// interpolateValue resolves $name references inside a variable value.
// Quotes and backslashes are literal here; values are opaque text apart
// from variable references.
func interpolateValue(value string, scope Scope, depth int) (string, error) {
	if !strings.ContainsRune(value, '$') {
		return value, nil
	}
	var out strings.Builder
	i := 0
	for i < len(value) {
		if value[i] != '$' {
			out.WriteByte(value[i])
			i++
			continue
		}
		sub, next, err := interpolate(value, i, scope, depth)
		if err != nil {
			return "", err
		}
		out.WriteString(sub)
		i = next
	}
	return out.String(), nil
}
