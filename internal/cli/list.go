package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/plz-run/plz/internal/presentation/tui"
	"github.com/plz-run/plz/pkg/task"
)

// List renders the visible command tree as markdown to stdout. Hidden
// commands and commands filtered out on this platform are omitted.
func List(opts Options) int {
	printer := tui.NewPrinter(os.Stderr)

	root, _, code := loadTree(opts, printer)
	if code != 0 {
		return code
	}

	var md strings.Builder
	md.WriteString("# Commands\n\n")
	if root.Description != "" {
		md.WriteString(root.Description + "\n\n")
	}
	writeListing(&md, root, nil)

	render := tui.NewRenderer()
	fmt.Fprint(os.Stdout, render(md.String()))
	return 0
}

func writeListing(md *strings.Builder, node *task.CommandNode, path []string) {
	for _, name := range node.ChildOrder {
		child := node.Children[name]
		if child.Hidden || !child.AvailableOn(runtime.GOOS) {
			continue
		}
		childPath := append(append([]string(nil), path...), name)

		fmt.Fprintf(md, "%s- **%s**", strings.Repeat("  ", len(path)), name)
		if child.Description != "" {
			fmt.Fprintf(md, ": %s", child.Description)
		}
		if child.IsGroup() {
			fmt.Fprintf(md, " *(group)*")
		}
		md.WriteString("\n")

		writeListing(md, child, childPath)
	}
}
