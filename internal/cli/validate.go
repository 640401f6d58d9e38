package cli

import (
	"os"

	"github.com/plz-run/plz/internal/presentation/tui"
)

// Validate loads and validates the configuration without resolving or
// executing anything. Returns 0 when the document is well formed.
func Validate(opts Options) int {
	printer := tui.NewPrinter(os.Stderr)

	if _, _, code := loadTree(opts, printer); code != 0 {
		return code
	}

	printer.Successf("configuration is valid")
	return 0
}
