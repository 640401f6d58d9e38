// Package tui renders user-facing output: colored diagnostics on stderr and
// the glamour-rendered command listing. Machine-relevant state (exit codes,
// child output) never passes through here.
package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Printer writes colored diagnostics. The color profile is detected from
// the output writer, so redirected output degrades to plain text.
type Printer struct {
	out     io.Writer
	profile termenv.Profile
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		out:     w,
		profile: termenv.NewOutput(w).ColorProfile(),
	}
}

// Errorf prints a red error line.
func (p *Printer) Errorf(format string, args ...any) {
	msg := termenv.String(fmt.Sprintf(format, args...)).Foreground(p.profile.Color("#f87171"))
	fmt.Fprintln(p.out, msg)
}

// Warnf prints an amber warning line.
func (p *Printer) Warnf(format string, args ...any) {
	msg := termenv.String(fmt.Sprintf(format, args...)).Foreground(p.profile.Color("#fbbf24"))
	fmt.Fprintln(p.out, msg)
}

// Hintf prints a dimmed hint line, used for "did you mean" style followups.
func (p *Printer) Hintf(format string, args ...any) {
	msg := termenv.String(fmt.Sprintf(format, args...)).Faint()
	fmt.Fprintln(p.out, msg)
}

// Successf prints a green confirmation line.
func (p *Printer) Successf(format string, args ...any) {
	msg := termenv.String(fmt.Sprintf(format, args...)).Foreground(p.profile.Color("#34d399"))
	fmt.Fprintln(p.out, msg)
}
