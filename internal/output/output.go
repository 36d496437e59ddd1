// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Writer handles CLI output formatting.
type Writer struct {
	out         io.Writer
	err         io.Writer
	color       bool
	quiet       bool
	interactive bool
}

// New creates a new Writer with default settings.
func New() *Writer {
	return &Writer{
		out:         os.Stdout,
		err:         os.Stderr,
		color:       isTerminal(os.Stdout),
		interactive: isTerminal(os.Stderr),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetColor enables or disables colored output.
func (w *Writer) SetColor(enabled bool) {
	w.color = enabled
}

// Quiet reports whether informational output is suppressed.
func (w *Writer) Quiet() bool {
	return w.quiet
}

// Interactive reports whether stderr is a terminal, where a progress bar
// can redraw in place.
func (w *Writer) Interactive() bool {
	return w.interactive
}

// Out returns the stdout writer.
func (w *Writer) Out() io.Writer {
	return w.out
}

// Err returns the stderr writer.
func (w *Writer) Err() io.Writer {
	return w.err
}

// paint returns a color that honors the writer's color setting rather than
// the package-wide color.NoColor.
func (w *Writer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if w.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Print writes to stdout.
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Info prints an info message (skipped in quiet mode).
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println(format, args...)
}

// Section prints a section header.
func (w *Writer) Section(title string) {
	if w.quiet {
		return
	}
	w.Println("")
	w.Println("%s", w.paint(color.Bold).Sprintf("=== %s ===", title))
}

// ErrorPrefix prints an error message with cargotest prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Errorln("%s %s", w.paint(color.FgRed).Sprint("cargotest:"), msg)
}

// Warning prints a warning message to stderr.
func (w *Writer) Warning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.Errorln("%s %s", w.paint(color.FgYellow).Sprint("warning:"), msg)
}

// SummaryHeader prints a summary section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	w.Println("%s", w.paint(color.Bold, color.FgCyan).Sprintf("=== %s ===", title))
	w.Println("")
}

// SummaryItem prints a labeled summary item with value.
func (w *Writer) SummaryItem(label, value string) {
	w.Println("  %s %s", w.paint(color.Faint).Sprint(label+":"), value)
}

// SummaryPassed prints a passed/success items summary.
func (w *Writer) SummaryPassed(label, value string) {
	w.Println("  %s %s", w.paint(color.Faint).Sprint(label+":"), w.paint(color.FgGreen).Sprint(value))
}

// SummaryFailed prints a failed items summary.
func (w *Writer) SummaryFailed(label, value string) {
	w.Println("  %s %s", w.paint(color.Faint).Sprint(label+":"), w.paint(color.FgRed).Sprint(value))
}

// SummarySectionLabel prints a label for a summary section (e.g., "Failed Tests:").
func (w *Writer) SummarySectionLabel(label string) {
	w.Println("  %s", w.paint(color.Faint).Sprint(label))
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(color.FgGreen).Sprintf(format, args...))
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(color.FgRed).Sprintf(format, args...))
}

// Hint prints a hint message for the user.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Errorln("%s", w.paint(color.Faint).Sprintf(format, args...))
}

// Location prints a source position as file:line.
func (w *Writer) Location(file string, line int) {
	w.Println("%s:%d", file, line)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
