package ui

import (
	"fmt"
	"io"
	"os"
)

// Banner printed by the driver before long-running commands
const Banner = `
 ╔══════════════════════════════════════════════╗
 ║  devaudience :: DEV audience analytics        ║
 ╚══════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Printer writes status lines, optionally without colors
type Printer struct {
	out     io.Writer
	noColor bool
	quiet   bool
}

// NewPrinter creates a Printer on out
func NewPrinter(out io.Writer, noColor bool) *Printer {
	return &Printer{out: out, noColor: noColor}
}

// Stdout returns a Printer on standard output
func Stdout(noColor bool) *Printer {
	return NewPrinter(os.Stdout, noColor)
}

// SetQuiet suppresses everything but errors
func (p *Printer) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// NoColor reports whether colors are disabled
func (p *Printer) NoColor() bool {
	return p.noColor
}

func (p *Printer) paint(color func(string) string, s string) string {
	if p.noColor {
		return s
	}
	return color(s)
}

// Banner prints the banner
func (p *Printer) Banner() {
	if p.quiet {
		return
	}
	fmt.Fprint(p.out, p.paint(Cyan, Banner))
}

// Error prints an error message in red
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(p.out, p.paint(Red, msg))
}

// Success prints a success message in green
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(Green, msg))
}

// Info prints a label and value
func (p *Printer) Info(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", p.paint(Cyan, label), p.paint(Yellow, value))
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(Yellow, msg))
}

// Highlight prints a highlighted message in magenta
func (p *Printer) Highlight(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(Magenta, msg))
}
