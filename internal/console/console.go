// Package console prints operator-facing status lines.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes colored status lines, one per call.
type Printer struct {
	out        io.Writer
	info       *color.Color
	success    *color.Color
	warning    *color.Color
	failure    *color.Color
	processing *color.Color
	bold       *color.Color
}

// New returns a Printer writing to w. A nil w means stderr.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stderr
	}
	return &Printer{
		out:        w,
		info:       color.New(color.FgCyan),
		success:    color.New(color.FgGreen),
		warning:    color.New(color.FgYellow),
		failure:    color.New(color.FgRed),
		processing: color.New(color.FgBlue),
		bold:       color.New(color.Bold),
	}
}

func (p *Printer) status(c *color.Color, icon, format string, args ...any) {
	_, _ = c.Fprintf(p.out, "%s %s\n", icon, fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	p.status(p.info, "ℹ️", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.status(p.success, "✅", format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.status(p.warning, "⚠️", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.status(p.failure, "❌", format, args...)
}

func (p *Printer) Processing(format string, args ...any) {
	p.status(p.processing, "⚙️", format, args...)
}

// Println writes an uncolored line.
func (p *Printer) Println(a ...any) {
	_, _ = fmt.Fprintln(p.out, a...)
}

// Bold returns s wrapped in bold attributes.
func (p *Printer) Bold(s string) string {
	return p.bold.Sprint(s)
}

// Hyperlink returns an OSC 8 terminal hyperlink. An empty text shows the URL.
// With colors disabled the plain text is returned.
func Hyperlink(url, text string) string {
	if text == "" {
		text = url
	}
	if color.NoColor {
		return text
	}
	return "\x1b]8;;" + url + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}
