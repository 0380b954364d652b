package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Renderer writes diagnostics as aligned, optionally colorized lines:
//
//	file.lim: ERROR [UnsupportedType] @tainted/bb0#0: bf16
type Renderer struct {
	out      io.Writer
	colorize bool
}

// NewRenderer creates a renderer; colorize enables ANSI severity colors.
func NewRenderer(out io.Writer, colorize bool) *Renderer {
	return &Renderer{out: out, colorize: colorize}
}

// RenderAll writes every diagnostic in the bag, sorted.
func (r *Renderer) RenderAll(b *Bag) {
	b.Sort()
	width := 0
	for _, d := range b.Items() {
		if w := runewidth.StringWidth(d.heading()); w > width {
			width = w
		}
	}
	for _, d := range b.Items() {
		r.render(d, width)
	}
}

func (d Diagnostic) heading() string {
	h := d.Severity.String()
	if d.Code != "" {
		h += " [" + d.Code + "]"
	}
	return h
}

func (r *Renderer) render(d Diagnostic, width int) {
	heading := d.heading()
	if r.colorize {
		switch d.Severity {
		case SevError:
			heading = color.New(color.FgRed, color.Bold).Sprint(heading)
		case SevWarning:
			heading = color.New(color.FgYellow).Sprint(heading)
		default:
			heading = color.New(color.FgCyan).Sprint(heading)
		}
	}
	pad := strings.Repeat(" ", width-runewidth.StringWidth(d.heading()))
	prefix := ""
	if d.File != "" {
		prefix = d.File + ": "
	}
	fmt.Fprintf(r.out, "%s%s%s %s: %s\n", prefix, heading, pad, d.Loc, d.Message)
}
