package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"xreflint/internal/engine/lint"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// TextRenderer writes the classic lint layout, one block per file with
// defects, optionally coloured by severity.
type TextRenderer struct {
	Verbose bool
	styles  map[lint.Severity]lipgloss.Style
	plain   bool
}

func NewTextRenderer(w io.Writer, color string, verbose bool) *TextRenderer {
	r := lipgloss.NewRenderer(w)
	switch color {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}
	return &TextRenderer{
		Verbose: verbose,
		plain:   r.ColorProfile() == termenv.Ascii,
		styles: map[lint.Severity]lipgloss.Style{
			lint.SeverityError:   r.NewStyle().Foreground(lipgloss.Color("1")),
			lint.SeverityWarning: r.NewStyle().Foreground(lipgloss.Color("3")),
			lint.SeverityNotice:  r.NewStyle().Foreground(lipgloss.Color("2")),
		},
	}
}

func (t *TextRenderer) Render(w io.Writer, res Result) error {
	var b strings.Builder
	for _, f := range res.Files {
		if f.Err != nil {
			fmt.Fprintf(&b, "Can't analyze file '%s': %v\n", f.Path, f.Err)
			continue
		}
		if len(f.Defects) == 0 {
			continue
		}
		fmt.Fprintf(&b, "File: %s\n", f.Path)
		for _, d := range f.Defects {
			b.WriteString(t.line(d))
			b.WriteByte('\n')
		}
	}
	if t.Verbose {
		s := res.Summary
		fmt.Fprintf(&b, "Total files:          %d\n", s.Files)
		fmt.Fprintf(&b, "Files with defects:   %d\n", s.FilesWithDefects)
		if s.Failed > 0 {
			fmt.Fprintf(&b, "Failed files:         %d\n", s.Failed)
		}
		fmt.Fprintf(&b, "Errors:               %d\n", s.Errors)
		fmt.Fprintf(&b, "Warnings:             %d\n", s.Warnings)
		fmt.Fprintf(&b, "Notices:              %d\n", s.Notices)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (t *TextRenderer) line(d lint.Defect) string {
	line := fmt.Sprintf("    line %4d: %-8s: %s (%s)", d.Line(), d.Severity, d.Message, d.Token.Text)
	if t.plain {
		return line
	}
	style, ok := t.styles[d.Severity]
	if !ok {
		return line
	}
	return style.Render(line)
}
