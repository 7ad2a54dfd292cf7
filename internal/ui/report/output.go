package report

import (
	"fmt"
	"io"
)

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

// Options selects and tunes an output format.
type Options struct {
	Format      string
	Color       string
	Verbose     bool
	ProjectRoot string
	// RuleNames maps analyzer ids to display names for SARIF rules.
	RuleNames map[string]string
}

// Write renders res to w in the requested format.
func Write(w io.Writer, res Result, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		return NewTextRenderer(w, opts.Color, opts.Verbose).Render(w, res)
	case FormatJSON:
		return writeBytes(w)(RenderJSON(res))
	case FormatSARIF:
		return writeBytes(w)(RenderSARIF(opts.ProjectRoot, res, opts.RuleNames))
	}
	return fmt.Errorf("unknown output format %q", opts.Format)
}

func writeBytes(w io.Writer) func([]byte, error) error {
	return func(data []byte, err error) error {
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		return nil
	}
}
