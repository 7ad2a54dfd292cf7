package report

import (
	"encoding/json"
)

type jsonDefect struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	Analyzer string `json:"analyzer"`
}

type jsonFile struct {
	Path    string       `json:"path"`
	Error   string       `json:"error,omitempty"`
	Defects []jsonDefect `json:"defects"`
}

type jsonReport struct {
	Summary Summary    `json:"summary"`
	Files   []jsonFile `json:"files"`
}

// RenderJSON lists every analyzed file, including clean ones.
func RenderJSON(res Result) ([]byte, error) {
	out := jsonReport{Summary: res.Summary, Files: make([]jsonFile, 0, len(res.Files))}
	for _, f := range res.Files {
		jf := jsonFile{Path: f.Path, Defects: make([]jsonDefect, 0, len(f.Defects))}
		if f.Err != nil {
			jf.Error = f.Err.Error()
		}
		for _, d := range f.Defects {
			jf.Defects = append(jf.Defects, jsonDefect{
				Line:     d.Line(),
				Severity: d.Severity.String(),
				Message:  d.Message,
				Token:    d.Token.Text,
				Analyzer: d.Analyzer,
			})
		}
		out.Files = append(out.Files, jf)
	}
	return json.MarshalIndent(out, "", "  ")
}
