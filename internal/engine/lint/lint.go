// Package lint defines the defect model and the registry of analyzers that
// run over a token stream.
package lint

import (
	"fmt"
	"strings"

	"xreflint/internal/core/errors"
	"xreflint/internal/engine/tokens"
)

// Severity orders defects; a higher value is more severe.
type Severity int

const (
	SeverityNotice Severity = iota + 1
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNotice:
		return "notice"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ParseSeverity accepts error, warning or notice in any case.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "errors":
		return SeverityError, nil
	case "warning", "warnings":
		return SeverityWarning, nil
	case "notice", "notices":
		return SeverityNotice, nil
	}
	return 0, errors.Newf(errors.CodeValidationError, "unknown report level %q", s)
}

// Defect is one finding attached to a token.
type Defect struct {
	Analyzer string
	Severity Severity
	Message  string
	Token    tokens.Token
}

func (d Defect) Line() int {
	return d.Token.Line
}

// Analyzer is one independent check over a file.
type Analyzer interface {
	ID() string
	Name() string
	// SetReportLevel drops defects below level from later Analyze results.
	SetReportLevel(level Severity)
	Analyze(s *tokens.Stream) ([]Defect, error)
}

// Factory creates a fresh Analyzer so that concurrent files never share
// analysis state.
type Factory func() (Analyzer, error)

type Registry struct {
	factories map[string]Factory
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(id string, f Factory) error {
	if _, ok := r.factories[id]; ok {
		return errors.Newf(errors.CodeValidationError, "analyzer %q registered twice", id)
	}
	r.factories[id] = f
	r.order = append(r.order, id)
	return nil
}

// IDs returns analyzer ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Instantiate builds one instance of every registered analyzer.
func (r *Registry) Instantiate(level Severity) ([]Analyzer, error) {
	out := make([]Analyzer, 0, len(r.order))
	for _, id := range r.order {
		a, err := r.factories[id]()
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxAnalyzer, id)
		}
		a.SetReportLevel(level)
		out = append(out, a)
	}
	return out, nil
}

// Run applies analyzers to s in registration order. Each analyzer's defects
// keep the order it found them in. An analyzer error abandons the file.
func Run(analyzers []Analyzer, s *tokens.Stream) ([]Defect, error) {
	var all []Defect
	for _, a := range analyzers {
		defects, err := a.Analyze(s)
		if err != nil {
			err = errors.AddContext(err, errors.CtxAnalyzer, a.ID())
			return nil, errors.AddContext(err, errors.CtxPath, s.Path)
		}
		all = append(all, defects...)
	}
	return all, nil
}

// Counts tallies defects per severity.
type Counts struct {
	Errors   int
	Warnings int
	Notices  int
}

func (c *Counts) Add(defects []Defect) {
	for _, d := range defects {
		switch d.Severity {
		case SeverityError:
			c.Errors++
		case SeverityWarning:
			c.Warnings++
		case SeverityNotice:
			c.Notices++
		}
	}
}

func (c Counts) Total() int {
	return c.Errors + c.Warnings + c.Notices
}
