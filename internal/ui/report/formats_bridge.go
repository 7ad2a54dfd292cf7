package report

import (
	"xreflint/internal/ui/report/formats"
)

// RenderSARIF converts a lint result into a SARIF document. Files that could
// not be analyzed become error-level results of their own rule.
func RenderSARIF(projectRoot string, res Result, ruleNames map[string]string) ([]byte, error) {
	findings := make([]formats.Finding, 0, res.Summary.Errors+res.Summary.Warnings+res.Summary.Notices+res.Summary.Failed)
	for _, f := range res.Files {
		if f.Err != nil {
			findings = append(findings, formats.AnalysisFailure(f.Path, f.Err.Error()))
			continue
		}
		for _, d := range f.Defects {
			name := ruleNames[d.Analyzer]
			if name == "" {
				name = d.Analyzer
			}
			findings = append(findings, formats.Finding{
				RuleID:   d.Analyzer,
				RuleName: name,
				Path:     f.Path,
				Line:     d.Line(),
				Severity: d.Severity.String(),
				Message:  d.Message,
				Token:    d.Token.Text,
			})
		}
	}
	return formats.GenerateSARIF(projectRoot, findings)
}
