package formats

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateSARIF_EmptyResults(t *testing.T) {
	data, err := GenerateSARIF("", nil)
	if err != nil {
		t.Fatalf("GenerateSARIF returned error: %v", err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report.Schema != sarifSchema {
		t.Errorf("$schema = %q, want %q", report.Schema, sarifSchema)
	}
	if report.Version != sarifVersion {
		t.Errorf("version = %q, want %q", report.Version, sarifVersion)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(report.Runs))
	}
	if len(report.Runs[0].Results) != 0 || len(report.Runs[0].Tool.Driver.Rules) != 0 {
		t.Errorf("expected no results and no rules, got %+v", report.Runs[0])
	}
}

func TestGenerateSARIF_DefectUsesRelativeURI(t *testing.T) {
	findings := []Finding{
		{RuleID: "lint-uninitialized-vars", RuleName: "Uninitialized variables", Path: "/project/src/a.php", Line: 12, Severity: "warning", Message: "Possible use of non-defined variable", Token: "$x"},
		{RuleID: "lint-uninitialized-vars", RuleName: "Uninitialized variables", Path: "/project/src/b.php", Line: 3, Severity: "notice", Message: "Value of variable is not used", Token: "$y"},
	}
	data, err := GenerateSARIF("/project", findings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "/project/") {
		t.Errorf("SARIF output leaks absolute paths: %s", data)
	}

	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	run := report.Runs[0]
	if len(run.Tool.Driver.Rules) != 1 {
		t.Fatalf("expected one deduplicated rule, got %d", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	r := run.Results[0]
	if r.Level != "warning" {
		t.Errorf("level = %q, want warning", r.Level)
	}
	if r.Message.Text != "Possible use of non-defined variable ($x)" {
		t.Errorf("unexpected message %q", r.Message.Text)
	}
	loc := r.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "src/a.php" {
		t.Errorf("uri = %q, want src/a.php", loc.ArtifactLocation.URI)
	}
	if loc.Region == nil || loc.Region.StartLine != 12 {
		t.Errorf("unexpected region %+v", loc.Region)
	}
	if run.Results[1].Level != "note" {
		t.Errorf("notice level = %q, want note", run.Results[1].Level)
	}
}

func TestGenerateSARIF_AnalysisFailure(t *testing.T) {
	data, err := GenerateSARIF("", []Finding{AnalysisFailure("bad.php", "unbalanced brackets")})
	if err != nil {
		t.Fatal(err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	run := report.Runs[0]
	if run.Tool.Driver.Rules[0].ID != ruleIDAnalysisFailure || run.Tool.Driver.Rules[0].DefaultConfig.Level != "error" {
		t.Errorf("unexpected rule %+v", run.Tool.Driver.Rules[0])
	}
	if run.Results[0].Locations[0].PhysicalLocation.Region != nil {
		t.Error("a failed file has no line region")
	}
}

func TestRelativeURI(t *testing.T) {
	cases := []struct {
		root    string
		path    string
		wantURI string
	}{
		{"/project", "/project/lib/foo.php", "lib/foo.php"},
		{"/project", "/other/bar.php", "../other/bar.php"},
		{"", "/abs/path.php", "/abs/path.php"},
		{"/project", "relative/path.php", "relative/path.php"},
	}
	for _, tc := range cases {
		got := relativeURI(tc.root, tc.path)
		if got != tc.wantURI {
			t.Errorf("relativeURI(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.wantURI)
		}
	}
}

func TestSeverityToLevel(t *testing.T) {
	cases := []struct{ sev, want string }{
		{"error", "error"},
		{"warning", "warning"},
		{"notice", "note"},
		{"", "note"},
	}
	for _, tc := range cases {
		if got := severityToLevel(tc.sev); got != tc.want {
			t.Errorf("severity %q → level %q, want %q", tc.sev, got, tc.want)
		}
	}
}
