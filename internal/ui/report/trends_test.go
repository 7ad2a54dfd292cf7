package report

import (
	"strings"
	"testing"
	"time"

	"xreflint/internal/data/history"
)

func trendFixture() history.TrendReport {
	return history.TrendReport{
		SchemaVersion: 1,
		Since:         time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
		Until:         time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
		Window:        "24h0m0s",
		RunCount:      2,
		Points: []history.TrendPoint{
			{RunID: "r1", Timestamp: time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC), FileCount: 4, ErrorCount: 1, WarningCount: 5},
			{
				RunID:         "r2",
				Timestamp:     time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
				CommitHash:    "abc123",
				FileCount:     5,
				WarningCount:  2,
				NoticeCount:   1,
				DeltaErrors:   -1,
				DeltaWarnings: -3,
				DeltaNotices:  1,
				AvgWarnings:   3.5,
				WindowHours:   24,
			},
		},
	}
}

func TestRenderTrendTSV(t *testing.T) {
	out, err := RenderTrendTSV(trendFixture())
	if err != nil {
		t.Fatalf("render tsv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Timestamp\tRun\tCommit") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[2], "\tr2\tabc123\t5\t0\t2\t1\t-1\t-3\t1\t0.00\t3.50\t24.00") {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}

func TestRenderTrendJSON(t *testing.T) {
	out, err := RenderTrendJSON(trendFixture())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"run_count": 2`) || !strings.Contains(string(out), `"delta_warnings": -3`) {
		t.Fatalf("unexpected json: %s", out)
	}
}

func TestTrendLine(t *testing.T) {
	if got := TrendLine(trendFixture()); got != "Since previous run: errors -1, warnings -3, notices +1" {
		t.Fatalf("unexpected trend line %q", got)
	}

	single := trendFixture()
	single.Points = single.Points[:1]
	single.RunCount = 1
	if got := TrendLine(single); got != "First recorded run: 1 errors, 5 warnings, 0 notices" {
		t.Fatalf("unexpected first-run line %q", got)
	}
	if got := TrendLine(history.TrendReport{}); got != "" {
		t.Fatalf("expected empty line for no history, got %q", got)
	}
}
