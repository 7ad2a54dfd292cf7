package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"xreflint/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tCommit\tFiles\tErrors\tWarnings\tNotices\tDeltaErrors\tDeltaWarnings\tDeltaNotices\tAvgErrors\tAvgWarnings\tWindowHours\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
			point.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.CommitHash,
			point.FileCount,
			point.ErrorCount,
			point.WarningCount,
			point.NoticeCount,
			point.DeltaErrors,
			point.DeltaWarnings,
			point.DeltaNotices,
			point.AvgErrors,
			point.AvgWarnings,
			point.WindowHours,
		))
	}
	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// TrendLine summarises the newest point against the run before it.
func TrendLine(report history.TrendReport) string {
	latest, ok := report.Latest()
	if !ok {
		return ""
	}
	if report.RunCount < 2 {
		return fmt.Sprintf("First recorded run: %d errors, %d warnings, %d notices", latest.ErrorCount, latest.WarningCount, latest.NoticeCount)
	}
	return fmt.Sprintf("Since previous run: errors %s, warnings %s, notices %s",
		signed(latest.DeltaErrors), signed(latest.DeltaWarnings), signed(latest.DeltaNotices))
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
