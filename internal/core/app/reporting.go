package app

import (
	"log/slog"
	"time"

	"xreflint/internal/core/errors"
	"xreflint/internal/data/history"
	"xreflint/internal/ui/report"
)

// RecordRun stores the summary of res in the history database and returns
// the trend over the last two runs. It is a no-op when history is disabled.
func (a *App) RecordRun(res report.Result) (history.TrendReport, bool, error) {
	if a.history == nil {
		return history.TrendReport{}, false, nil
	}
	commit, commitTS := history.ResolveGitMetadata(a.Paths.ProjectRoot)
	run, err := a.history.SaveRun(a.projectKey(), history.Run{
		CommitHash:      commit,
		CommitTimestamp: commitTS,
		Revision:        a.currentConfig().Git.Revision,
		FileCount:       res.Summary.Files,
		DefectFileCount: res.Summary.FilesWithDefects,
		FailedCount:     res.Summary.Failed,
		ErrorCount:      res.Summary.Errors,
		WarningCount:    res.Summary.Warnings,
		NoticeCount:     res.Summary.Notices,
	})
	if err != nil {
		return history.TrendReport{}, false, errors.Wrap(err, errors.CodeInternal, "record run")
	}
	slog.Debug("run recorded", "id", run.ID, "commit", run.CommitHash)

	runs, err := a.history.LatestRuns(a.projectKey(), 2)
	if err != nil {
		return history.TrendReport{}, false, errors.Wrap(err, errors.CodeInternal, "load recent runs")
	}
	trend, err := history.BuildTrendReport(runs, 0)
	if err != nil {
		return history.TrendReport{}, false, err
	}
	return trend, true, nil
}

// Trend loads every recorded run of this project, averaging over window.
func (a *App) Trend(window time.Duration) (history.TrendReport, error) {
	if a.history == nil {
		return history.TrendReport{}, errors.New(errors.CodeNotSupported, "history is disabled")
	}
	runs, err := a.history.LoadRuns(a.projectKey(), time.Time{})
	if err != nil {
		return history.TrendReport{}, errors.Wrap(err, errors.CodeInternal, "load runs")
	}
	return history.BuildTrendReport(runs, window)
}

func (a *App) projectKey() string {
	return a.Paths.ProjectRoot
}
