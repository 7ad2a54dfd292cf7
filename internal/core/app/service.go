package app

import (
	"context"
	"log/slog"
	"time"

	"xreflint/internal/core/errors"
	"xreflint/internal/engine/lint"
	"xreflint/internal/engine/tokens"
	"xreflint/internal/shared/observability"
	"xreflint/internal/shared/util"
	"xreflint/internal/ui/report"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Lint analyzes every file of src, scan.workers files at a time. A file that
// cannot be read or analyzed is recorded in its FileResult and never stops
// the run; only listing the sources or cancelling ctx does.
func (a *App) Lint(ctx context.Context, src SourceProvider) (report.Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Lint")
	defer span.End()

	files, err := src.Files(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list sources")
		return report.Result{}, err
	}

	started := time.Now()
	results := make([]report.FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.LintFile(gctx, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.Result{}, err
	}

	res := report.NewResult(results)
	observability.RunsTotal.Inc()
	span.SetAttributes(
		attribute.Int("files", res.Summary.Files),
		attribute.Int("failed", res.Summary.Failed),
		attribute.Int("errors", res.Summary.Errors),
		attribute.Int("warnings", res.Summary.Warnings),
	)
	a.setLastResult(res)
	slog.Debug("lint run finished",
		"files", res.Summary.Files,
		"failed", res.Summary.Failed,
		"defects", res.Summary.Errors+res.Summary.Warnings+res.Summary.Notices,
		"duration", time.Since(started))
	return res, nil
}

// LintFile analyzes one file with fresh analyzer instances. Unchanged
// content reuses the previous result.
func (a *App) LintFile(ctx context.Context, f SourceFile) report.FileResult {
	_, span := observability.Tracer.Start(ctx, "app.LintFile", trace.WithAttributes(attribute.String("path", f.Path)))
	defer span.End()

	res := report.FileResult{Path: f.Path}
	content, err := f.Load()
	if err != nil {
		res.Err = errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source"), errors.CtxPath, f.Path)
		a.fileFailed(span, res)
		return res
	}

	hash := util.ContentHash(content)
	if cached, ok := a.cachedResult(f.Path, hash); ok {
		observability.FilesAnalyzedTotal.WithLabelValues("unchanged").Inc()
		span.SetAttributes(attribute.Bool("cached", true))
		return cached
	}

	res.Defects, res.Err = a.analyze(f.Path, content)
	a.cacheResult(f.Path, hash, res)
	if res.Err != nil {
		a.fileFailed(span, res)
		return res
	}

	outcome := "ok"
	if len(res.Defects) > 0 {
		outcome = "defects"
	}
	observability.FilesAnalyzedTotal.WithLabelValues(outcome).Inc()
	for _, d := range res.Defects {
		observability.DefectsTotal.WithLabelValues(d.Severity.String()).Inc()
	}
	span.SetAttributes(attribute.Int("defects", len(res.Defects)))
	return res
}

func (a *App) analyze(path string, content []byte) ([]lint.Defect, error) {
	stream, err := a.Parser.Tokenize(path, content)
	if err != nil {
		return nil, err
	}
	analyzers, err := a.analyzers()
	if err != nil {
		return nil, err
	}
	timed := make([]lint.Analyzer, len(analyzers))
	for i, an := range analyzers {
		timed[i] = timedAnalyzer{an}
	}
	return lint.Run(timed, stream)
}

func (a *App) fileFailed(span trace.Span, res report.FileResult) {
	slog.Warn("cannot analyze file", "path", res.Path, "error", res.Err)
	observability.FilesAnalyzedTotal.WithLabelValues("failed").Inc()
	span.RecordError(res.Err)
	span.SetStatus(codes.Error, "cannot analyze file")
}

// timedAnalyzer records the duration of every Analyze call.
type timedAnalyzer struct {
	lint.Analyzer
}

func (t timedAnalyzer) Analyze(s *tokens.Stream) ([]lint.Defect, error) {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues(t.ID()).Observe(time.Since(start).Seconds())
	}()
	return t.Analyzer.Analyze(s)
}

func (a *App) setLastResult(res report.Result) {
	a.lastMu.Lock()
	defer a.lastMu.Unlock()
	a.lastResult = &res
}

// LastResult returns the result of the most recent run.
func (a *App) LastResult() (report.Result, bool) {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	if a.lastResult == nil {
		return report.Result{}, false
	}
	return *a.lastResult, true
}
