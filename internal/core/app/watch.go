package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"xreflint/internal/core/app/helpers"
	"xreflint/internal/core/config"
	"xreflint/internal/core/errors"
	"xreflint/internal/core/watcher"
	"xreflint/internal/ui/report"
)

// Watch lints paths again whenever a source file under them changes, and
// when configPath changes, until ctx is done. onResult receives every run.
func (a *App) Watch(ctx context.Context, paths []string, configPath string, onResult func(report.Result)) error {
	cfg := a.currentConfig()
	if cfg.Git.Revision != "" {
		return errors.New(errors.CodeNotSupported, "watch mode lints the working tree; unset git.revision")
	}
	if len(paths) == 0 {
		paths = cfg.Scan.Paths
	}

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, cfg.Exclude.Files, cfg.Scan.Extensions, func(changed []string) {
		a.HandleChanges(ctx, paths, changed, onResult)
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "create watcher")
	}
	a.activeWatcher = w
	if err := w.Watch(watchRoots(paths)); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "watch sources")
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			cw := config.NewWatcher(configPath, func(next *config.Config) {
				if err := a.Reload(next); err != nil {
					slog.Error("rejected configuration", "path", configPath, "error", err)
					return
				}
				a.rerun(ctx, paths, onResult)
			})
			if err := cw.Start(ctx); err != nil {
				slog.Warn("config watcher unavailable", "error", err)
			} else {
				defer cw.Stop()
			}
		}
	}

	slog.Info("watching for changes", "paths", paths)
	<-ctx.Done()
	return nil
}

// HandleChanges drops results of deleted files and lints again. Unchanged
// files are answered from the cache.
func (a *App) HandleChanges(ctx context.Context, paths, changed []string, onResult func(report.Result)) {
	slog.Info("detected changes", "count", len(changed))
	for _, p := range changed {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			a.dropResult(p)
		}
	}
	a.rerun(ctx, paths, onResult)
}

func (a *App) rerun(ctx context.Context, paths []string, onResult func(report.Result)) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	src, err := a.Source(paths)
	if err != nil {
		slog.Error("failed to prepare sources", "error", err)
		return
	}
	res, err := a.Lint(ctx, src)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("lint run failed", "error", err)
		}
		return
	}
	if onResult != nil {
		onResult(res)
	}
}

// watchRoots maps file roots to their directories.
func watchRoots(paths []string) []string {
	roots := make([]string, 0, len(paths))
	for _, p := range helpers.UniqueScanRoots(paths) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			p = filepath.Dir(p)
		}
		roots = append(roots, p)
	}
	return helpers.UniqueScanRoots(roots)
}
