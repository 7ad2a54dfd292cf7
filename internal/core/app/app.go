package app

import (
	"bytes"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"xreflint/internal/core/config"
	"xreflint/internal/core/errors"
	"xreflint/internal/core/watcher"
	"xreflint/internal/data/history"
	"xreflint/internal/engine/lint"
	"xreflint/internal/engine/lint/uninit"
	"xreflint/internal/engine/parser"
	"xreflint/internal/engine/signatures"
	"xreflint/internal/shared/util"
	"xreflint/internal/ui/report"
)

// App wires configuration, the analyzer registry and the stores of one
// xreflint process.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Parser *parser.Parser

	stateMu   sync.RWMutex
	registry  *lint.Registry
	level     lint.Severity
	ruleNames map[string]string

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry

	history       *history.Store
	activeWatcher *watcher.Watcher
	runMu         sync.Mutex

	lastMu     sync.RWMutex
	lastResult *report.Result
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	a := &App{
		Config: cfg,
		Paths:  paths,
		Parser: parser.NewParser(),
		cache:  make(map[string]cacheEntry),
	}
	if err := a.configure(cfg); err != nil {
		return nil, err
	}
	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history"), errors.CtxPath, paths.HistoryPath)
		}
		a.history = store
	}
	return a, nil
}

// configure builds the analyzer registry from the lint section of cfg.
func (a *App) configure(cfg *config.Config) error {
	level, err := lint.ParseSeverity(cfg.Lint.ReportLevel)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg.Lint)
	if err != nil {
		return err
	}
	analyzers, err := registry.Instantiate(level)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(analyzers))
	for _, an := range analyzers {
		names[an.ID()] = an.Name()
	}

	a.stateMu.Lock()
	a.Config = cfg
	a.registry = registry
	a.level = level
	a.ruleNames = names
	a.stateMu.Unlock()
	return nil
}

func buildRegistry(cfg config.Lint) (*lint.Registry, error) {
	sigs, err := signatures.FromConfig(cfg.InitByReference, cfg.FunctionSignatures)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "lint signatures")
	}
	registry := lint.NewRegistry()
	opts := uninit.Options{
		CheckGlobalScope: cfg.GlobalScopeChecked(),
		GlobalVars:       cfg.GlobalVars,
		Signatures:       sigs,
	}
	if err := registry.Register(uninit.ID, uninit.Factory(opts)); err != nil {
		return nil, err
	}
	return registry, nil
}

// Reload applies a changed configuration. Cached results are dropped since
// they depend on the lint options.
func (a *App) Reload(cfg *config.Config) error {
	if err := a.configure(cfg); err != nil {
		return err
	}
	a.resetCache()
	if a.activeWatcher != nil {
		a.activeWatcher.SetDebounce(cfg.Watch.Debounce)
	}
	slog.Info("configuration reloaded", "report_level", cfg.Lint.ReportLevel)
	return nil
}

func (a *App) analyzers() ([]lint.Analyzer, error) {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.registry.Instantiate(a.level)
}

// RuleNames maps analyzer ids to their display names.
func (a *App) RuleNames() map[string]string {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	out := make(map[string]string, len(a.ruleNames))
	for k, v := range a.ruleNames {
		out[k] = v
	}
	return out
}

func (a *App) currentConfig() *config.Config {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.Config
}

func (a *App) workers() int {
	if n := a.currentConfig().Scan.Workers; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Source picks the provider for this run: a git revision when one is
// configured, the working tree otherwise. paths override scan.paths.
func (a *App) Source(paths []string) (SourceProvider, error) {
	cfg := a.currentConfig()
	if len(paths) == 0 {
		paths = cfg.Scan.Paths
	}
	if cfg.Git.Revision != "" {
		return &GitSource{
			Root:       a.Paths.ProjectRoot,
			Revision:   cfg.Git.Revision,
			Paths:      paths,
			Exclude:    cfg.Git.Exclude,
			Extensions: cfg.Scan.Extensions,
		}, nil
	}
	return NewFileSystemSource(paths, cfg.Scan.Extensions, cfg.Exclude.Dirs, cfg.Exclude.Files)
}

// WriteReport renders res in the configured output format, to the output
// path when one is set.
func (a *App) WriteReport(stdout io.Writer, res report.Result, verbose bool) error {
	cfg := a.currentConfig()
	opts := report.Options{
		Format:      cfg.Output.Format,
		Color:       cfg.Lint.Color,
		Verbose:     verbose,
		ProjectRoot: a.Paths.ProjectRoot,
		RuleNames:   a.RuleNames(),
	}
	if a.Paths.OutputPath == "" {
		return report.Write(stdout, res, opts)
	}
	opts.Color = report.ColorNever
	var buf bytes.Buffer
	if err := report.Write(&buf, res, opts); err != nil {
		return err
	}
	if err := util.WriteFileWithDirs(a.Paths.OutputPath, buf.Bytes(), 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write report"), errors.CtxPath, a.Paths.OutputPath)
	}
	slog.Info("report written", "path", a.Paths.OutputPath, "format", opts.Format)
	return nil
}

func (a *App) Close() error {
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	return a.history.Close()
}
