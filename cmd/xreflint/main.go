package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xreflint/internal/core/app"
	"xreflint/internal/core/config"
	"xreflint/internal/shared/observability"
	"xreflint/internal/shared/version"
	"xreflint/internal/ui/report"
)

const (
	exitClean   = 0
	exitDefects = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	level      string
	format     string
	output     string
	color      string
	revision   string
	watch      bool
	history    bool
	trend      bool
	verbose    bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("xreflint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", config.DefaultFile, "Path to config file")
	fs.StringVar(&o.level, "level", "", "Report level: error, warning or notice")
	fs.StringVar(&o.format, "format", "", "Output format: text, json or sarif")
	fs.StringVar(&o.output, "output", "", "Write the report to this file instead of stdout")
	fs.StringVar(&o.color, "color", "", "Colour text output: auto, always or never")
	fs.StringVar(&o.revision, "git", "", "Lint a git revision instead of the working tree")
	fs.BoolVar(&o.watch, "watch", false, "Lint again whenever a source file changes")
	fs.BoolVar(&o.history, "history", false, "Record the run in the history database")
	fs.BoolVar(&o.trend, "trend", false, "Print recorded runs as TSV and exit")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable verbose logging and print totals")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "xreflint - find reads of uninitialized variables in PHP sources\n\nusage: xreflint [options] [path ...]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	return o, fs.Args(), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, paths, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitClean
		}
		return exitUsage
	}
	if opts.version {
		fmt.Fprintf(stdout, "xreflint %s\n", version.String())
		return exitClean
	}

	logLevel := slog.LevelInfo
	if opts.verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := loadConfig(opts, paths)
	if err != nil {
		slog.Error("failed to load config", "path", opts.configPath, "error", err)
		return exitUsage
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		return exitUsage
	}
	resolved, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.ServiceName, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	a, err := app.New(cfg, resolved)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitUsage
	}
	defer a.Close()

	if addr := cfg.Observability.MetricsAddress; addr != "" {
		srv := observability.NewServer(addr, app.NewHealthService(a).Components)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start metrics server", "address", addr, "error", err)
			return exitUsage
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	if opts.trend {
		return printTrend(a, stdout)
	}

	src, err := a.Source(nil)
	if err != nil {
		slog.Error("failed to prepare sources", "error", err)
		return exitUsage
	}
	res, err := a.Lint(ctx, src)
	if err != nil {
		slog.Error("lint run failed", "error", err)
		return exitUsage
	}
	if err := publish(a, stdout, res, opts.verbose); err != nil {
		slog.Error("failed to write report", "error", err)
		return exitUsage
	}

	if opts.watch {
		err := a.Watch(ctx, nil, opts.configPath, func(res report.Result) {
			if err := publish(a, stdout, res, opts.verbose); err != nil {
				slog.Error("failed to write report", "error", err)
			}
		})
		if err != nil {
			slog.Error("watch mode failed", "error", err)
			return exitUsage
		}
		return exitClean
	}

	if res.Summary.ExitCode() != 0 {
		return exitDefects
	}
	return exitClean
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(opts options, paths []string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.level != "" {
		cfg.Lint.ReportLevel = opts.level
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.output != "" {
		cfg.Output.Path = opts.output
	}
	if opts.color != "" {
		cfg.Lint.Color = opts.color
	}
	if opts.revision != "" {
		cfg.Git.Revision = opts.revision
	}
	if opts.history {
		cfg.History.Enabled = true
	}
	if len(paths) > 0 {
		cfg.Scan.Paths = paths
	}
	if err := config.Revalidate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func publish(a *app.App, stdout io.Writer, res report.Result, verbose bool) error {
	if err := a.WriteReport(stdout, res, verbose); err != nil {
		return err
	}
	trend, ok, err := a.RecordRun(res)
	if err != nil {
		slog.Warn("failed to record run", "error", err)
		return nil
	}
	if ok {
		slog.Info("history updated", "trend", report.TrendLine(trend))
	}
	return nil
}

func printTrend(a *app.App, stdout io.Writer) int {
	trend, err := a.Trend(24 * time.Hour)
	if err != nil {
		slog.Error("failed to load history", "error", err)
		return exitUsage
	}
	data, err := report.RenderTrendTSV(trend)
	if err != nil {
		slog.Error("failed to render trend", "error", err)
		return exitUsage
	}
	if _, err := stdout.Write(data); err != nil {
		return exitUsage
	}
	return exitClean
}
