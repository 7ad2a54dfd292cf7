package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xreflint_parsing_seconds",
		Help:    "Time spent tokenizing a PHP source file.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xreflint_analysis_seconds",
		Help:    "Time spent running one analyzer over one file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"analyzer"})

	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xreflint_files_analyzed_total",
		Help: "Files processed, by outcome (ok, defects, failed, unchanged).",
	}, []string{"outcome"})

	DefectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xreflint_defects_total",
		Help: "Defects reported, by severity.",
	}, []string{"severity"})

	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xreflint_runs_total",
		Help: "Completed lint runs, including watch-mode re-runs.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xreflint_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ParserPoolLeased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xreflint_parser_pool_leased",
		Help: "Tree-sitter parsers currently checked out of the pool.",
	})
)
