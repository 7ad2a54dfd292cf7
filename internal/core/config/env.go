package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: XREFLINT_[SECTION]_[KEY] (e.g., XREFLINT_LINT_REPORT_LEVEL).
func ApplyEnvOverrides(cfg *Config) {
	// Lint
	setEnvString(&cfg.Lint.ReportLevel, "XREFLINT_LINT_REPORT_LEVEL")
	setEnvBoolPtr(&cfg.Lint.CheckGlobalScope, "XREFLINT_LINT_CHECK_GLOBAL_SCOPE")
	setEnvList(&cfg.Lint.GlobalVars, "XREFLINT_LINT_GLOBAL_VARS")
	setEnvString(&cfg.Lint.Color, "XREFLINT_LINT_COLOR")

	// Scan
	setEnvInt(&cfg.Scan.Workers, "XREFLINT_SCAN_WORKERS")

	// Git
	setEnvString(&cfg.Git.Revision, "XREFLINT_GIT_REVISION")

	// Output
	setEnvString(&cfg.Output.Format, "XREFLINT_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "XREFLINT_OUTPUT_PATH")

	// History
	setEnvBool(&cfg.History.Enabled, "XREFLINT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "XREFLINT_HISTORY_PATH")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "XREFLINT_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "XREFLINT_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "XREFLINT_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		*target = items
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
