package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xreflint/internal/core/config/helpers"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateLint(cfg *Config) error {
	switch cfg.Lint.ReportLevel {
	case "error", "warning", "notice":
	default:
		return fmt.Errorf("lint.report_level must be one of: error, warning, notice")
	}
	switch cfg.Lint.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("lint.color must be one of: auto, always, never")
	}
	for i, v := range cfg.Lint.GlobalVars {
		if strings.ContainsAny(v, " \t,") || len(v) < 2 {
			return fmt.Errorf("lint.global_vars[%d] %q is not a variable name", i, v)
		}
	}
	for i, entry := range cfg.Lint.InitByReference {
		if strings.TrimSpace(strings.Split(entry, ",")[0]) == "" {
			return fmt.Errorf("lint.init_by_reference[%d] must start with a function name", i)
		}
	}
	for i, decl := range cfg.Lint.FunctionSignatures {
		if !strings.Contains(decl, "(") || !strings.HasSuffix(strings.TrimSpace(decl), ")") {
			return fmt.Errorf("lint.function_signatures[%d] %q must look like name($a, &$b)", i, decl)
		}
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 1 || cfg.Scan.Workers > 256 {
		return fmt.Errorf("scan.workers must be between 1 and 256")
	}
	if len(cfg.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	cleaned := make([]string, 0, len(cfg.Scan.Paths))
	for i, raw := range cfg.Scan.Paths {
		path := filepath.Clean(strings.TrimSpace(raw))
		for j, prev := range cleaned {
			if helpers.IsPathOverlap(path, prev) {
				return fmt.Errorf("scan.paths[%d] %q overlaps scan.paths[%d] %q", i, raw, j, cfg.Scan.Paths[j])
			}
		}
		cleaned = append(cleaned, path)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, group := range []struct {
		name     string
		patterns []string
	}{
		{"exclude.dirs", cfg.Exclude.Dirs},
		{"exclude.files", cfg.Exclude.Files},
	} {
		for i, pattern := range group.patterns {
			if strings.TrimSpace(pattern) == "" {
				return fmt.Errorf("%s[%d] must not be empty", group.name, i)
			}
			if !helpers.HasWildcard(pattern) {
				continue
			}
			if _, err := glob.Compile(pattern, '/'); err != nil {
				return fmt.Errorf("%s[%d] %q is not a valid glob: %v", group.name, i, pattern, err)
			}
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case "text", "json", "sarif":
	default:
		return fmt.Errorf("output.format must be one of: text, json, sarif")
	}
	if cfg.Output.Path != "" && filepath.Clean(cfg.Output.Path) == filepath.Clean(cfg.History.Path) && cfg.History.Enabled {
		return fmt.Errorf("output conflict: output.path and history.path share the same path %q", cfg.Output.Path)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	if cfg.History.BusyTimeout < 100*time.Millisecond || cfg.History.BusyTimeout > time.Minute {
		return fmt.Errorf("history.busy_timeout must be between 100ms and 1m")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 || cfg.Watch.Debounce > time.Minute {
		return fmt.Errorf("watch.debounce must be between 0 and 1m")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddress)
	if addr != "" && !strings.Contains(addr, ":") {
		return fmt.Errorf("observability.metrics_address %q must be host:port", addr)
	}
	return nil
}

// Validate runs every check and returns all failures.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateLint,
		validateScan,
		validateExclude,
		validateOutput,
		validateHistory,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}

	// Path verification
	errs = append(errs, validatePaths(cfg)...)
	return errs
}

func validatePaths(cfg *Config) []error {
	var errs []error
	// A git revision is read from the object store, not the working tree.
	if cfg.Git.Revision != "" {
		return nil
	}
	for i, path := range cfg.Scan.Paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("scan.paths[%d] %q does not exist", i, path))
		}
	}
	return errs
}
