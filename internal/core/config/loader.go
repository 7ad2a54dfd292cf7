package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultFile = "xreflint.toml"

var defaultExtensions = []string{".php", ".inc", ".phtml"}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return finish(&cfg)
}

// LoadOrDefault loads path, falling back to DefaultConfig when the file is
// absent.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return finish(DefaultConfig())
	}
	return Load(path)
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnvOverrides(cfg)
	normalize(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}

// Revalidate normalizes and validates cfg again after in-process edits such
// as command-line overrides.
func Revalidate(cfg *Config) error {
	normalize(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = ".xreflint"
	}

	if strings.TrimSpace(cfg.Lint.ReportLevel) == "" {
		cfg.Lint.ReportLevel = "warning"
	}
	if strings.TrimSpace(cfg.Lint.Color) == "" {
		cfg.Lint.Color = "auto"
	}

	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = []string{"."}
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = append([]string(nil), defaultExtensions...)
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "vendor", "node_modules"}
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "xreflint"
	}
}

func normalize(cfg *Config) {
	cfg.Lint.ReportLevel = strings.ToLower(strings.TrimSpace(cfg.Lint.ReportLevel))
	cfg.Lint.Color = strings.ToLower(strings.TrimSpace(cfg.Lint.Color))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Git.Revision = strings.TrimSpace(cfg.Git.Revision)

	exts := make([]string, 0, len(cfg.Scan.Extensions))
	for _, ext := range cfg.Scan.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Scan.Extensions = exts

	vars := make([]string, 0, len(cfg.Lint.GlobalVars))
	for _, v := range cfg.Lint.GlobalVars {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, "$") {
			v = "$" + v
		}
		vars = append(vars, v)
	}
	cfg.Lint.GlobalVars = vars
}
