package config

import (
	"strings"
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Lint          Lint          `toml:"lint"`
	Scan          Scan          `toml:"scan"`
	Exclude       Exclude       `toml:"exclude"`
	Git           Git           `toml:"git"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
}

// Lint holds the options of the uninitialized-variables analyzer.
type Lint struct {
	ReportLevel      string `toml:"report_level"`
	CheckGlobalScope *bool  `toml:"check_global_scope"`
	// GlobalVars are known at file level, e.g. ["$config", "$db"].
	GlobalVars []string `toml:"global_vars"`
	// InitByReference entries have the form "name,pos,pos" with zero-based
	// positions of arguments the function initializes.
	InitByReference []string `toml:"init_by_reference"`
	// FunctionSignatures are PHP-like declarations: "Foo::bar($a, &$b)".
	FunctionSignatures []string `toml:"function_signatures"`
	Color              string   `toml:"color"`
}

type Scan struct {
	Paths      []string `toml:"paths"`
	Extensions []string `toml:"extensions"`
	Workers    int      `toml:"workers"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

// Git selects a revision to lint instead of the working tree.
type Git struct {
	Revision string   `toml:"revision"`
	Exclude  []string `toml:"exclude"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	ServiceName    string `toml:"service_name"`
}

// GlobalScopeChecked defaults to true when check_global_scope is absent.
func (l Lint) GlobalScopeChecked() bool {
	if l.CheckGlobalScope == nil {
		return true
	}
	return *l.CheckGlobalScope
}

// HasExtension reports whether path ends in one of the scanned extensions.
func (s Scan) HasExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range s.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// DefaultConfig is used when no configuration file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
