package config

import (
	"runtime"
	"strings"
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Root          string        `toml:"root"` // detected from workspace markers when empty
	Include       []string      `toml:"include"`
	Exclude       Exclude       `toml:"exclude"`
	Packages      Packages      `toml:"packages"`
	Scope         Scope         `toml:"scope"`
	Parse         Parse         `toml:"parse"`
	Cycles        Cycles        `toml:"cycles"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`  // directory names skipped during discovery
	Files []string `toml:"files"` // globs matched against base name and root-relative path
}

type Packages struct {
	// Unclassified is "exclude" or "synthetic".
	Unclassified string         `toml:"unclassified"`
	UnknownName  string         `toml:"unknown_name"`
	Entries      []PackageEntry `toml:"entries"`
}

type PackageEntry struct {
	Name  string   `toml:"name"`
	Paths []string `toml:"paths"`
}

type Scope struct {
	// ModuleDir restricts the module graph to files under this root-relative directory.
	ModuleDir string `toml:"module_dir"`
}

type Parse struct {
	Workers              int  `toml:"workers"`
	TolerateSyntaxErrors bool `toml:"tolerate_syntax_errors"`
}

type Cycles struct {
	Shortest     bool `toml:"shortest"`
	FailOnCycles bool `toml:"fail_on_cycles"`
}

type Output struct {
	JSON    string `toml:"json"`
	SARIF   string `toml:"sarif"`
	DOT     string `toml:"dot"`
	Mermaid string `toml:"mermaid"`
}

type History struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	MinInterval time.Duration `toml:"min_interval"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

const (
	UnclassifiedExclude   = "exclude"
	UnclassifiedSynthetic = "synthetic"
)

var (
	DefaultInclude     = []string{"**.{ts,tsx,js,jsx,mjs,cjs,mts,cts}"}
	DefaultExcludeDirs = []string{"node_modules", ".git", "dist", "build", "coverage", ".next", ".turbo"}
	DefaultExcludeFile = []string{"*.d.ts"}
)

// DefaultConfig is the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := newConfig()
	applyDefaults(cfg)
	return cfg
}

// newConfig seeds the settings whose default is true, so a TOML file that
// omits them keeps the default.
func newConfig() *Config {
	return &Config{Parse: Parse{TolerateSyntaxErrors: true}}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Include) == 0 {
		cfg.Include = append([]string(nil), DefaultInclude...)
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = append([]string(nil), DefaultExcludeDirs...)
	}
	if cfg.Exclude.Files == nil {
		cfg.Exclude.Files = append([]string(nil), DefaultExcludeFile...)
	}

	if strings.TrimSpace(cfg.Packages.Unclassified) == "" {
		cfg.Packages.Unclassified = UnclassifiedExclude
	}
	cfg.Packages.Unclassified = strings.ToLower(strings.TrimSpace(cfg.Packages.Unclassified))
	if strings.TrimSpace(cfg.Packages.UnknownName) == "" {
		cfg.Packages.UnknownName = "@unknown"
	}

	if cfg.Parse.Workers == 0 {
		cfg.Parse.Workers = runtime.NumCPU()
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".importgraph/history.db"
	}
	if strings.TrimSpace(cfg.History.ProjectKey) == "" {
		cfg.History.ProjectKey = "default"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MinInterval == 0 {
		cfg.Watch.MinInterval = 2 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "importgraph"
	}
}
