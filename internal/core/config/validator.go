package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"importgraph/internal/shared/util"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateDiscovery(cfg *Config) error {
	if _, err := util.CompileGlobs(cfg.Include, '/'); err != nil {
		return fmt.Errorf("include: %w", err)
	}
	if _, err := util.CompileGlobs(cfg.Exclude.Files, '/'); err != nil {
		return fmt.Errorf("exclude.files: %w", err)
	}
	for i, dir := range cfg.Exclude.Dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("exclude.dirs[%d] must not be empty", i)
		}
	}
	if dir := strings.TrimSpace(cfg.Scope.ModuleDir); dir != "" && filepath.IsAbs(dir) {
		return fmt.Errorf("scope.module_dir must be relative to root, got %q", dir)
	}
	return nil
}

func validatePackages(cfg *Config) error {
	switch cfg.Packages.Unclassified {
	case UnclassifiedExclude, UnclassifiedSynthetic:
	default:
		return fmt.Errorf("packages.unclassified must be one of: exclude, synthetic")
	}
	if strings.TrimSpace(cfg.Packages.UnknownName) == "" {
		return fmt.Errorf("packages.unknown_name must not be empty")
	}

	seen := make(map[string]bool, len(cfg.Packages.Entries))
	for i, entry := range cfg.Packages.Entries {
		ref := fmt.Sprintf("packages.entries[%d]", i)
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("%s.name must not be empty", ref)
		}
		if seen[name] {
			return fmt.Errorf("%s.name %q is duplicated", ref, name)
		}
		seen[name] = true
		if len(entry.Paths) == 0 {
			return fmt.Errorf("%s.paths must not be empty", ref)
		}
		for j, p := range entry.Paths {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("%s.paths[%d] must not be empty", ref, j)
			}
			if filepath.IsAbs(p) {
				return fmt.Errorf("%s.paths[%d] must be relative to root, got %q", ref, j, p)
			}
		}
		if _, err := util.CompileGlobs(entry.Paths, '/'); err != nil {
			return fmt.Errorf("%s.paths: %w", ref, err)
		}
	}
	return nil
}

func validateParse(cfg *Config) error {
	if cfg.Parse.Workers < 1 {
		return fmt.Errorf("parse.workers must be >= 1, got %d", cfg.Parse.Workers)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	targets := []struct {
		key  string
		path string
	}{
		{"output.json", cfg.Output.JSON},
		{"output.sarif", cfg.Output.SARIF},
		{"output.dot", cfg.Output.DOT},
		{"output.mermaid", cfg.Output.Mermaid},
	}
	seen := make(map[string]string, len(targets))
	for _, target := range targets {
		p := strings.TrimSpace(target.path)
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if other, ok := seen[clean]; ok {
			return fmt.Errorf("%s and %s must not write to the same path %q", other, target.key, p)
		}
		seen[clean] = target.key
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	if strings.TrimSpace(cfg.History.ProjectKey) == "" {
		return fmt.Errorf("history.project_key must not be empty when history is enabled")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 10*time.Millisecond {
		return fmt.Errorf("watch.debounce must be >= 10ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MinInterval < 0 {
		return fmt.Errorf("watch.min_interval must not be negative")
	}
	return nil
}
