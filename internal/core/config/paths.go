package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPaths holds absolute forms of every path-valued setting.
type ResolvedPaths struct {
	Root      string
	ModuleDir string // empty when the module graph is unscoped
	History   string
	JSON      string
	SARIF     string
	DOT       string
	Mermaid   string
}

var rootMarkers = []string{
	"importgraph.toml",
	"pnpm-workspace.yaml",
	"package.json",
	".git",
}

// ResolvePaths makes the root absolute against base (normally the config
// file's directory) and every other path absolute against the root. An
// unset root is detected by walking up from base.
func ResolvePaths(cfg *Config, base string) (ResolvedPaths, error) {
	if strings.TrimSpace(base) == "" {
		return ResolvedPaths{}, fmt.Errorf("base directory must not be empty")
	}

	var root string
	if raw := strings.TrimSpace(cfg.Root); raw != "" {
		root = ResolveRelative(base, raw)
	} else {
		detected, err := DetectProjectRoot([]string{base})
		if err != nil {
			return ResolvedPaths{}, err
		}
		root = detected
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return ResolvedPaths{}, err
	}

	resolved := ResolvedPaths{
		Root:    root,
		History: ResolveRelative(root, cfg.History.Path),
	}
	if strings.TrimSpace(cfg.Scope.ModuleDir) != "" {
		resolved.ModuleDir = ResolveRelative(root, cfg.Scope.ModuleDir)
	}
	resolved.JSON = optionalPath(root, cfg.Output.JSON)
	resolved.SARIF = optionalPath(root, cfg.Output.SARIF)
	resolved.DOT = optionalPath(root, cfg.Output.DOT)
	resolved.Mermaid = optionalPath(root, cfg.Output.Mermaid)
	return resolved, nil
}

func optionalPath(root, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return ResolveRelative(root, value)
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until a directory holding a
// workspace marker is found. Falls back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range rootMarkers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
