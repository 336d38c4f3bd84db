package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"importgraph/internal/core/config"
	"importgraph/internal/core/errors"
	"importgraph/internal/core/ports"
	"importgraph/internal/engine/parser"
	"importgraph/internal/engine/resolver"
	"importgraph/internal/shared/util"

	"github.com/gobwas/glob"
)

// App wires discovery, parsing, graph building and cycle detection for one
// workspace root. Each run builds a fresh parser and cache.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	loader       *parser.GrammarLoader
	classifier   *resolver.PackageClassifier
	includeGlobs []glob.Glob
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	history   ports.HistoryStore
	newParser func() ports.CodeParser

	mu   sync.Mutex
	last *Analysis
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	info, err := os.Stat(paths.Root)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "workspace root not found"), errors.CtxPath, paths.Root)
	}
	if !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "workspace root is not a directory"), errors.CtxPath, paths.Root)
	}

	loader, err := parser.NewGrammarLoader()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load grammars")
	}

	includeGlobs, err := util.CompileGlobs(cfg.Include, '/')
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "include")
	}
	excludeDirs, err := util.CompileGlobs(cfg.Exclude.Dirs)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "exclude.dirs")
	}
	excludeFiles, err := util.CompileGlobs(cfg.Exclude.Files, '/')
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "exclude.files")
	}

	entries := make([]resolver.PackageEntry, 0, len(cfg.Packages.Entries))
	for _, entry := range cfg.Packages.Entries {
		entries = append(entries, resolver.PackageEntry{Name: entry.Name, Paths: entry.Paths})
	}
	classifier, err := resolver.NewPackageClassifier(
		util.SlashPath(paths.Root),
		entries,
		resolver.UnclassifiedPolicy(cfg.Packages.Unclassified),
		cfg.Packages.UnknownName,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "packages")
	}

	a := &App{
		Config:       cfg,
		Paths:        paths,
		loader:       loader,
		classifier:   classifier,
		includeGlobs: includeGlobs,
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
	}
	a.newParser = a.defaultParser
	return a, nil
}

func (a *App) defaultParser() ports.CodeParser {
	return parser.NewParser(a.loader, parser.WithTolerateSyntaxErrors(a.Config.Parse.TolerateSyntaxErrors))
}

// WithHistory enables a snapshot row per completed run.
func (a *App) WithHistory(store ports.HistoryStore) *App {
	a.history = store
	return a
}

// AnalysisService exposes the app through the driving port.
func (a *App) AnalysisService() ports.AnalysisService {
	return &analysisService{app: a}
}

// LastAnalysis returns the most recent completed run, if any.
func (a *App) LastAnalysis() *Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *App) setLast(an *Analysis) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = an
}

func (a *App) Close(ctx context.Context) error {
	if closer, ok := a.history.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close history: %w", err)
		}
	}
	return nil
}
