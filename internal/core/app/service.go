package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"strings"

	"importgraph/internal/core/errors"
	"importgraph/internal/core/ports"
	"importgraph/internal/data/history"
	"importgraph/internal/engine/graph"
	"importgraph/internal/shared/util"
)

type analysisService struct {
	app *App
}

// RunOnce analyses the workspace, records a history snapshot when enabled
// and writes every configured artifact.
func (s *analysisService) RunOnce(ctx context.Context) (ports.Report, error) {
	an, err := s.app.Analyze(ctx)
	if err != nil {
		return ports.Report{}, err
	}
	r := s.app.BuildReport(an)
	s.app.recordHistory(ctx, &r)
	if err := s.app.WriteOutputs(r); err != nil {
		return r, err
	}
	return r, nil
}

// recordHistory attaches the previous snapshot to r and saves the new one.
// Store failures are logged; they never fail a run.
func (a *App) recordHistory(ctx context.Context, r *ports.Report) {
	if a.history == nil {
		return
	}
	key := a.Config.History.ProjectKey

	prev, ok, err := a.history.Latest(ctx, key)
	if err != nil {
		slog.Warn("history lookup failed", "error", err)
	} else if ok {
		r.Previous = &prev
	}

	snap := snapshotOf(*r, key)
	snap.CommitHash, snap.CommitTimestamp = history.ResolveGitMetadata(a.Paths.Root)
	if _, err := a.history.SaveSnapshot(ctx, snap); err != nil {
		slog.Warn("history snapshot not saved", "run_id", r.RunID, "error", err)
	}
}

// TraceImportChain returns the shortest chain of relative imports from one
// file to another as root-relative paths. An empty chain means no path.
func (s *analysisService) TraceImportChain(ctx context.Context, from, to string) ([]string, error) {
	an, err := s.app.currentAnalysis(ctx)
	if err != nil {
		return nil, err
	}
	src, err := s.app.graphFile(an, from)
	if err != nil {
		return nil, err
	}
	dst, err := s.app.graphFile(an, to)
	if err != nil {
		return nil, err
	}

	chain, ok := graph.FindImportChain(an.ModuleGraph.Adjacency(), src, dst)
	if !ok {
		return []string{}, nil
	}
	return relativeAll(s.app.Paths.Root, chain), nil
}

// Importers reports the direct and transitive importers of one file.
func (s *analysisService) Importers(ctx context.Context, file string) (ports.ImportersResult, error) {
	an, err := s.app.currentAnalysis(ctx)
	if err != nil {
		return ports.ImportersResult{}, err
	}
	target, err := s.app.graphFile(an, file)
	if err != nil {
		return ports.ImportersResult{}, err
	}

	impact, err := an.ModuleGraph.AnalyzeImpact(target)
	if err != nil {
		if stderrors.Is(err, graph.ErrImpactTargetNotFound) {
			return ports.ImportersResult{}, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "file is not in the module graph"), errors.CtxPath, file)
		}
		return ports.ImportersResult{}, err
	}

	root := s.app.Paths.Root
	rel := util.RelativeTo(root, target)
	impact.TargetPath = rel
	impact.DirectImporters = relativeAll(root, impact.DirectImporters)
	impact.TransitiveImporters = relativeAll(root, impact.TransitiveImporters)
	return ports.ImportersResult{
		File:     rel,
		Impact:   impact,
		InDegree: an.Usage.InDegree(target),
	}, nil
}

func (s *analysisService) Close(ctx context.Context) error {
	return s.app.Close(ctx)
}

// currentAnalysis reuses the latest run or analyses the workspace once.
func (a *App) currentAnalysis(ctx context.Context) (*Analysis, error) {
	if an := a.LastAnalysis(); an != nil {
		return an, nil
	}
	return a.Analyze(ctx)
}

// graphFile maps a root-relative or absolute path to its module graph node.
func (a *App) graphFile(an *Analysis, input string) (string, error) {
	p := strings.TrimSpace(input)
	if p == "" {
		return "", errors.New(errors.CodeValidationError, "file path is required")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(a.Paths.Root, p)
	}
	p = util.SlashPath(filepath.Clean(p))
	if !an.ModuleGraph.HasNode(p) {
		return "", errors.AddContext(errors.New(errors.CodeNotFound, "file is not in the module graph"), errors.CtxPath, input)
	}
	return p, nil
}
