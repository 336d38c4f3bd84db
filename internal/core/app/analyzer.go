package app

import (
	"context"
	"log/slog"
	"time"

	"importgraph/internal/core/errors"
	"importgraph/internal/core/ports"
	"importgraph/internal/engine/graph"
	"importgraph/internal/engine/parser"
	"importgraph/internal/engine/resolver"
	"importgraph/internal/shared/observability"
	"importgraph/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Analysis is everything one run produced.
type Analysis struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Files   []string
	Imports map[string][]parser.ImportFact
	Exports map[string][]parser.ExportFact

	Resolver      *resolver.ModuleResolver
	ModuleGraph   *graph.ModuleGraph
	PackageGraph  *graph.PackageGraph
	Usage         *graph.UsageIndex
	ModuleCycles  []graph.Cycle
	PackageCycles []graph.Cycle
	Violations    []ports.CycleViolation
	Warnings      []ports.Warning
}

type fileResult struct {
	imports []parser.ImportFact
	exports []parser.ExportFact
	warning *ports.Warning
}

// Analyze runs discovery, parsing, graph building and cycle detection from
// scratch. Per-file failures become warnings; only cancellation and
// discovery failures abort.
func (a *App) Analyze(ctx context.Context) (*Analysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze")
	defer span.End()

	an := &Analysis{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	span.SetAttributes(attribute.String("run.id", an.RunID))

	files, err := timed(ctx, "discover", func(ctx context.Context) ([]string, error) {
		return a.Discover(ctx)
	})
	if err != nil {
		return nil, err
	}
	an.Files = files

	if err := a.parseAll(ctx, an); err != nil {
		return nil, err
	}

	_, _ = timed(ctx, "graph", func(context.Context) (struct{}, error) {
		a.buildGraphs(an)
		return struct{}{}, nil
	})
	_, _ = timed(ctx, "cycles", func(context.Context) (struct{}, error) {
		a.detectCycles(an)
		return struct{}{}, nil
	})

	an.Duration = time.Since(an.StartedAt)
	a.recordMetrics(an)
	a.setLast(an)

	span.SetAttributes(
		attribute.Int("files", len(an.Files)),
		attribute.Int("cycles.module", len(an.ModuleCycles)),
		attribute.Int("cycles.package", len(an.PackageCycles)),
	)
	slog.Info("analysis complete",
		"run_id", an.RunID,
		"files", len(an.Files),
		"module_cycles", len(an.ModuleCycles),
		"package_cycles", len(an.PackageCycles),
		"warnings", len(an.Warnings),
		"duration", an.Duration,
	)
	return an, nil
}

func timed[T any](ctx context.Context, phase string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := observability.Tracer.Start(ctx, "app."+phase, trace.WithAttributes(attribute.String("phase", phase)))
	defer span.End()
	start := time.Now()
	out, err := fn(ctx)
	observability.AnalysisDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

// parseAll parses and extracts every file on a bounded pool. Each worker
// extracts from the tree it parsed; trees are released when the run's
// parser closes.
func (a *App) parseAll(ctx context.Context, an *Analysis) error {
	_, err := timed(ctx, "parse", func(ctx context.Context) (struct{}, error) {
		p := a.newParser()
		defer p.Close()

		results := make([]fileResult, len(an.Files))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(1, a.Config.Parse.Workers))
		for i, file := range an.Files {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = a.processFile(p, file)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return struct{}{}, err
		}
		if err := ctx.Err(); err != nil {
			return struct{}{}, err
		}

		an.Imports = make(map[string][]parser.ImportFact, len(an.Files))
		an.Exports = make(map[string][]parser.ExportFact, len(an.Files))
		an.Warnings = make([]ports.Warning, 0)
		for i, file := range an.Files {
			an.Imports[file] = results[i].imports
			an.Exports[file] = results[i].exports
			if results[i].warning != nil {
				an.Warnings = append(an.Warnings, *results[i].warning)
			}
		}
		return struct{}{}, nil
	})
	return err
}

func (a *App) processFile(p ports.CodeParser, file string) fileResult {
	src, err := p.Parse(file)
	if err != nil {
		slog.Debug("file degraded to empty facts", "path", file, "error", err)
		return fileResult{
			imports: []parser.ImportFact{},
			exports: []parser.ExportFact{},
			warning: &ports.Warning{
				File:    util.RelativeTo(a.Paths.Root, file),
				Code:    string(errors.CodeOf(err)),
				Message: err.Error(),
			},
		}
	}
	res := fileResult{
		imports: parser.ExtractImports(src),
		exports: parser.ExtractExports(src),
	}
	if src.HasSyntaxErrors() {
		slog.Debug("facts extracted from tree with syntax errors", "path", file, "imports", len(res.imports))
		res.warning = &ports.Warning{
			File:    util.RelativeTo(a.Paths.Root, file),
			Code:    string(errors.CodeParseFailed),
			Message: "syntax errors remain; facts extracted from the error-tolerant tree",
		}
	}
	return res
}

func (a *App) buildGraphs(an *Analysis) {
	an.Resolver = resolver.NewModuleResolver(an.Files)

	var scope graph.Scope = graph.AllFiles
	if a.Paths.ModuleDir != "" {
		scope = graph.WithinDir(util.SlashPath(a.Paths.ModuleDir))
	}
	an.ModuleGraph = graph.BuildModuleGraph(an.Files, an.Imports, an.Resolver, scope)
	an.PackageGraph = graph.BuildPackageGraph(an.Files, an.Imports, an.Resolver, a.classifier)
	an.Usage = graph.BuildUsageIndex(an.Files, an.Imports, an.Resolver)
}

func (a *App) detectCycles(an *Analysis) {
	moduleAdj := an.ModuleGraph.Adjacency()
	packageAdj := an.PackageGraph.Adjacency()
	an.ModuleCycles = graph.FindCycles(moduleAdj)
	an.PackageCycles = graph.FindCycles(packageAdj)

	shortest := a.Config.Cycles.Shortest
	violations := make([]ports.CycleViolation, 0, len(an.ModuleCycles)+len(an.PackageCycles))
	for _, c := range an.ModuleCycles {
		violations = append(violations, moduleViolation(c, an.ModuleGraph, moduleAdj, a.Paths.Root, shortest))
	}
	for _, c := range an.PackageCycles {
		violations = append(violations, packageViolation(c, an.PackageGraph, packageAdj, a.Paths.Root, shortest))
	}
	an.Violations = violations
}

func (a *App) recordMetrics(an *Analysis) {
	observability.RunsTotal.Inc()
	observability.GraphNodes.WithLabelValues(ports.CycleKindModule).Set(float64(len(an.ModuleGraph.Nodes())))
	observability.GraphEdges.WithLabelValues(ports.CycleKindModule).Set(float64(an.ModuleGraph.EdgeCount()))
	observability.GraphNodes.WithLabelValues(ports.CycleKindPackage).Set(float64(len(an.PackageGraph.Packages())))
	observability.GraphEdges.WithLabelValues(ports.CycleKindPackage).Set(float64(an.PackageGraph.EdgeCount()))
	observability.CyclesDetected.WithLabelValues(ports.CycleKindModule).Set(float64(len(an.ModuleCycles)))
	observability.CyclesDetected.WithLabelValues(ports.CycleKindPackage).Set(float64(len(an.PackageCycles)))
}
