package app

import (
	"importgraph/internal/core/ports"
	"importgraph/internal/data/history"
	"importgraph/internal/shared/util"
)

// BuildReport flattens an analysis into the renderer-facing DTO. Paths are
// root-relative except Root itself.
func (a *App) BuildReport(an *Analysis) ports.Report {
	r := ports.Report{
		RunID:           an.RunID,
		Root:            util.SlashPath(a.Paths.Root),
		GeneratedAt:     an.StartedAt.UTC(),
		Duration:        an.Duration,
		FileCount:       len(an.Files),
		ModuleEdgeCount: an.ModuleGraph.EdgeCount(),
		Packages:        an.PackageGraph.Packages(),
		PackageEdges:    make([]ports.PackageEdge, 0, an.PackageGraph.EdgeCount()),
		ModuleCycles:    make([]ports.CycleViolation, 0, len(an.ModuleCycles)),
		PackageCycles:   make([]ports.CycleViolation, 0, len(an.PackageCycles)),
		Warnings:        an.Warnings,
		Unreferenced:    relativeAll(a.Paths.Root, an.Usage.Unreferenced(an.Files)),
		External:        make([]ports.ExternalPackage, 0),
	}
	if r.Packages == nil {
		r.Packages = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []ports.Warning{}
	}
	for _, dep := range an.PackageGraph.Dependencies() {
		r.PackageEdges = append(r.PackageEdges, ports.PackageEdge{From: dep.From, To: dep.To, Imports: len(dep.Sites)})
	}
	for _, pkg := range an.Usage.Packages() {
		r.External = append(r.External, ports.ExternalPackage{
			Name:      pkg,
			Bindings:  an.Usage.Bindings(pkg),
			Importers: relativeAll(a.Paths.Root, an.Usage.PackageImporters(pkg)),
		})
	}
	for _, v := range an.Violations {
		if v.Kind == ports.CycleKindModule {
			r.ModuleCycles = append(r.ModuleCycles, v)
		} else {
			r.PackageCycles = append(r.PackageCycles, v)
		}
	}
	return r
}

// snapshotOf is the history row for one report.
func snapshotOf(r ports.Report, projectKey string) history.Snapshot {
	return history.Snapshot{
		RunID:             r.RunID,
		ProjectKey:        projectKey,
		Timestamp:         r.GeneratedAt,
		FileCount:         r.FileCount,
		ModuleEdgeCount:   r.ModuleEdgeCount,
		PackageCount:      len(r.Packages),
		PackageEdgeCount:  len(r.PackageEdges),
		ModuleCycleCount:  len(r.ModuleCycles),
		PackageCycleCount: len(r.PackageCycles),
		WarningCount:      len(r.Warnings),
		DurationMS:        r.Duration.Milliseconds(),
	}
}
