package app

import (
	"fmt"
	"strings"

	"importgraph/internal/core/ports"
	"importgraph/internal/engine/graph"
	"importgraph/internal/shared/util"
)

// moduleViolation anchors a file cycle at the import that closes its
// representative path.
func moduleViolation(c graph.Cycle, g *graph.ModuleGraph, adj graph.Adjacency, root string, shortest bool) ports.CycleViolation {
	v := ports.CycleViolation{
		Kind:    ports.CycleKindModule,
		Members: relativeAll(root, c.Members),
		Path:    relativeAll(root, c.Path),
		Hops:    make([]ports.Hop, 0, len(c.Path)-1),
	}
	v.Display = util.ArrowPath(v.Path)
	if shortest {
		v.Shortest = relativeAll(root, graph.ShortestCycle(c.Members, adj))
	}

	for i := 0; i+1 < len(c.Path); i++ {
		hop := ports.Hop{From: v.Path[i], To: v.Path[i+1], File: v.Path[i]}
		if edge, ok := g.Edge(c.Path[i], c.Path[i+1]); ok {
			hop.Line, hop.Column, hop.Source = edge.Line, edge.Column, edge.Source
		}
		v.Hops = append(v.Hops, hop)
	}

	closing := v.Hops[len(v.Hops)-1]
	v.File, v.Line, v.Column = closing.File, closing.Line, closing.Column
	if len(c.Members) == 1 {
		v.Suggestion = fmt.Sprintf("%s imports itself via %q; remove the import.", closing.File, closing.Source)
	} else {
		v.Suggestion = fmt.Sprintf(
			"Remove the import of %q in %s:%d or move the code both files share into a module that neither imports.",
			closing.Source, closing.File, closing.Line,
		)
	}
	return v
}

// packageViolation anchors a package cycle at the first recorded import site
// of the closing package edge.
func packageViolation(c graph.Cycle, g *graph.PackageGraph, adj graph.Adjacency, root string, shortest bool) ports.CycleViolation {
	v := ports.CycleViolation{
		Kind:    ports.CycleKindPackage,
		Members: append([]string(nil), c.Members...),
		Path:    append([]string(nil), c.Path...),
		Display: util.ArrowPath(c.Path),
		Hops:    make([]ports.Hop, 0, len(c.Path)-1),
	}
	if shortest {
		v.Shortest = graph.ShortestCycle(c.Members, adj)
	}

	for i := 0; i+1 < len(c.Path); i++ {
		hop := ports.Hop{From: c.Path[i], To: c.Path[i+1]}
		if dep, ok := g.Dependency(c.Path[i], c.Path[i+1]); ok && len(dep.Sites) > 0 {
			site := dep.Sites[0]
			hop.File = util.RelativeTo(root, site.File)
			hop.Line, hop.Column, hop.Source = site.Line, site.Column, site.Source
		}
		v.Hops = append(v.Hops, hop)
	}

	closing := v.Hops[len(v.Hops)-1]
	v.File, v.Line, v.Column = closing.File, closing.Line, closing.Column
	v.Suggestion = fmt.Sprintf(
		"Packages %s depend on each other; %s imports %s at %s:%d. Move the shared code into a package both can depend on, or invert that dependency.",
		strings.Join(c.Members, ", "), closing.From, closing.To, closing.File, closing.Line,
	)
	return v
}

func relativeAll(root string, paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = util.RelativeTo(root, p)
	}
	return out
}
