package graph

import (
	"sort"

	"importgraph/internal/engine/parser"
	"importgraph/internal/engine/resolver"
	"importgraph/internal/shared/util"
)

// ImportSite is one file level import contributing to a package edge.
type ImportSite struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Source string `json:"source"`
}

// PackageDependency is a package -> package edge with every contributing site.
type PackageDependency struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Sites []ImportSite `json:"sites"`
}

type PackageGraph struct {
	packages map[string]struct{}
	deps     map[string]map[string]*PackageDependency
}

// BuildPackageGraph derives package edges from scoped specifiers and from
// relative imports that land in a file of another package. Files the
// classifier does not place are skipped, and self edges are dropped.
func BuildPackageGraph(files []string, imports map[string][]parser.ImportFact, r Resolver, classifier Classifier) *PackageGraph {
	g := &PackageGraph{
		packages: make(map[string]struct{}),
		deps:     make(map[string]map[string]*PackageDependency),
	}

	for _, file := range sortedFiles(files) {
		from, ok := classifier.Classify(file)
		if !ok {
			continue
		}
		g.packages[from] = struct{}{}

		for _, fact := range imports[file] {
			to, ok := targetPackage(file, fact.Source, r, classifier)
			if !ok || to == from {
				continue
			}
			g.addSite(from, to, ImportSite{File: file, Line: fact.Line, Column: fact.Column, Source: fact.Source})
		}
	}
	return g
}

func targetPackage(importer, spec string, r Resolver, classifier Classifier) (string, bool) {
	if pkg, ok := resolver.ScopedPackage(spec); ok {
		return pkg, true
	}
	if !resolver.IsRelative(spec) {
		return "", false
	}
	target, ok := r.ResolveInSet(importer, spec)
	if !ok {
		return "", false
	}
	return classifier.Classify(target)
}

func (g *PackageGraph) addSite(from, to string, site ImportSite) {
	g.packages[to] = struct{}{}
	targets := g.deps[from]
	if targets == nil {
		targets = make(map[string]*PackageDependency)
		g.deps[from] = targets
	}
	dep := targets[to]
	if dep == nil {
		dep = &PackageDependency{From: from, To: to}
		targets[to] = dep
	}
	dep.Sites = append(dep.Sites, site)
}

func (g *PackageGraph) Packages() []string {
	return util.SortedStringKeys(g.packages)
}

// Dependency returns the edge from -> to with its sites.
func (g *PackageGraph) Dependency(from, to string) (PackageDependency, bool) {
	dep, ok := g.deps[from][to]
	if !ok {
		return PackageDependency{}, false
	}
	out := *dep
	out.Sites = append([]ImportSite(nil), dep.Sites...)
	return out, true
}

// Dependencies returns every edge ordered by (from, to).
func (g *PackageGraph) Dependencies() []PackageDependency {
	out := make([]PackageDependency, 0)
	for _, from := range util.SortedStringKeys(g.deps) {
		for _, to := range util.SortedStringKeys(g.deps[from]) {
			dep, _ := g.Dependency(from, to)
			out = append(out, dep)
		}
	}
	return out
}

func (g *PackageGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.deps {
		count += len(targets)
	}
	return count
}

// Adjacency lists every package with its sorted targets.
func (g *PackageGraph) Adjacency() Adjacency {
	adj := make(Adjacency, len(g.packages))
	for pkg := range g.packages {
		targets := make([]string, 0, len(g.deps[pkg]))
		for to := range g.deps[pkg] {
			targets = append(targets, to)
		}
		sort.Strings(targets)
		adj[pkg] = targets
	}
	return adj
}
