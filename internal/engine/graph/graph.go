// # internal/engine/graph/graph.go
package graph

import (
	"sort"

	"importgraph/internal/engine/parser"
	"importgraph/internal/shared/util"
)

// Adjacency maps a node to its outgoing neighbours. Neighbours that are not
// keys themselves are treated as having no outgoing edges.
type Adjacency map[string][]string

// Resolver maps a relative specifier to a member of the analysed file set.
type Resolver interface {
	ResolveInSet(importer, spec string) (string, bool)
}

// Classifier assigns files to logical packages.
type Classifier interface {
	Classify(file string) (string, bool)
}

// Scope restricts which files take part in a module graph.
type Scope func(file string) bool

// AllFiles admits every file.
func AllFiles(string) bool { return true }

// WithinDir admits files under dir, so cycles inside one package are not
// polluted by edges from unrelated packages.
func WithinDir(dir string) Scope {
	dir = util.SlashPath(dir)
	return func(file string) bool {
		return util.HasPathPrefix(file, dir)
	}
}

// DependencyEdge is one import site from one file to another.
type DependencyEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Source string `json:"source"`
}

// ModuleGraph is the file level import graph restricted to relative imports
// that resolve inside the file set.
type ModuleGraph struct {
	nodes map[string]struct{}
	edges map[string][]DependencyEdge // from -> edges in source order
}

func newModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		nodes: make(map[string]struct{}),
		edges: make(map[string][]DependencyEdge),
	}
}

// BuildModuleGraph adds one edge per relative import whose target is in the
// file set, keeping only edges with both endpoints inside scope. A nil scope
// admits every file.
func BuildModuleGraph(files []string, imports map[string][]parser.ImportFact, r Resolver, scope Scope) *ModuleGraph {
	if scope == nil {
		scope = AllFiles
	}
	g := newModuleGraph()

	sorted := sortedFiles(files)
	for _, file := range sorted {
		if scope(file) {
			g.nodes[file] = struct{}{}
		}
	}

	for _, file := range sorted {
		if !scope(file) {
			continue
		}
		for _, fact := range imports[file] {
			target, ok := r.ResolveInSet(file, fact.Source)
			if !ok || !scope(target) {
				continue
			}
			g.edges[file] = append(g.edges[file], DependencyEdge{
				From:   file,
				To:     target,
				Line:   fact.Line,
				Column: fact.Column,
				Source: fact.Source,
			})
		}
	}
	return g
}

// Nodes returns the files of the graph in sorted order.
func (g *ModuleGraph) Nodes() []string {
	return util.SortedStringKeys(g.nodes)
}

func (g *ModuleGraph) HasNode(file string) bool {
	_, ok := g.nodes[file]
	return ok
}

// Edges returns the import sites of from in source order.
func (g *ModuleGraph) Edges(from string) []DependencyEdge {
	return append([]DependencyEdge(nil), g.edges[from]...)
}

// Edge returns the first import site from -> to.
func (g *ModuleGraph) Edge(from, to string) (DependencyEdge, bool) {
	for _, e := range g.edges[from] {
		if e.To == to {
			return e, true
		}
	}
	return DependencyEdge{}, false
}

// EdgeCount counts distinct from -> to pairs.
func (g *ModuleGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.Adjacency() {
		count += len(targets)
	}
	return count
}

// Adjacency returns every node with its distinct targets in first-import order.
func (g *ModuleGraph) Adjacency() Adjacency {
	adj := make(Adjacency, len(g.nodes))
	for node := range g.nodes {
		adj[node] = dedupeTargets(g.edges[node])
	}
	return adj
}

// Reverse maps each file to the files importing it.
func (g *ModuleGraph) Reverse() Adjacency {
	rev := make(Adjacency, len(g.nodes))
	for _, from := range g.Nodes() {
		for _, to := range dedupeTargets(g.edges[from]) {
			rev[to] = append(rev[to], from)
		}
	}
	return rev
}

func dedupeTargets(edges []DependencyEdge) []string {
	targets := make([]string, 0, len(edges))
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if seen[e.To] {
			continue
		}
		seen[e.To] = true
		targets = append(targets, e.To)
	}
	return targets
}

func sortedFiles(files []string) []string {
	out := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		f = util.SlashPath(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
