package graph

import (
	"errors"
	"testing"

	"importgraph/internal/engine/parser"
	"importgraph/internal/engine/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relImport(source string, line int) parser.ImportFact {
	return parser.ImportFact{Source: source, Specifiers: []string{}, Line: line, Column: 1, Kind: parser.ImportStatic}
}

// endToEndFixture is the ui/hooks scenario: Button <- useX <- Card.
func endToEndFixture() ([]string, map[string][]parser.ImportFact) {
	files := []string{"/repo/ui/Button.tsx", "/repo/hooks/useX.ts", "/repo/ui/Card.tsx"}
	imports := map[string][]parser.ImportFact{
		"/repo/hooks/useX.ts": {relImport("../ui/Button", 1)},
		"/repo/ui/Card.tsx":   {relImport("../hooks/useX", 2)},
	}
	return files, imports
}

func newClassifier(t *testing.T, policy resolver.UnclassifiedPolicy) *resolver.PackageClassifier {
	t.Helper()
	c, err := resolver.NewPackageClassifier("/repo", []resolver.PackageEntry{
		{Name: "@pkg/ui", Paths: []string{"ui"}},
		{Name: "@pkg/hooks", Paths: []string{"hooks"}},
	}, policy, "")
	require.NoError(t, err)
	return c
}

func TestBuildModuleGraph_EndToEnd(t *testing.T) {
	files, imports := endToEndFixture()
	r := resolver.NewModuleResolver(files)

	g := BuildModuleGraph(files, imports, r, AllFiles)
	assert.Equal(t, []string{"/repo/hooks/useX.ts", "/repo/ui/Button.tsx", "/repo/ui/Card.tsx"}, g.Nodes())
	assert.Equal(t, 2, g.EdgeCount())

	edge, ok := g.Edge("/repo/hooks/useX.ts", "/repo/ui/Button.tsx")
	require.True(t, ok)
	assert.Equal(t, DependencyEdge{From: "/repo/hooks/useX.ts", To: "/repo/ui/Button.tsx", Line: 1, Column: 1, Source: "../ui/Button"}, edge)

	_, ok = g.Edge("/repo/ui/Card.tsx", "/repo/hooks/useX.ts")
	assert.True(t, ok)
	assert.Empty(t, FindCycles(g.Adjacency()))
}

func TestBuildModuleGraph_SkipsUnresolvedAndExternal(t *testing.T) {
	files := []string{"/r/a.ts", "/r/b.ts"}
	imports := map[string][]parser.ImportFact{
		"/r/a.ts": {relImport("react", 1), relImport("./missing", 2), relImport("./b", 3), relImport("./b", 4)},
	}
	g := BuildModuleGraph(files, imports, resolver.NewModuleResolver(files), nil)

	assert.Len(t, g.Edges("/r/a.ts"), 2, "both sites of ./b are kept")
	assert.Equal(t, Adjacency{"/r/a.ts": {"/r/b.ts"}, "/r/b.ts": {}}, g.Adjacency())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestBuildModuleGraph_WithinDir(t *testing.T) {
	files := []string{"/r/pkg/a.ts", "/r/pkg/b.ts", "/r/other/c.ts"}
	imports := map[string][]parser.ImportFact{
		"/r/pkg/a.ts":   {relImport("./b", 1), relImport("../other/c", 2)},
		"/r/pkg/b.ts":   {relImport("./a", 1)},
		"/r/other/c.ts": {relImport("../pkg/a", 1)},
	}
	g := BuildModuleGraph(files, imports, resolver.NewModuleResolver(files), WithinDir("/r/pkg"))

	assert.Equal(t, []string{"/r/pkg/a.ts", "/r/pkg/b.ts"}, g.Nodes())
	assert.False(t, g.HasNode("/r/other/c.ts"))
	_, leaked := g.Edge("/r/pkg/a.ts", "/r/other/c.ts")
	assert.False(t, leaked)

	cycles := FindCycles(g.Adjacency())
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"/r/pkg/a.ts", "/r/pkg/b.ts"}, cycles[0].Members)
}

func TestBuildModuleGraph_SelfImportIsASelfLoop(t *testing.T) {
	files := []string{"/r/self.ts"}
	imports := map[string][]parser.ImportFact{"/r/self.ts": {relImport("./self", 1)}}
	g := BuildModuleGraph(files, imports, resolver.NewModuleResolver(files), AllFiles)

	cycles := FindCycles(g.Adjacency())
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"/r/self.ts", "/r/self.ts"}, cycles[0].Path)
}

func TestBuildPackageGraph_EndToEndCycle(t *testing.T) {
	files, imports := endToEndFixture()
	r := resolver.NewModuleResolver(files)

	g := BuildPackageGraph(files, imports, r, newClassifier(t, resolver.UnclassifiedExclude))
	assert.Equal(t, []string{"@pkg/hooks", "@pkg/ui"}, g.Packages())
	assert.Equal(t, 2, g.EdgeCount())

	dep, ok := g.Dependency("@pkg/hooks", "@pkg/ui")
	require.True(t, ok)
	assert.Equal(t, []ImportSite{{File: "/repo/hooks/useX.ts", Line: 1, Column: 1, Source: "../ui/Button"}}, dep.Sites)

	dep, ok = g.Dependency("@pkg/ui", "@pkg/hooks")
	require.True(t, ok)
	assert.Equal(t, "/repo/ui/Card.tsx", dep.Sites[0].File)
	assert.Equal(t, 2, dep.Sites[0].Line)

	cycles := FindCycles(g.Adjacency())
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"@pkg/hooks", "@pkg/ui"}, cycles[0].Members)
	assert.Equal(t, []string{"@pkg/hooks", "@pkg/ui", "@pkg/hooks"}, cycles[0].Path)
}

func TestBuildPackageGraph_ScopedAndSelfEdges(t *testing.T) {
	files := []string{"/repo/ui/self.ts", "/repo/ui/a.ts", "/repo/hooks/h.ts"}
	imports := map[string][]parser.ImportFact{
		"/repo/ui/self.ts": {relImport("./self", 1), relImport("./a", 2), relImport("@pkg/ui/internal", 3)},
		"/repo/ui/a.ts":    {relImport("@pkg/hooks", 1), relImport("@tanstack/query/core", 2), relImport("react", 3)},
		"/repo/hooks/h.ts": {relImport("@pkg/hooks/util", 1)},
	}
	g := BuildPackageGraph(files, imports, resolver.NewModuleResolver(files), newClassifier(t, resolver.UnclassifiedExclude))

	deps := g.Dependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, "@pkg/ui", deps[0].From)
	assert.Equal(t, "@pkg/hooks", deps[0].To)
	assert.Equal(t, "@tanstack/query", deps[1].To)
	for _, dep := range deps {
		assert.NotEqual(t, dep.From, dep.To)
	}
	assert.Equal(t, []string{"@pkg/hooks", "@pkg/ui", "@tanstack/query"}, g.Packages())
	assert.Empty(t, FindCycles(g.Adjacency()))
}

func TestBuildPackageGraph_UnclassifiedPolicy(t *testing.T) {
	files := []string{"/repo/ui/a.ts", "/repo/scripts/build.ts"}
	imports := map[string][]parser.ImportFact{
		"/repo/scripts/build.ts": {relImport("../ui/a", 1)},
		"/repo/ui/a.ts":          {relImport("../scripts/build", 1)},
	}
	r := resolver.NewModuleResolver(files)

	excluded := BuildPackageGraph(files, imports, r, newClassifier(t, resolver.UnclassifiedExclude))
	assert.Equal(t, []string{"@pkg/ui"}, excluded.Packages())
	assert.Equal(t, 0, excluded.EdgeCount())

	synthetic := BuildPackageGraph(files, imports, r, newClassifier(t, resolver.UnclassifiedSynthetic))
	assert.Equal(t, []string{"@pkg/ui", resolver.DefaultUnknownPackage}, synthetic.Packages())
	_, ok := synthetic.Dependency(resolver.DefaultUnknownPackage, "@pkg/ui")
	assert.True(t, ok)
	cycles := FindCycles(synthetic.Adjacency())
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"@pkg/ui", resolver.DefaultUnknownPackage}, cycles[0].Members)
}

func TestAnalyzeImpact(t *testing.T) {
	files := []string{"/r/a.ts", "/r/b.ts", "/r/c.ts", "/r/d.ts"}
	imports := map[string][]parser.ImportFact{
		"/r/b.ts": {relImport("./a", 1)},
		"/r/c.ts": {relImport("./b", 1)},
		"/r/d.ts": {relImport("./c", 1), relImport("./a", 2)},
	}
	g := BuildModuleGraph(files, imports, resolver.NewModuleResolver(files), AllFiles)

	report, err := g.AnalyzeImpact("/r/a.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"/r/b.ts", "/r/d.ts"}, report.DirectImporters)
	assert.Equal(t, []string{"/r/c.ts"}, report.TransitiveImporters)

	_, err = g.AnalyzeImpact("/r/nope.ts")
	assert.True(t, errors.Is(err, ErrImpactTargetNotFound))

	assert.Equal(t, []string{"/r/b.ts", "/r/c.ts", "/r/d.ts"}, g.AffectedFiles([]string{"/r/b.ts"}))
}
