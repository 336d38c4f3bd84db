package graph

import (
	"sort"

	"importgraph/internal/engine/parser"
	"importgraph/internal/engine/resolver"
	"importgraph/internal/shared/util"
)

// Bindings recorded for default and namespace imports.
const (
	DefaultBinding   = parser.DefaultExportName
	NamespaceBinding = parser.WildcardExportName
)

type stringSet map[string]struct{}

func (s stringSet) add(v string) { s[v] = struct{}{} }

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UsageIndex records which external packages are imported, what names are
// bound from them and by whom, and which files import which other files.
type UsageIndex struct {
	bindings         map[string]stringSet // package -> bound names
	packageImporters map[string]stringSet // package -> importing files
	importers        map[string]stringSet // file -> files importing it
}

// BuildUsageIndex builds every index in one pass over the import facts.
func BuildUsageIndex(files []string, imports map[string][]parser.ImportFact, r Resolver) *UsageIndex {
	idx := &UsageIndex{
		bindings:         make(map[string]stringSet),
		packageImporters: make(map[string]stringSet),
		importers:        make(map[string]stringSet),
	}

	for _, file := range sortedFiles(files) {
		for _, fact := range imports[file] {
			if resolver.IsRelative(fact.Source) {
				if target, ok := r.ResolveInSet(file, fact.Source); ok {
					idx.set(idx.importers, target).add(file)
				}
				continue
			}

			pkg := resolver.LogicalPackage(fact.Source)
			if pkg == "" {
				continue
			}
			names := idx.set(idx.bindings, pkg)
			idx.set(idx.packageImporters, pkg).add(file)
			if fact.IsDefault {
				names.add(DefaultBinding)
			}
			if fact.IsNamespace {
				names.add(NamespaceBinding)
			}
			for _, spec := range fact.Specifiers {
				names.add(spec)
			}
		}
	}
	return idx
}

func (idx *UsageIndex) set(m map[string]stringSet, key string) stringSet {
	s := m[key]
	if s == nil {
		s = make(stringSet)
		m[key] = s
	}
	return s
}

// Packages lists every external package imported anywhere.
func (idx *UsageIndex) Packages() []string {
	return util.SortedStringKeys(idx.bindings)
}

// Bindings lists the names bound from pkg, including "default" and "*".
func (idx *UsageIndex) Bindings(pkg string) []string {
	return idx.bindings[pkg].sorted()
}

// PackageImporters lists the files importing pkg.
func (idx *UsageIndex) PackageImporters(pkg string) []string {
	return idx.packageImporters[pkg].sorted()
}

// ImportersOf lists the files whose relative imports resolve to file.
func (idx *UsageIndex) ImportersOf(file string) []string {
	return idx.importers[util.SlashPath(file)].sorted()
}

func (idx *UsageIndex) InDegree(file string) int {
	return len(idx.importers[util.SlashPath(file)])
}

// Unreferenced returns the files no other file imports, sorted.
func (idx *UsageIndex) Unreferenced(files []string) []string {
	out := make([]string, 0)
	for _, f := range sortedFiles(files) {
		if idx.InDegree(f) == 0 {
			out = append(out, f)
		}
	}
	return out
}
