package resolver

import (
	"fmt"
	"strings"

	"importgraph/internal/shared/util"

	"github.com/gobwas/glob"
)

// UnclassifiedPolicy decides what happens to files outside every package entry.
type UnclassifiedPolicy string

const (
	// UnclassifiedExclude keeps such files out of the package graph.
	UnclassifiedExclude UnclassifiedPolicy = "exclude"
	// UnclassifiedSynthetic maps them to a single synthetic package.
	UnclassifiedSynthetic UnclassifiedPolicy = "synthetic"

	DefaultUnknownPackage = "@unknown"
)

// PackageEntry names a logical package and the directories (or globs) that
// belong to it, relative to the project root.
type PackageEntry struct {
	Name  string
	Paths []string
}

type PackageClassifier struct {
	root        string
	patterns    []packagePattern
	policy      UnclassifiedPolicy
	unknownName string
}

type packagePattern struct {
	pkg        string
	raw        string
	isWildcard bool
	glob       glob.Glob
	order      int
}

// NewPackageClassifier compiles the package table. root is used to express
// absolute file paths relative to the project before matching.
func NewPackageClassifier(root string, entries []PackageEntry, policy UnclassifiedPolicy, unknownName string) (*PackageClassifier, error) {
	switch policy {
	case "":
		policy = UnclassifiedExclude
	case UnclassifiedExclude, UnclassifiedSynthetic:
	default:
		return nil, fmt.Errorf("unknown unclassified policy %q", policy)
	}
	if strings.TrimSpace(unknownName) == "" {
		unknownName = DefaultUnknownPackage
	}

	c := &PackageClassifier{
		root:        root,
		policy:      policy,
		unknownName: unknownName,
	}
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("package entry with paths %v has no name", entry.Paths)
		}
		for _, raw := range entry.Paths {
			pattern := util.NormalizePatternPath(raw)
			if pattern == "" {
				continue
			}
			cp := packagePattern{
				pkg:        name,
				raw:        pattern,
				isWildcard: strings.ContainsAny(pattern, "*?[]{}"),
				order:      len(c.patterns),
			}
			if cp.isWildcard {
				g, err := glob.Compile(pattern, '/')
				if err != nil {
					return nil, fmt.Errorf("package %s: invalid path pattern %q: %w", name, raw, err)
				}
				cp.glob = g
			}
			c.patterns = append(c.patterns, cp)
		}
	}
	return c, nil
}

// Classify returns the logical package of file. The longest matching pattern
// wins; ties go to the entry declared first. ok is false when the file is
// unclassified and the policy excludes it.
func (c *PackageClassifier) Classify(file string) (string, bool) {
	if c == nil {
		return "", false
	}
	rel := util.NormalizePatternPath(file)
	if c.root != "" {
		rel = util.NormalizePatternPath(util.RelativeTo(c.root, file))
	}

	best := -1
	for i, p := range c.patterns {
		if !p.matches(rel) {
			continue
		}
		if best < 0 || len(p.raw) > len(c.patterns[best].raw) {
			best = i
		}
	}
	if best >= 0 {
		return c.patterns[best].pkg, true
	}
	if c.policy == UnclassifiedSynthetic {
		return c.unknownName, true
	}
	return "", false
}

func (p packagePattern) matches(rel string) bool {
	if p.isWildcard {
		if p.glob.Match(rel) {
			return true
		}
		// A directory glob such as packages/* also covers files beneath it.
		for dir := parentDir(rel); dir != ""; dir = parentDir(dir) {
			if p.glob.Match(dir) {
				return true
			}
		}
		return false
	}
	return util.HasPathPrefix(rel, p.raw)
}

func parentDir(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return ""
	}
	return p[:idx]
}

// ScopedPackage returns the logical package `@scope/name` of a scoped
// specifier such as `@scope/name/sub/path`.
func ScopedPackage(spec string) (string, bool) {
	if !strings.HasPrefix(spec, "@") {
		return "", false
	}
	parts := strings.SplitN(spec, "/", 3)
	if len(parts) < 2 || parts[0] == "@" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

// LogicalPackage returns the package identity of a non-relative specifier:
// two segments for scoped packages, the first segment for bare ones, and the
// whole specifier for `node:` builtins.
func LogicalPackage(spec string) string {
	spec = strings.TrimSpace(spec)
	if spec == "" || IsRelative(spec) || strings.HasPrefix(spec, "/") {
		return ""
	}
	if strings.HasPrefix(spec, "node:") {
		return spec
	}
	if pkg, ok := ScopedPackage(spec); ok {
		return pkg
	}
	if strings.HasPrefix(spec, "@") {
		return ""
	}
	if idx := strings.Index(spec, "/"); idx >= 0 {
		return spec[:idx]
	}
	return spec
}
