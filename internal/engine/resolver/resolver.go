// # internal/engine/resolver/resolver.go
package resolver

import (
	"path"
	"strings"

	"importgraph/internal/shared/util"
)

// SourceExtensions are the extensions that mark a specifier as already naming
// a concrete file.
var SourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

// probeSuffixes are tried in order when a relative specifier has no source
// extension.
var probeSuffixes = []string{".ts", ".tsx", "/index.ts", "/index.tsx"}

// ModuleResolver maps relative specifiers to files of a fixed file set. It
// performs no filesystem I/O, so results depend only on the importing file,
// the specifier and set membership.
type ModuleResolver struct {
	files map[string]struct{}
}

func NewModuleResolver(files []string) *ModuleResolver {
	r := &ModuleResolver{files: make(map[string]struct{}, len(files))}
	for _, f := range files {
		if f = util.SlashPath(f); f != "" {
			r.files[f] = struct{}{}
		}
	}
	return r
}

// IsRelative reports whether spec is resolved against the importing file's
// directory rather than as a package.
func IsRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// Resolve returns the file a relative specifier points at. When no probe
// matches a member of the file set the joined candidate is returned as a
// placeholder. Non-relative specifiers resolve to "".
func (r *ModuleResolver) Resolve(importer, spec string) string {
	resolved, _ := r.ResolveInSet(importer, spec)
	return resolved
}

// ResolveInSet is Resolve plus whether the result is a member of the file set.
func (r *ModuleResolver) ResolveInSet(importer, spec string) (string, bool) {
	if !IsRelative(spec) {
		return "", false
	}
	candidate := path.Join(path.Dir(util.SlashPath(importer)), spec)

	if hasSourceExtension(candidate) {
		return candidate, r.Contains(candidate)
	}
	for _, suffix := range probeSuffixes {
		probe := candidate + suffix
		if r.Contains(probe) {
			return probe, true
		}
	}
	return candidate, false
}

func (r *ModuleResolver) Contains(file string) bool {
	_, ok := r.files[file]
	return ok
}

func hasSourceExtension(p string) bool {
	ext := path.Ext(p)
	for _, known := range SourceExtensions {
		if ext == known {
			return true
		}
	}
	return false
}
