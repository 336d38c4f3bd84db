package graph

import (
	"errors"
	"fmt"
	"sort"
)

var ErrImpactTargetNotFound = errors.New("impact target not found")

// ImpactReport lists the files that depend on a target, directly or through
// other files.
type ImpactReport struct {
	TargetPath          string   `json:"target"`
	DirectImporters     []string `json:"direct"`
	TransitiveImporters []string `json:"transitive"`
}

type ImpactTargetError struct {
	Target string
}

func (e *ImpactTargetError) Error() string {
	return fmt.Sprintf("%v: %s", ErrImpactTargetNotFound, e.Target)
}

func (e *ImpactTargetError) Unwrap() error {
	return ErrImpactTargetNotFound
}

// AnalyzeImpact walks the reverse module graph from path.
func (g *ModuleGraph) AnalyzeImpact(path string) (ImpactReport, error) {
	if !g.HasNode(path) {
		return ImpactReport{}, &ImpactTargetError{Target: path}
	}
	reverse := g.Reverse()

	report := ImpactReport{TargetPath: path}
	direct := make([]string, 0, len(reverse[path]))
	for _, importer := range reverse[path] {
		if importer != path {
			direct = append(direct, importer)
		}
	}
	sort.Strings(direct)
	report.DirectImporters = direct

	seen := map[string]bool{path: true}
	for _, importer := range direct {
		seen[importer] = true
	}
	queue := append([]string(nil), direct...)

	transitive := make([]string, 0)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range reverse[curr] {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
			transitive = append(transitive, next)
		}
	}
	sort.Strings(transitive)
	report.TransitiveImporters = transitive

	return report, nil
}

// AffectedFiles returns changed files plus every file that transitively
// imports one of them, sorted. Unknown paths are kept as given.
func (g *ModuleGraph) AffectedFiles(changed []string) []string {
	reverse := g.Reverse()
	seen := make(map[string]bool, len(changed))
	queue := make([]string, 0, len(changed))
	for _, c := range changed {
		if !seen[c] {
			seen[c] = true
			queue = append(queue, c)
		}
	}
	for i := 0; i < len(queue); i++ {
		for _, importer := range reverse[queue[i]] {
			if !seen[importer] {
				seen[importer] = true
				queue = append(queue, importer)
			}
		}
	}
	sort.Strings(queue)
	return queue
}
