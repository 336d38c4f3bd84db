// # internal/ui/report/formats/mermaid.go
package formats

import (
	"fmt"
	"strings"

	"importgraph/internal/core/ports"
)

// GenerateMermaid renders the package graph as a Mermaid flowchart with cycle
// nodes and cycle edges styled apart from the rest.
func GenerateMermaid(r ports.Report) (string, error) {
	var b strings.Builder
	b.WriteString("%%{init: {'theme': 'base', 'themeVariables': {'textColor': '#000000', 'lineColor': '#333333'}, 'flowchart': {'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	ids := makeIDs(r.Packages)
	for _, pkg := range r.Packages {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", ids[pkg], escapeLabel(pkg))
	}

	inCycle := cycleMemberSet(r.PackageCycles)
	cycleNames := make([]string, 0, len(inCycle))
	for _, pkg := range r.Packages {
		if inCycle[pkg] {
			cycleNames = append(cycleNames, ids[pkg])
		}
	}
	if len(cycleNames) > 0 {
		b.WriteString("\n  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px,color:#000000;\n")
		fmt.Fprintf(&b, "  class %s cycleNode;\n", strings.Join(cycleNames, ","))
	}

	if len(r.PackageEdges) > 0 {
		b.WriteString("\n")
	}
	cycleEdges := cycleEdgeSet(r.PackageCycles)
	cycleLinks := make([]int, 0)
	for i, e := range r.PackageEdges {
		label := fmt.Sprintf("%d", e.Imports)
		if cycleEdges[edgeKey(e.From, e.To)] {
			label = "CYCLE " + label
			cycleLinks = append(cycleLinks, i)
		}
		fmt.Fprintf(&b, "  %s -->|%s| %s\n", ids[e.From], label, ids[e.To])
	}
	if len(cycleLinks) > 0 {
		fmt.Fprintf(&b, "\n  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", joinInts(cycleLinks))
	}
	return b.String(), nil
}
