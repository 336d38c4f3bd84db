// # internal/ui/report/formats/dot.go
package formats

import (
	"fmt"
	"strings"

	"importgraph/internal/core/ports"
)

// GenerateDOT renders the package graph as Graphviz. Packages on a cycle and
// the edges along each cycle's representative path are drawn in red.
func GenerateDOT(r ports.Report) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph packages {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=\"white\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := cycleEdgeSet(r.PackageCycles)
	inCycle := cycleMemberSet(r.PackageCycles)

	for _, pkg := range r.Packages {
		if inCycle[pkg] {
			fmt.Fprintf(&buf, "  %q [fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", pkg)
		} else {
			fmt.Fprintf(&buf, "  %q [color=\"darkslategrey\"];\n", pkg)
		}
	}
	buf.WriteString("\n")

	for _, e := range r.PackageEdges {
		label := fmt.Sprintf("%d", e.Imports)
		if cycleEdges[edgeKey(e.From, e.To)] {
			fmt.Fprintf(&buf, "  %q -> %q [color=\"red\", penwidth=3.0, label=\"CYCLE (%s)\"];\n", e.From, e.To, label)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [color=\"forestgreen\", label=%q];\n", e.From, e.To, label)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
