package report

import (
	"fmt"
	"strings"

	"importgraph/internal/core/ports"
)

// FormatImportChain renders a trace result one hop per line.
func FormatImportChain(chain []string) string {
	if len(chain) == 0 {
		return statusStyle.Render("no import chain") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Import chain (%s)", countNoun(len(chain)-1, "hop"))) + "\n")
	for i, file := range chain {
		if i == 0 {
			b.WriteString(indent.Render(file) + "\n")
			continue
		}
		b.WriteString(indent.Render("-> "+file) + "\n")
	}
	return b.String()
}

// FormatImporters renders who depends on a file, directly and transitively.
func FormatImporters(res ports.ImportersResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Importers of "+res.File) + "\n")
	fmt.Fprintf(&b, "%s, %s\n",
		countNoun(len(res.Impact.DirectImporters), "direct importer"),
		countNoun(len(res.Impact.TransitiveImporters), "transitive importer"),
	)
	for _, f := range res.Impact.DirectImporters {
		b.WriteString(indent.Render(f) + "\n")
	}
	if len(res.Impact.TransitiveImporters) > 0 {
		b.WriteString(statusStyle.Render("transitive") + "\n")
		for _, f := range res.Impact.TransitiveImporters {
			b.WriteString(indent.Render(f) + "\n")
		}
	}
	return b.String()
}
