// # internal/ui/report/summary.go
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"importgraph/internal/core/ports"
	"importgraph/internal/data/history"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// SummaryOptions controls how much of a report the terminal summary shows.
type SummaryOptions struct {
	// MaxCycles caps the cycles listed per graph; zero lists all of them.
	MaxCycles int
	// ShowWarnings lists every degraded file instead of only counting them.
	ShowWarnings bool
	// ShowUnreferenced lists the files no other file imports.
	ShowUnreferenced bool
}

// RenderSummary writes a human readable run summary.
func RenderSummary(w io.Writer, r ports.Report, opts SummaryOptions) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("importgraph") + " " + statusStyle.Render(r.Root) + "\n")
	fmt.Fprintf(&b, "Scanned %s, %s, %s (%s) in %s\n",
		countNoun(r.FileCount, "file"),
		countNoun(r.ModuleEdgeCount, "module edge"),
		countNoun(len(r.Packages), "package"),
		countNoun(len(r.PackageEdges), "dependency"),
		r.Duration.Round(time.Millisecond),
	)
	b.WriteString("\n")

	if r.CycleCount() == 0 {
		b.WriteString(successStyle.Render("No import cycles") + "\n")
	} else {
		writeCycles(&b, "module", r.ModuleCycles, opts.MaxCycles)
		writeCycles(&b, "package", r.PackageCycles, opts.MaxCycles)
	}

	if len(r.Warnings) > 0 {
		b.WriteString(warningStyle.Render(countNoun(len(r.Warnings), "file")+" with parse warnings") + "\n")
		if opts.ShowWarnings {
			for _, warn := range r.Warnings {
				b.WriteString(indent.Render(fmt.Sprintf("%s [%s] %s", warn.File, warn.Code, warn.Message)) + "\n")
			}
		}
	}

	if len(r.Unreferenced) > 0 {
		b.WriteString(statusStyle.Render(countNoun(len(r.Unreferenced), "file")+" not imported by any other file") + "\n")
		if opts.ShowUnreferenced {
			for _, f := range r.Unreferenced {
				b.WriteString(indent.Render(f) + "\n")
			}
		}
	}

	if r.Previous != nil {
		b.WriteString("\n" + statusStyle.Render(previousLine(r, *r.Previous)) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCycles(b *strings.Builder, kind string, cycles []ports.CycleViolation, limit int) {
	if len(cycles) == 0 {
		return
	}
	b.WriteString(cycleStyle.Render(countNoun(len(cycles), kind+" cycle")) + "\n")
	for i, c := range cycles {
		if limit > 0 && i == limit {
			b.WriteString(indent.Render(fmt.Sprintf("... and %s more", humanize.Comma(int64(len(cycles)-limit)))) + "\n")
			break
		}
		b.WriteString(indent.Render(c.Display) + "\n")
		if c.File != "" {
			b.WriteString(indent.Render(fmt.Sprintf("  at %s:%d:%d", c.File, c.Line, c.Column)) + "\n")
		}
		if len(c.Shortest) > 0 && len(c.Shortest) < len(c.Path) {
			b.WriteString(indent.Render("  shortest: "+strings.Join(c.Shortest, " -> ")) + "\n")
		}
		if c.Suggestion != "" {
			b.WriteString(indent.Render("  hint: "+c.Suggestion) + "\n")
		}
	}
}

func previousLine(r ports.Report, prev history.Snapshot) string {
	return fmt.Sprintf("Compared with the run %s: cycles %s, files %s, package edges %s",
		humanize.Time(prev.Timestamp),
		signed(r.CycleCount()-prev.CycleCount()),
		signed(r.FileCount-prev.FileCount),
		signed(len(r.PackageEdges)-prev.PackageEdgeCount),
	)
}

func countNoun(n int, noun string) string {
	return english.Plural(n, noun, "")
}

func signed(delta int) string {
	if delta > 0 {
		return "+" + humanize.Comma(int64(delta))
	}
	return humanize.Comma(int64(delta))
}
