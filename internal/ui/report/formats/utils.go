package formats

import (
	"fmt"
	"strings"
	"unicode"

	"importgraph/internal/core/ports"
)

func sanitizeID(name string) string {
	if name == "" {
		return "m"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "m_" + out
	}
	return out
}

// makeIDs assigns each name a unique identifier safe for diagram syntax.
// Names that sanitize to the same base get a numeric suffix in input order.
func makeIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func edgeKey(from, to string) string {
	return from + "->" + to
}

// cycleEdgeSet collects the hops of every package cycle's representative path.
func cycleEdgeSet(cycles []ports.CycleViolation) map[string]bool {
	edges := make(map[string]bool)
	for _, c := range cycles {
		for i := 0; i+1 < len(c.Path); i++ {
			edges[edgeKey(c.Path[i], c.Path[i+1])] = true
		}
	}
	return edges
}

func cycleMemberSet(cycles []ports.CycleViolation) map[string]bool {
	members := make(map[string]bool)
	for _, c := range cycles {
		for _, m := range c.Members {
			members[m] = true
		}
	}
	return members
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}
