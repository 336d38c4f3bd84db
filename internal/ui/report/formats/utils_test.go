package formats

import (
	"testing"

	"importgraph/internal/core/ports"
)

func TestSanitizeID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: "m"},
		{name: "Alpha", input: "ui", expected: "ui"},
		{name: "DigitsFirst", input: "1pkg", expected: "m_1pkg"},
		{name: "ScopedPackage", input: "@acme/ui-kit", expected: "_acme_ui_kit"},
		{name: "OnlySymbols", input: "!!", expected: "__"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeID(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestMakeIDs(t *testing.T) {
	t.Parallel()

	got := makeIDs([]string{"@acme/ui", "_acme_ui", "hooks"})
	if got["@acme/ui"] != "_acme_ui" {
		t.Fatalf("expected @acme/ui to map to _acme_ui, got %q", got["@acme/ui"])
	}
	if got["_acme_ui"] != "_acme_ui_2" {
		t.Fatalf("expected _acme_ui to map to _acme_ui_2, got %q", got["_acme_ui"])
	}
	if got["hooks"] != "hooks" {
		t.Fatalf("expected hooks to map to hooks, got %q", got["hooks"])
	}
}

func TestEscapeLabel(t *testing.T) {
	t.Parallel()

	if got := escapeLabel("a\"b\"c"); got != "a'b'c" {
		t.Fatalf("expected %q, got %q", "a'b'c", got)
	}
}

func TestCycleEdgeSet_FollowsRepresentativePath(t *testing.T) {
	t.Parallel()

	edges := cycleEdgeSet([]ports.CycleViolation{{Path: []string{"ui", "hooks", "ui"}}})
	if !edges[edgeKey("ui", "hooks")] || !edges[edgeKey("hooks", "ui")] {
		t.Fatalf("expected both hops of the cycle, got %v", edges)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
}
