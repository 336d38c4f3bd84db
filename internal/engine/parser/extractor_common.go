package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// moduleExportName returns the text of an identifier or string export name.
func moduleExportName(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "string" {
		return trimQuoted(ctx.Text(node))
	}
	return strings.TrimSpace(ctx.Text(node))
}

// firstBoundIdentifier returns the first identifier a binding pattern
// introduces, searching depth first in source order. Object pattern keys are
// skipped in favour of the bound value.
func firstBoundIdentifier(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		return ctx.Text(node)
	case "pair_pattern":
		return firstBoundIdentifier(ctx, node.ChildByFieldName("value"))
	case "object_assignment_pattern", "assignment_pattern":
		return firstBoundIdentifier(ctx, node.ChildByFieldName("left"))
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if name := firstBoundIdentifier(ctx, node.NamedChild(i)); name != "" {
			return name
		}
	}
	return ""
}

// destructuredKeys lists the property names read by an object pattern, e.g.
// [a b] for `{ a, b: c }`.
func destructuredKeys(ctx *ExtractionContext, pattern *sitter.Node) []string {
	var keys []string
	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		child := pattern.NamedChild(i)
		switch child.Kind() {
		case "shorthand_property_identifier_pattern":
			keys = append(keys, ctx.Text(child))
		case "pair_pattern":
			if key := child.ChildByFieldName("key"); key != nil {
				keys = append(keys, moduleExportName(ctx, key))
			}
		case "object_assignment_pattern":
			if left := child.ChildByFieldName("left"); left != nil {
				keys = append(keys, ctx.Text(left))
			}
		}
	}
	return keys
}

// typeStarExport matches `export type * from 'm'` and `export type * as ns
// from 'm'` by statement text. The TypeScript grammar does not know the form
// and leaves the `type` keyword in an error node.
func typeStarExport(ctx *ExtractionContext, node *sitter.Node) (alias string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(ctx.Text(node)), "export")
	if !found {
		return "", false
	}
	rest, found = strings.CutPrefix(strings.TrimSpace(rest), "type")
	if !found {
		return "", false
	}
	rest, found = strings.CutPrefix(strings.TrimSpace(rest), "*")
	if !found {
		return "", false
	}
	rest, found = strings.CutPrefix(strings.TrimSpace(rest), "as")
	if !found {
		return "", true
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", true
	}
	return trimQuoted(fields[0]), true
}
