package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node during extraction.
// Returns true if the walker should not descend into the node's children.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the source and the facts collected so far.
type ExtractionContext struct {
	Source  []byte
	Imports []ImportFact
	Exports []ExportFact
}

// ExtractorEngine walks the syntax tree in document order and dispatches
// node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	if handler, ok := e.handlers[node.Kind()]; ok {
		if handler(ctx, node) {
			return
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(c.Source)
}

// Position returns the 1-indexed line and column of node.
func (c *ExtractionContext) Position(node *sitter.Node) (int, int) {
	pos := node.StartPosition()
	return int(pos.Row) + 1, int(pos.Column) + 1
}

// HasToken reports whether node has a direct anonymous child with the given kind.
func (c *ExtractionContext) HasToken(node *sitter.Node, kind string) bool {
	return childToken(node, kind)
}

func childToken(node *sitter.Node, kind string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == kind {
			return true
		}
	}
	return false
}

// FirstChildOfKind returns the first direct child with the given kind.
func (c *ExtractionContext) FirstChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	return firstChildOfKind(node, kind)
}

func firstChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// StringLiteral returns the unquoted value of a string node. ok is false for
// any other node kind, so template strings and expressions are rejected.
func (c *ExtractionContext) StringLiteral(node *sitter.Node) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}
	value := trimQuoted(c.Text(node))
	return value, value != ""
}
