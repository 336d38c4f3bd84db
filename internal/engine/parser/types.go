package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Language identifiers for the grammars the loader knows about.
const (
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangJavaScript = "javascript"
)

// SourceFile is an immutable parsed file. The tree belongs to the cache that
// produced it and is released when the owning Parser is closed.
type SourceFile struct {
	Path     string // absolute, slash-separated
	Language string
	Content  []byte
	tree     *sitter.Tree
}

// Root returns the syntax tree root, or nil for a file without a tree.
func (f *SourceFile) Root() *sitter.Node {
	if f == nil || f.tree == nil {
		return nil
	}
	return f.tree.RootNode()
}

// HasSyntaxErrors reports whether the tree kept error nodes, which only
// happens when the parser tolerates syntax errors.
func (f *SourceFile) HasSyntaxErrors() bool {
	root := f.Root()
	return root != nil && root.HasError()
}

func (f *SourceFile) close() {
	if f != nil && f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// ImportKind records which syntactic form produced an ImportFact.
type ImportKind string

const (
	ImportStatic   ImportKind = "static"
	ImportDynamic  ImportKind = "dynamic"
	ImportRequire  ImportKind = "require"
	ImportReExport ImportKind = "reexport"
)

// ImportFact is one import, require, dynamic import or re-export site.
// Specifiers hold the exported names being imported (the name before "as").
type ImportFact struct {
	Source      string     `json:"source"`
	Specifiers  []string   `json:"specifiers"`
	Line        int        `json:"line"`
	Column      int        `json:"column"`
	IsTypeOnly  bool       `json:"isTypeOnly"`
	IsDefault   bool       `json:"isDefault"`
	IsNamespace bool       `json:"isNamespace"`
	Kind        ImportKind `json:"kind"`
}

// ExportFact is one exported symbol. Wildcard re-exports are named "*" and
// default exports are always named "default".
type ExportFact struct {
	Name       string `json:"name"`
	IsType     bool   `json:"isType"`
	IsDefault  bool   `json:"isDefault"`
	IsReExport bool   `json:"isReExport"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
}

const (
	DefaultExportName  = "default"
	WildcardExportName = "*"
)
