package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

var importEngine = NewExtractorEngine(map[string]NodeHandler{
	"import_statement": handleImportStatement,
	"export_statement": handleReExport,
	"call_expression":  handleImportCall,
})

// ExtractImports returns every import, require, dynamic import and re-export
// site of file in source order. A nil file or a file without a tree yields an
// empty slice.
func ExtractImports(file *SourceFile) []ImportFact {
	root := file.Root()
	if root == nil {
		return []ImportFact{}
	}
	ctx := &ExtractionContext{Source: file.Content, Imports: []ImportFact{}}
	importEngine.Walk(ctx, root)
	return ctx.Imports
}

func handleImportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	if clause := firstChildOfKind(node, "import_require_clause"); clause != nil {
		source, ok := ctx.StringLiteral(clause.ChildByFieldName("source"))
		if !ok {
			return true
		}
		line, col := ctx.Position(node)
		ctx.Imports = append(ctx.Imports, ImportFact{
			Source:      source,
			Specifiers:  []string{},
			Line:        line,
			Column:      col,
			IsTypeOnly:  ctx.HasToken(node, "type"),
			IsNamespace: true,
			Kind:        ImportRequire,
		})
		return true
	}

	source, ok := ctx.StringLiteral(node.ChildByFieldName("source"))
	if !ok {
		return true
	}
	line, col := ctx.Position(node)
	fact := ImportFact{
		Source:     source,
		Specifiers: []string{},
		Line:       line,
		Column:     col,
		IsTypeOnly: ctx.HasToken(node, "type") || ctx.HasToken(node, "typeof"),
		Kind:       ImportStatic,
	}

	if clause := firstChildOfKind(node, "import_clause"); clause != nil {
		namedCount, typeCount := 0, 0
		for i := uint(0); i < clause.NamedChildCount(); i++ {
			child := clause.NamedChild(i)
			switch child.Kind() {
			case "identifier":
				fact.IsDefault = true
			case "namespace_import":
				fact.IsNamespace = true
			case "named_imports":
				for j := uint(0); j < child.NamedChildCount(); j++ {
					spec := child.NamedChild(j)
					if spec.Kind() != "import_specifier" {
						continue
					}
					name := moduleExportName(ctx, spec.ChildByFieldName("name"))
					if name == "" {
						continue
					}
					namedCount++
					if childToken(spec, "type") || childToken(spec, "typeof") {
						typeCount++
					}
					fact.Specifiers = append(fact.Specifiers, name)
				}
			}
		}
		// import { type A, type B } from 'm' erases entirely.
		if namedCount > 0 && typeCount == namedCount && !fact.IsDefault && !fact.IsNamespace {
			fact.IsTypeOnly = true
		}
	}

	ctx.Imports = append(ctx.Imports, fact)
	return true
}

// handleReExport folds `export ... from 'm'` into the import stream. Exports
// without a source are left to the walker so calls nested in declarations are
// still visited.
func handleReExport(ctx *ExtractionContext, node *sitter.Node) bool {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return false
	}
	source, ok := ctx.StringLiteral(sourceNode)
	if !ok {
		return true
	}

	line, col := ctx.Position(node)
	fact := ImportFact{
		Source:     source,
		Specifiers: []string{},
		Line:       line,
		Column:     col,
		IsTypeOnly: ctx.HasToken(node, "type"),
		Kind:       ImportReExport,
	}

	if clause := firstChildOfKind(node, "export_clause"); clause != nil {
		namedCount, typeCount := 0, 0
		for i := uint(0); i < clause.NamedChildCount(); i++ {
			spec := clause.NamedChild(i)
			if spec.Kind() != "export_specifier" {
				continue
			}
			name := moduleExportName(ctx, spec.ChildByFieldName("name"))
			if name == "" {
				continue
			}
			namedCount++
			if childToken(spec, "type") {
				typeCount++
			}
			fact.Specifiers = append(fact.Specifiers, name)
		}
		if namedCount > 0 && typeCount == namedCount {
			fact.IsTypeOnly = true
		}
	} else if firstChildOfKind(node, "namespace_export") != nil || ctx.HasToken(node, "*") {
		fact.IsNamespace = true
	}
	if _, ok := typeStarExport(ctx, node); ok {
		fact.IsNamespace = true
		fact.IsTypeOnly = true
	}

	ctx.Imports = append(ctx.Imports, fact)
	return true
}

// handleImportCall recognises import('m') and require('m'). Calls with any
// other callee or a non-literal argument are ignored.
func handleImportCall(ctx *ExtractionContext, node *sitter.Node) bool {
	callee := node.ChildByFieldName("function")
	if callee == nil {
		return false
	}

	var kind ImportKind
	switch {
	case callee.Kind() == "import":
		kind = ImportDynamic
	case callee.Kind() == "identifier" && ctx.Text(callee) == "require":
		kind = ImportRequire
	default:
		return false
	}

	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return false
	}
	source, ok := ctx.StringLiteral(args.NamedChild(0))
	if !ok {
		return false
	}

	line, col := ctx.Position(node)
	fact := ImportFact{
		Source:     source,
		Specifiers: []string{},
		Line:       line,
		Column:     col,
		Kind:       kind,
	}
	if kind == ImportRequire {
		bindRequire(ctx, node, &fact)
	}
	ctx.Imports = append(ctx.Imports, fact)
	return false
}

// bindRequire records what `const x = require('m')` or
// `const { a, b } = require('m')` binds.
func bindRequire(ctx *ExtractionContext, call *sitter.Node, fact *ImportFact) {
	parent := call.Parent()
	if parent == nil || parent.Kind() != "variable_declarator" {
		return
	}
	value := parent.ChildByFieldName("value")
	if value == nil || value.Id() != call.Id() {
		return
	}
	name := parent.ChildByFieldName("name")
	if name == nil {
		return
	}
	switch name.Kind() {
	case "identifier":
		fact.IsDefault = true
	case "object_pattern":
		fact.Specifiers = append(fact.Specifiers, destructuredKeys(ctx, name)...)
	}
}
