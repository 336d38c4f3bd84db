package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

var typeDeclarations = map[string]bool{
	"type_alias_declaration": true,
	"interface_declaration":  true,
}

// ExtractExports lists the symbols exported by the top-level statements of
// file. Declarations without an identifiable name are skipped.
func ExtractExports(file *SourceFile) []ExportFact {
	root := file.Root()
	if root == nil {
		return []ExportFact{}
	}
	ctx := &ExtractionContext{Source: file.Content, Exports: []ExportFact{}}
	count := root.NamedChildCount()
	for i := uint(0); i < count; i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "export_statement" {
			continue
		}
		if i+1 < count && overloadedBy(ctx, stmt, root.NamedChild(i+1)) {
			continue
		}
		collectExportStatement(ctx, stmt)
	}
	return ctx.Exports
}

// overloadedBy reports whether stmt exports a function overload signature
// that next exports again, so each overload set yields one fact.
func overloadedBy(ctx *ExtractionContext, stmt, next *sitter.Node) bool {
	decl := stmt.ChildByFieldName("declaration")
	if decl == nil || decl.Kind() != "function_signature" {
		return false
	}
	if next == nil || next.Kind() != "export_statement" {
		return false
	}
	nextDecl := next.ChildByFieldName("declaration")
	if nextDecl == nil {
		return false
	}
	switch nextDecl.Kind() {
	case "function_signature", "function_declaration", "generator_function_declaration":
	default:
		return false
	}
	name := identifierText(ctx, decl.ChildByFieldName("name"))
	return name != "" && name == identifierText(ctx, nextDecl.ChildByFieldName("name"))
}

func collectExportStatement(ctx *ExtractionContext, node *sitter.Node) {
	line, col := ctx.Position(node)
	reExport := node.ChildByFieldName("source") != nil

	if alias, ok := typeStarExport(ctx, node); ok && reExport {
		name := WildcardExportName
		if alias != "" {
			name = alias
		}
		ctx.Exports = append(ctx.Exports, ExportFact{Name: name, IsType: true, IsReExport: true, Line: line, Column: col})
		return
	}

	switch {
	case ctx.HasToken(node, "default"), ctx.HasToken(node, "="):
		fact := ExportFact{Name: DefaultExportName, IsDefault: true, Line: line, Column: col}
		if decl := node.ChildByFieldName("declaration"); decl != nil && typeDeclarations[decl.Kind()] {
			fact.IsType = true
		}
		ctx.Exports = append(ctx.Exports, fact)
		return

	case firstChildOfKind(node, "export_clause") != nil:
		clause := firstChildOfKind(node, "export_clause")
		typeList := ctx.HasToken(node, "type")
		for i := uint(0); i < clause.NamedChildCount(); i++ {
			spec := clause.NamedChild(i)
			if spec.Kind() != "export_specifier" {
				continue
			}
			nameNode := spec.ChildByFieldName("alias")
			if nameNode == nil {
				nameNode = spec.ChildByFieldName("name")
			}
			name := moduleExportName(ctx, nameNode)
			if name == "" {
				continue
			}
			specLine, specCol := ctx.Position(spec)
			ctx.Exports = append(ctx.Exports, ExportFact{
				Name:       name,
				IsType:     typeList || childToken(spec, "type"),
				IsDefault:  name == DefaultExportName,
				IsReExport: reExport,
				Line:       specLine,
				Column:     specCol,
			})
		}
		return

	case firstChildOfKind(node, "namespace_export") != nil:
		ns := firstChildOfKind(node, "namespace_export")
		var name string
		for i := uint(0); i < ns.NamedChildCount(); i++ {
			name = moduleExportName(ctx, ns.NamedChild(i))
		}
		if name != "" {
			ctx.Exports = append(ctx.Exports, ExportFact{Name: name, IsReExport: true, Line: line, Column: col})
		}
		return

	case reExport && ctx.HasToken(node, "*"):
		ctx.Exports = append(ctx.Exports, ExportFact{Name: WildcardExportName, IsReExport: true, Line: line, Column: col})
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		if name, isType := declarationName(ctx, decl); name != "" {
			ctx.Exports = append(ctx.Exports, ExportFact{Name: name, IsType: isType, Line: line, Column: col})
		}
	}
}

// declarationName returns the exported name of a declaration node and
// whether it only exists at the type level.
func declarationName(ctx *ExtractionContext, decl *sitter.Node) (string, bool) {
	switch decl.Kind() {
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			declarator := decl.NamedChild(i)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			return firstBoundIdentifier(ctx, declarator.ChildByFieldName("name")), false
		}
		return "", false

	case "function_declaration", "generator_function_declaration", "function_signature",
		"class_declaration", "abstract_class_declaration", "enum_declaration":
		return identifierText(ctx, decl.ChildByFieldName("name")), false

	case "type_alias_declaration", "interface_declaration":
		return identifierText(ctx, decl.ChildByFieldName("name")), true

	case "internal_module", "module":
		return identifierText(ctx, decl.ChildByFieldName("name")), false

	case "ambient_declaration":
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			if name, isType := declarationName(ctx, decl.NamedChild(i)); name != "" {
				return name, isType
			}
		}
	}
	return "", false
}

// identifierText rejects string names such as `declare module 'x'`.
func identifierText(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier", "type_identifier", "nested_identifier":
		return ctx.Text(node)
	}
	return ""
}
