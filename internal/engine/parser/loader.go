package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// LanguageSpec describes a grammar and the file extensions routed to it.
type LanguageSpec struct {
	Extensions []string
	// Fallback is tried when this grammar leaves syntax errors in the tree.
	Fallback string
}

// DefaultLanguageRegistry maps language ids to their extensions. TypeScript
// dialects fall back to each other so markup in .ts files (and angle-bracket
// assertions in .tsx files) still parse without the caller choosing a dialect.
func DefaultLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		LangTypeScript: {Extensions: []string{".ts", ".mts", ".cts"}, Fallback: LangTSX},
		LangTSX:        {Extensions: []string{".tsx"}, Fallback: LangTypeScript},
		LangJavaScript: {Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
	}
}

type GrammarLoader struct {
	languages  map[string]*sitter.Language
	registry   map[string]LanguageSpec
	extensions map[string]string
}

func NewGrammarLoader() (*GrammarLoader, error) {
	return NewGrammarLoaderWithRegistry(DefaultLanguageRegistry())
}

func NewGrammarLoaderWithRegistry(registry map[string]LanguageSpec) (*GrammarLoader, error) {
	if registry == nil {
		registry = DefaultLanguageRegistry()
	}

	gl := &GrammarLoader{
		languages:  make(map[string]*sitter.Language),
		registry:   make(map[string]LanguageSpec, len(registry)),
		extensions: make(map[string]string),
	}

	for langID, spec := range registry {
		switch langID {
		case LangTypeScript:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		case LangTSX:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		case LangJavaScript:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_javascript.Language())
		default:
			return nil, fmt.Errorf("language %q has no bundled grammar", langID)
		}
		gl.registry[langID] = spec
		for _, ext := range spec.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if prev, ok := gl.extensions[ext]; ok && prev != langID {
				return nil, fmt.Errorf("extension %q registered for both %s and %s", ext, prev, langID)
			}
			gl.extensions[ext] = langID
		}
	}

	for langID, spec := range gl.registry {
		if spec.Fallback != "" && gl.languages[spec.Fallback] == nil {
			return nil, fmt.Errorf("language %q falls back to unknown language %q", langID, spec.Fallback)
		}
	}

	return gl, nil
}

// LanguageFor returns the language id for path, or "" when unsupported.
func (gl *GrammarLoader) LanguageFor(path string) string {
	return gl.extensions[strings.ToLower(filepath.Ext(path))]
}

func (gl *GrammarLoader) Language(langID string) *sitter.Language {
	return gl.languages[langID]
}

func (gl *GrammarLoader) Fallback(langID string) string {
	return gl.registry[langID].Fallback
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	extensions := make([]string, 0, len(gl.extensions))
	for ext := range gl.extensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
