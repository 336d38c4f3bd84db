// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"importgraph/internal/core/errors"
	"importgraph/internal/shared/observability"
	"importgraph/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser turns source files into syntax trees. Parse results are cached per
// absolute path for the Parser's lifetime; call Close to release them.
type Parser struct {
	loader               *GrammarLoader
	pools                map[string]*ParserPool
	cache                *SourceCache
	tolerateSyntaxErrors bool
	readFile             func(string) ([]byte, error)
}

type Option func(*Parser)

// WithTolerateSyntaxErrors keeps trees that still contain error nodes after
// the dialect fallback instead of failing with PARSE_FAILED.
func WithTolerateSyntaxErrors(tolerate bool) Option {
	return func(p *Parser) {
		p.tolerateSyntaxErrors = tolerate
	}
}

// withReadFile replaces the file reader.
func withReadFile(read func(string) ([]byte, error)) Option {
	return func(p *Parser) {
		if read != nil {
			p.readFile = read
		}
	}
}

func NewParser(loader *GrammarLoader, opts ...Option) *Parser {
	p := &Parser{
		loader:   loader,
		pools:    make(map[string]*ParserPool),
		cache:    NewSourceCache(),
		readFile: os.ReadFile,
	}
	for langID, lang := range loader.languages {
		p.pools[langID] = NewParserPool(lang)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads and parses path, returning the shared cached result on repeat
// calls. Errors are DomainErrors coded UNREADABLE, PARSE_FAILED or NOT_SUPPORTED.
func (p *Parser) Parse(path string) (*SourceFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeUnreadable, "resolve path"), errors.CtxPath, path)
	}
	key := util.SlashPath(abs)
	return p.cache.Get(key, func() (*SourceFile, error) {
		file, err := p.load(abs, key)
		if err != nil {
			observability.ParseFailuresTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		}
		return file, err
	})
}

func (p *Parser) load(abs, key string) (*SourceFile, error) {
	langID := p.loader.LanguageFor(abs)
	if langID == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported file extension"), errors.CtxPath, key)
	}
	content, err := p.readFile(abs)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeUnreadable, "read source"), errors.CtxPath, key)
	}
	return p.parseContent(key, langID, content)
}

// ParseSource parses in-memory content without touching the cache. The
// caller owns the result and must Close it.
func (p *Parser) ParseSource(path string, content []byte) (*SourceFile, error) {
	langID := p.loader.LanguageFor(path)
	if langID == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported file extension"), errors.CtxPath, path)
	}
	return p.parseContent(util.SlashPath(path), langID, content)
}

func (p *Parser) parseContent(key, langID string, content []byte) (*SourceFile, error) {
	if !utf8.Valid(content) {
		return nil, errors.AddContext(errors.New(errors.CodeUnreadable, "source is not valid UTF-8"), errors.CtxPath, key)
	}

	start := time.Now()
	tree, used, err := p.parseWithFallback(langID, content)
	observability.ParsingDuration.WithLabelValues(used).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, key)
	}

	if tree.RootNode().HasError() && !p.tolerateSyntaxErrors {
		tree.Close()
		perr := errors.New(errors.CodeParseFailed, "syntax errors remain after dialect fallback")
		perr = errors.AddContext(perr, errors.CtxPath, key)
		return nil, errors.AddContext(perr, errors.CtxLanguage, used)
	}

	return &SourceFile{Path: key, Language: used, Content: content, tree: tree}, nil
}

// parseWithFallback parses with the language's grammar and, when that leaves
// error nodes, retries with the fallback dialect. The fallback tree wins only
// when it is error free.
func (p *Parser) parseWithFallback(langID string, content []byte) (*sitter.Tree, string, error) {
	tree, err := p.parseWith(langID, content)
	if err != nil {
		return nil, langID, err
	}
	if !tree.RootNode().HasError() {
		return tree, langID, nil
	}

	fallback := p.loader.Fallback(langID)
	if fallback == "" {
		return tree, langID, nil
	}
	alt, err := p.parseWith(fallback, content)
	if err != nil {
		return tree, langID, nil
	}
	if alt.RootNode().HasError() {
		alt.Close()
		return tree, langID, nil
	}
	tree.Close()
	return alt, fallback, nil
}

func (p *Parser) parseWith(langID string, content []byte) (*sitter.Tree, error) {
	pool := p.pools[langID]
	if pool == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", langID)), errors.CtxLanguage, langID)
	}
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParseFailed, "parser returned no tree"), errors.CtxLanguage, langID)
	}
	return tree, nil
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.loader.LanguageFor(path) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}

// Close releases all cached trees.
func (p *Parser) Close() {
	p.cache.Close()
}

// Close releases a tree obtained from ParseSource.
func (f *SourceFile) Close() {
	f.close()
}
