// # internal/engine/parser/parser_test.go
package parser

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"importgraph/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	loader, err := NewGrammarLoader()
	require.NoError(t, err)
	p := NewParser(loader, opts...)
	t.Cleanup(p.Close)
	return p
}

func parseSnippet(t *testing.T, p *Parser, name, src string) *SourceFile {
	t.Helper()
	file, err := p.ParseSource(name, []byte(src))
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return file
}

func TestGrammarLoader_LanguageFor(t *testing.T) {
	loader, err := NewGrammarLoader()
	require.NoError(t, err)

	cases := map[string]string{
		"a.ts":         LangTypeScript,
		"a.mts":        LangTypeScript,
		"a.cts":        LangTypeScript,
		"a.tsx":        LangTSX,
		"a.js":         LangJavaScript,
		"a.jsx":        LangJavaScript,
		"a.mjs":        LangJavaScript,
		"a.cjs":        LangJavaScript,
		"Upper.TSX":    LangTSX,
		"styles.css":   "",
		"README":       "",
		"dir.ts/x.vue": "",
	}
	for path, expected := range cases {
		assert.Equal(t, expected, loader.LanguageFor(path), path)
	}
	assert.Equal(t, []string{".cjs", ".cts", ".js", ".jsx", ".mjs", ".mts", ".ts", ".tsx"}, loader.SupportedExtensions())
}

func TestGrammarLoader_RejectsDuplicateExtensions(t *testing.T) {
	_, err := NewGrammarLoaderWithRegistry(map[string]LanguageSpec{
		LangTypeScript: {Extensions: []string{".ts"}},
		LangJavaScript: {Extensions: []string{".ts"}},
	})
	require.Error(t, err)
}

func TestGrammarLoader_RejectsUnknownLanguage(t *testing.T) {
	_, err := NewGrammarLoaderWithRegistry(map[string]LanguageSpec{
		"kotlin": {Extensions: []string{".kt"}},
	})
	require.Error(t, err)
}

func TestParse_MarkupInTypeScriptFallsBackToTSX(t *testing.T) {
	p := newTestParser(t)

	file := parseSnippet(t, p, "/repo/ui/Button.ts", `export const Button = () => <button className="b">ok</button>;`)
	assert.Equal(t, LangTSX, file.Language)
	assert.False(t, file.Root().HasError())
}

func TestParse_AngleAssertionInTSXFallsBackToTypeScript(t *testing.T) {
	p := newTestParser(t)

	file := parseSnippet(t, p, "/repo/legacy.tsx", "const n = <number>value;\n")
	assert.Equal(t, LangTypeScript, file.Language)
}

func TestParse_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		p := newTestParser(t)
		_, err := p.Parse(filepath.Join(dir, "missing.ts"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeUnreadable))
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		path := filepath.Join(dir, "binary.ts")
		require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x01}, 0o644))
		p := newTestParser(t)
		_, err := p.Parse(path)
		assert.True(t, errors.IsCode(err, errors.CodeUnreadable))
	})

	t.Run("Unsupported", func(t *testing.T) {
		p := newTestParser(t)
		_, err := p.Parse(filepath.Join(dir, "styles.css"))
		assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
	})

	t.Run("SyntaxError", func(t *testing.T) {
		path := filepath.Join(dir, "broken.js")
		require.NoError(t, os.WriteFile(path, []byte("import { from;\n"), 0o644))

		p := newTestParser(t)
		_, err := p.Parse(path)
		assert.True(t, errors.IsCode(err, errors.CodeParseFailed))

		tolerant := newTestParser(t, WithTolerateSyntaxErrors(true))
		file, err := tolerant.Parse(path)
		require.NoError(t, err)
		assert.True(t, file.Root().HasError())
	})
}

func TestParse_CachesPerAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("import { b } from './b';\n"), 0o644))

	var reads atomic.Int32
	p := newTestParser(t, withReadFile(func(name string) ([]byte, error) {
		reads.Add(1)
		return os.ReadFile(name)
	}))

	const workers = 16
	results := make([]*SourceFile, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			file, err := p.Parse(path)
			assert.NoError(t, err)
			results[i] = file
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), reads.Load())
	for _, file := range results {
		assert.Same(t, results[0], file)
	}

	// A relative spelling of the same file hits the same slot.
	rel, err := filepath.Rel(mustGetwd(t), path)
	require.NoError(t, err)
	again, err := p.Parse(rel)
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, int32(1), reads.Load())
}

func TestParse_FailuresAreCached(t *testing.T) {
	var reads atomic.Int32
	p := newTestParser(t, withReadFile(func(string) ([]byte, error) {
		reads.Add(1)
		return nil, os.ErrPermission
	}))

	for i := 0; i < 3; i++ {
		_, err := p.Parse("/repo/locked.ts")
		assert.True(t, errors.IsCode(err, errors.CodeUnreadable))
	}
	assert.Equal(t, int32(1), reads.Load())
}

func TestParse_AfterCloseFails(t *testing.T) {
	loader, err := NewGrammarLoader()
	require.NoError(t, err)
	p := NewParser(loader, withReadFile(func(string) ([]byte, error) {
		return []byte("export {};\n"), nil
	}))
	_, err = p.Parse("/repo/a.ts")
	require.NoError(t, err)

	p.Close()
	p.Close()

	_, err = p.Parse("/repo/b.ts")
	assert.True(t, errors.IsCode(err, errors.CodeInternal))
}

func mustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}
