package app

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"importgraph/internal/core/config"
	"importgraph/internal/core/errors"
	"importgraph/internal/core/ports"
	"importgraph/internal/data/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// monorepo has a file cycle inside ui and a package cycle between ui and hooks.
func monorepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json":                   `{"private": true}`,
		"packages/ui/src/Button.tsx":     "import { useTheme } from \"@acme/hooks\";\nimport { helper } from \"./helper\";\nexport const Button = () => useTheme(helper);\n",
		"packages/ui/src/helper.ts":      "import { Button } from \"./Button\";\nexport const helper = Button;\n",
		"packages/ui/src/chain.ts":       "import { helper } from \"./helper\";\nexport const chain = helper;\n",
		"packages/ui/src/types.d.ts":     "export type Props = {};\n",
		"packages/hooks/src/useTheme.ts": "import { Button } from \"@acme/ui\";\nexport function useTheme() { return Button; }\n",
		"scripts/build.ts":               "import { chain } from \"../packages/ui/src/chain\";\n",
		"node_modules/left-pad/index.js": "module.exports = 1;\n",
		"README.md":                      "# repo\n",
	})
	return root
}

func newTestApp(t *testing.T, root string, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Root = root
	cfg.Parse.Workers = 2
	cfg.Packages.Entries = []config.PackageEntry{
		{Name: "@acme/ui", Paths: []string{"packages/ui"}},
		{Name: "@acme/hooks", Paths: []string{"packages/hooks"}},
	}
	if mutate != nil {
		mutate(cfg)
	}
	paths, err := config.ResolvePaths(cfg, root)
	require.NoError(t, err)
	a, err := New(cfg, paths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func relFiles(root string, files []string) []string {
	return relativeAll(filepath.ToSlash(root), files)
}

func TestNew_RejectsMissingRoot(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := New(cfg, config.ResolvedPaths{Root: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	file := filepath.Join(t.TempDir(), "file.ts")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(cfg, config.ResolvedPaths{Root: file})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestDiscover_AppliesIncludeAndExclude(t *testing.T) {
	root := monorepo(t)
	a := newTestApp(t, root, nil)

	files, err := a.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"packages/hooks/src/useTheme.ts",
		"packages/ui/src/Button.tsx",
		"packages/ui/src/chain.ts",
		"packages/ui/src/helper.ts",
		"scripts/build.ts",
	}, relFiles(root, files))

	scoped := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Include = []string{"packages/**.ts"}
		cfg.Exclude.Files = append(cfg.Exclude.Files, "chain.ts")
	})
	files, err = scoped.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"packages/hooks/src/useTheme.ts",
		"packages/ui/src/helper.ts",
	}, relFiles(root, files))
}

func TestDiscover_Cancelled(t *testing.T) {
	a := newTestApp(t, monorepo(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSkipUnreadable(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"locked/a.ts": "export const a = 1;\n"})
	denied := fs.ErrPermission

	dirInfo, err := os.Stat(filepath.Join(root, "locked"))
	require.NoError(t, err)
	fileInfo, err := os.Stat(filepath.Join(root, "locked/a.ts"))
	require.NoError(t, err)

	assert.ErrorIs(t, skipUnreadable(root, root, nil, denied), fs.ErrPermission)
	assert.Equal(t, filepath.SkipDir, skipUnreadable(root, filepath.Join(root, "locked"), fs.FileInfoToDirEntry(dirInfo), denied))
	assert.NoError(t, skipUnreadable(root, filepath.Join(root, "locked/a.ts"), fs.FileInfoToDirEntry(fileInfo), denied))
	assert.NoError(t, skipUnreadable(root, filepath.Join(root, "gone.ts"), nil, fs.ErrNotExist))
}

func TestDiscover_SkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := monorepo(t)
	locked := filepath.Join(root, "packages/locked")
	writeFiles(t, root, map[string]string{"packages/locked/x.ts": "export const x = 1;\n"})
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	files, err := newTestApp(t, root, nil).Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestAnalyze_ModuleAndPackageCycles(t *testing.T) {
	root := monorepo(t)
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.Cycles.Shortest = true })

	an, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, an.RunID)
	assert.Len(t, an.Files, 5)
	assert.Empty(t, an.Warnings)

	require.Len(t, an.ModuleCycles, 1)
	require.Len(t, an.PackageCycles, 1)

	r := a.BuildReport(an)
	require.Len(t, r.ModuleCycles, 1)
	mod := r.ModuleCycles[0]
	assert.Equal(t, ports.CycleKindModule, mod.Kind)
	assert.Equal(t, []string{"packages/ui/src/Button.tsx", "packages/ui/src/helper.ts"}, mod.Members)
	assert.Equal(t, []string{"packages/ui/src/Button.tsx", "packages/ui/src/helper.ts", "packages/ui/src/Button.tsx"}, mod.Path)
	assert.Equal(t, mod.Path, mod.Shortest)
	assert.Equal(t, "packages/ui/src/helper.ts", mod.File)
	assert.Equal(t, 1, mod.Line)
	assert.Contains(t, mod.Suggestion, `"./Button"`)
	require.Len(t, mod.Hops, 2)
	assert.Equal(t, "./Button", mod.Hops[1].Source)

	require.Len(t, r.PackageCycles, 1)
	pkg := r.PackageCycles[0]
	assert.Equal(t, []string{"@acme/hooks", "@acme/ui", "@acme/hooks"}, pkg.Path)
	assert.Equal(t, "@acme/hooks -> @acme/ui -> @acme/hooks", pkg.Display)
	assert.Equal(t, "packages/ui/src/Button.tsx", pkg.File)
	assert.Equal(t, "@acme/hooks", pkg.Hops[1].Source)

	assert.Equal(t, []string{"@acme/hooks", "@acme/ui"}, r.Packages)
	assert.Equal(t, []ports.PackageEdge{
		{From: "@acme/hooks", To: "@acme/ui", Imports: 1},
		{From: "@acme/ui", To: "@acme/hooks", Imports: 1},
	}, r.PackageEdges)
	assert.Equal(t, 4, r.ModuleEdgeCount)

	assert.Equal(t, []string{"packages/hooks/src/useTheme.ts", "scripts/build.ts"}, r.Unreferenced)
	assert.Equal(t, []ports.ExternalPackage{
		{Name: "@acme/hooks", Bindings: []string{"useTheme"}, Importers: []string{"packages/ui/src/Button.tsx"}},
		{Name: "@acme/ui", Bindings: []string{"Button"}, Importers: []string{"packages/hooks/src/useTheme.ts"}},
	}, r.External)
}

func TestAnalyze_UnreadableFileBecomesWarning(t *testing.T) {
	root := monorepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "packages/ui/src/binary.ts"), []byte{0xff, 0xfe, 0x00, 0x01}, 0o644))
	a := newTestApp(t, root, nil)

	an, err := a.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, an.Warnings, 1)
	assert.Equal(t, "packages/ui/src/binary.ts", an.Warnings[0].File)
	assert.Equal(t, string(errors.CodeUnreadable), an.Warnings[0].Code)
	assert.True(t, an.ModuleGraph.HasNode(filepath.ToSlash(filepath.Join(root, "packages/ui/src/binary.ts"))))
	assert.Len(t, an.ModuleCycles, 1)
}

func TestAnalyze_GrammarGapKeepsImports(t *testing.T) {
	root := monorepo(t)
	writeFiles(t, root, map[string]string{
		"packages/ui/src/barrel.ts": "import { theme } from \"./theme\";\nexport type * from \"./helper\";\nexport const palette = theme;\n",
		"packages/ui/src/theme.ts":  "import { palette } from \"./barrel\";\nexport const theme = palette;\n",
	})

	an, err := newTestApp(t, root, nil).Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, an.Warnings, 1)
	assert.Equal(t, "packages/ui/src/barrel.ts", an.Warnings[0].File)
	assert.Equal(t, string(errors.CodeParseFailed), an.Warnings[0].Code)
	assert.Len(t, an.ModuleCycles, 2)

	strict := newTestApp(t, root, func(cfg *config.Config) { cfg.Parse.TolerateSyntaxErrors = false })
	an, err = strict.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, an.Warnings, 1)
	assert.Len(t, an.ModuleCycles, 1)
}

func TestAnalyze_ModuleDirScope(t *testing.T) {
	root := monorepo(t)
	a := newTestApp(t, root, func(cfg *config.Config) { cfg.Scope.ModuleDir = "packages/hooks" })

	an, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, an.ModuleCycles)
	assert.Len(t, an.PackageCycles, 1)
}

func TestAnalyze_SyntheticPackage(t *testing.T) {
	root := monorepo(t)
	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Packages.Unclassified = config.UnclassifiedSynthetic
	})

	an, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.Contains(t, an.PackageGraph.Packages(), "@unknown")
	_, ok := an.PackageGraph.Dependency("@unknown", "@acme/ui")
	assert.True(t, ok)
}

func TestService_TraceAndImporters(t *testing.T) {
	root := monorepo(t)
	svc := newTestApp(t, root, nil).AnalysisService()
	ctx := context.Background()

	chain, err := svc.TraceImportChain(ctx, "scripts/build.ts", filepath.Join(root, "packages/ui/src/Button.tsx"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"scripts/build.ts",
		"packages/ui/src/chain.ts",
		"packages/ui/src/helper.ts",
		"packages/ui/src/Button.tsx",
	}, chain)

	chain, err = svc.TraceImportChain(ctx, "packages/ui/src/Button.tsx", "scripts/build.ts")
	require.NoError(t, err)
	assert.Empty(t, chain)

	_, err = svc.TraceImportChain(ctx, "missing.ts", "scripts/build.ts")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	res, err := svc.Importers(ctx, "packages/ui/src/Button.tsx")
	require.NoError(t, err)
	assert.Equal(t, "packages/ui/src/Button.tsx", res.File)
	assert.Equal(t, []string{"packages/ui/src/helper.ts"}, res.Impact.DirectImporters)
	assert.Equal(t, []string{"packages/ui/src/chain.ts", "scripts/build.ts"}, res.Impact.TransitiveImporters)
	assert.Equal(t, 1, res.InDegree)

	_, err = svc.Importers(ctx, "")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestService_RunOnceWritesOutputsAndHistory(t *testing.T) {
	root := monorepo(t)
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	a := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Output.JSON = "out/report.json"
		cfg.Output.SARIF = "out/report.sarif"
		cfg.Output.Mermaid = "out/packages.mmd"
	}).WithHistory(store)
	svc := a.AnalysisService()
	ctx := context.Background()

	first, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Nil(t, first.Previous)
	assert.Equal(t, 2, first.CycleCount())

	data, err := os.ReadFile(filepath.Join(root, "out/report.json"))
	require.NoError(t, err)
	var decoded ports.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, first.RunID, decoded.RunID)
	assert.Len(t, decoded.ModuleCycles, 1)
	assert.FileExists(t, filepath.Join(root, "out/report.sarif"))
	assert.FileExists(t, filepath.Join(root, "out/packages.mmd"))

	second, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, second.Previous)
	assert.Equal(t, first.RunID, second.Previous.RunID)
	assert.Equal(t, 1, second.Previous.ModuleCycleCount)

	snaps, err := store.LoadSnapshots(ctx, "default", time.Time{})
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestService_WatchRerunsOnChange(t *testing.T) {
	root := monorepo(t)
	svc := newTestApp(t, root, func(cfg *config.Config) {
		cfg.Watch.Debounce = 20 * time.Millisecond
		cfg.Watch.MinInterval = 0
	}).AnalysisService()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var reports []ports.Report
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, func(r ports.Report) {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, r)
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) == 1
	}, 5*time.Second, 10*time.Millisecond)

	writeFiles(t, root, map[string]string{
		"packages/hooks/src/a.ts": "import { b } from \"./b\";\nexport const a = b;\n",
		"packages/hooks/src/b.ts": "import { a } from \"./a\";\nexport const b = a;\n",
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		last := reports[len(reports)-1]
		return len(last.ModuleCycles) == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
