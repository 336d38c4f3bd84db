package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_ExplicitRoot(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Root = "repo"
	cfg.Scope.ModuleDir = "packages/ui"
	cfg.Output.SARIF = "reports/cycles.sarif"
	cfg.Output.DOT = "/tmp/graph.dot"

	resolved, err := ResolvePaths(cfg, base)
	require.NoError(t, err)

	root := filepath.Join(base, "repo")
	assert.Equal(t, root, resolved.Root)
	assert.Equal(t, filepath.Join(root, "packages/ui"), resolved.ModuleDir)
	assert.Equal(t, filepath.Join(root, ".importgraph/history.db"), resolved.History)
	assert.Equal(t, filepath.Join(root, "reports/cycles.sarif"), resolved.SARIF)
	assert.Equal(t, "/tmp/graph.dot", resolved.DOT)
	assert.Empty(t, resolved.JSON)
}

func TestResolvePaths_DetectsWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pnpm-workspace.yaml"), []byte("packages: []\n"), 0o644))
	nested := filepath.Join(root, "packages", "ui", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	resolved, err := ResolvePaths(DefaultConfig(), nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), resolved.Root)
	assert.Empty(t, resolved.ModuleDir)

	_, err = ResolvePaths(DefaultConfig(), " ")
	assert.Error(t, err)
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, "/base", ResolveRelative("/base", ""))
	assert.Equal(t, "/abs/x", ResolveRelative("/base", "/abs/x/"))
	assert.Equal(t, "/base/a/b", ResolveRelative("/base", " a/./b "))
}
