package app

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"importgraph/internal/core/errors"
	"importgraph/internal/shared/util"
)

// Discover walks the workspace root and returns every supported source file
// matched by an include glob and no exclude glob, as sorted absolute slash
// paths. Include and exclude.files globs see the root-relative path;
// exclude.files also sees the base name.
func (a *App) Discover(ctx context.Context) ([]string, error) {
	root := a.Paths.Root
	files := make([]string, 0, 256)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return skipUnreadable(root, path, d, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && util.MatchAny(a.excludeDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if a.loader.LanguageFor(path) == "" {
			return nil
		}

		rel := util.RelativeTo(root, path)
		if !util.MatchAny(a.includeGlobs, rel) {
			return nil
		}
		if util.MatchAny(a.excludeFiles, d.Name()) || util.MatchAny(a.excludeFiles, rel) {
			return nil
		}

		files = append(files, util.SlashPath(path))
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeUnreadable, "scan workspace"), errors.CtxPath, root)
	}

	sort.Strings(files)
	return files, nil
}

// skipUnreadable drops an entry WalkDir could not read. Only a failure on the
// root itself aborts discovery.
func skipUnreadable(root, path string, d fs.DirEntry, err error) error {
	if path == root {
		return err
	}
	slog.Debug("skipping unreadable path", "path", path, "error", err)
	if d != nil && d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}
