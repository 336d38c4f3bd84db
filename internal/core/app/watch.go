package app

import (
	"context"
	"log/slog"

	"importgraph/internal/core/errors"
	"importgraph/internal/core/ports"
	"importgraph/internal/core/watcher"
	"importgraph/internal/data/queue"
	"importgraph/internal/shared/util"
)

const changeQueueCapacity = 64

// Watch runs once, then re-runs the whole analysis whenever a source file
// under the root changes. Runs are at least watch.min_interval apart and
// bursts of changes collapse into one run. It returns when ctx is done.
func (s *analysisService) Watch(ctx context.Context, onReport func(ports.Report)) error {
	if onReport == nil {
		return errors.New(errors.CodeValidationError, "watch callback is required")
	}
	a := s.app

	r, err := s.RunOnce(ctx)
	if err != nil {
		return err
	}
	onReport(r)

	changes := queue.NewChangeQueue(changeQueueCapacity)
	defer changes.Close()
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Exclude.Dirs, a.Config.Exclude.Files, func(paths []string) {
		if changes.Enqueue(paths) == queue.EnqueueDropped {
			slog.Debug("change batch dropped; a queued rerun covers it", "files", len(paths))
		}
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "start file watcher")
	}
	defer w.Close()
	w.SetExtensions(a.loader.SupportedExtensions())
	if err := w.Watch([]string{a.Paths.Root}); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeUnreadable, "watch workspace"), errors.CtxPath, a.Paths.Root)
	}
	slog.Info("watching for changes", "root", a.Paths.Root)

	limiter := util.NewIntervalLimiter(a.Config.Watch.MinInterval)
	for {
		batches, err := changes.DequeueBatch(ctx, changeQueueCapacity, 0)
		if err != nil && len(batches) == 0 {
			return nil
		}
		if err := limiter.Wait(ctx, 1); err != nil {
			return nil
		}
		a.logAffected(queue.Merge(batches))

		r, err := s.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("re-analysis failed", "error", err)
			continue
		}
		onReport(r)
	}
}

func (a *App) logAffected(changed []string) {
	last := a.LastAnalysis()
	if last == nil {
		return
	}
	normalized := make([]string, len(changed))
	for i, p := range changed {
		normalized[i] = util.SlashPath(p)
	}
	affected := last.ModuleGraph.AffectedFiles(normalized)
	slog.Info("change detected", "changed", len(changed), "affected", len(affected))
}
