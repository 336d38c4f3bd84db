package app

import (
	"fmt"
	"log/slog"

	"importgraph/internal/core/ports"
	"importgraph/internal/shared/util"
	"importgraph/internal/shared/version"
	"importgraph/internal/ui/report"
)

// WriteOutputs renders r into every artifact path the config names.
func (a *App) WriteOutputs(r ports.Report) error {
	targets := []struct {
		path   string
		format report.Format
	}{
		{a.Paths.JSON, report.FormatJSON},
		{a.Paths.SARIF, report.FormatSARIF},
		{a.Paths.DOT, report.FormatDOT},
		{a.Paths.Mermaid, report.FormatMermaid},
	}

	for _, t := range targets {
		if t.path == "" {
			continue
		}
		data, err := report.Render(r, t.format, version.Version)
		if err != nil {
			return fmt.Errorf("generate %s output: %w", t.format, err)
		}
		if err := util.WriteFileWithDirs(t.path, data, 0o644); err != nil {
			return fmt.Errorf("write %s output %q: %w", t.format, t.path, err)
		}
		slog.Debug("wrote output", "format", t.format, "path", t.path)
	}
	return nil
}
