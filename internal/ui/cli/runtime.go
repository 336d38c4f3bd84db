package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	coreapp "importgraph/internal/core/app"
	"importgraph/internal/core/config"
	"importgraph/internal/core/errors"
	"importgraph/internal/core/ports"
	"importgraph/internal/data/history"
	"importgraph/internal/shared/observability"
	"importgraph/internal/shared/util"
	"importgraph/internal/shared/version"
	"importgraph/internal/ui/report"
)

// Run is the process entry point; it returns the exit status.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

type session struct {
	opts    cliOptions
	format  report.Format
	cfg     *config.Config
	cfgPath string
	base    string
	cwd     string
	stdout  io.Writer
	current atomic.Pointer[coreapp.App]
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err.Error())
		return exitError
	}
	if opts.version {
		fmt.Fprintf(stdout, "importgraph v%s\n", version.Version)
		return exitOK
	}
	configureLogging(stderr, opts.verbose)

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitError
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitError
	}
	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitError
	}
	applyFlagOverrides(cfg, opts, cwd)

	rt := &session{opts: opts, format: format, cfg: cfg, cfgPath: cfgPath, base: cwd, cwd: cwd, stdout: stdout}
	if cfgPath != "" {
		rt.base = filepath.Dir(cfgPath)
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		server := NewObservabilityServer(addr, rt.health)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return exitError
		}
		defer func() { _ = server.Stop(context.Background()) }()
	}

	switch {
	case opts.trends:
		return rt.runTrends(ctx)
	case opts.watch:
		return rt.runWatch(ctx)
	default:
		return rt.runSingle(ctx)
	}
}

func (rt *session) runSingle(ctx context.Context) int {
	a, err := rt.buildApp(rt.cfg)
	if err != nil {
		slog.Error("failed to initialize analysis", "error", err)
		return exitError
	}
	svc := a.AnalysisService()
	defer func() { _ = svc.Close(context.Background()) }()

	switch {
	case rt.opts.trace:
		chain, err := svc.TraceImportChain(ctx, rt.opts.args[0], rt.opts.args[1])
		if err != nil {
			slog.Error("trace failed", "error", err)
			return exitError
		}
		if rt.format == report.FormatJSON {
			return rt.writeJSON(chain)
		}
		fmt.Fprint(rt.stdout, report.FormatImportChain(chain))
		return exitOK

	case rt.opts.importers != "":
		res, err := svc.Importers(ctx, rt.opts.importers)
		if err != nil {
			slog.Error("importers lookup failed", "error", err)
			return exitError
		}
		if rt.format == report.FormatJSON {
			return rt.writeJSON(res)
		}
		fmt.Fprint(rt.stdout, report.FormatImporters(res))
		return exitOK
	}

	r, err := svc.RunOnce(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return exitError
	}
	if err := rt.printReport(r); err != nil {
		slog.Error("failed to write report", "error", err)
		return exitError
	}
	if rt.cfg.Cycles.FailOnCycles && r.CycleCount() > 0 {
		return exitCycles
	}
	return exitOK
}

// runWatch keeps re-analysing until ctx is done. A valid edit of the config
// file restarts the loop with the new settings.
func (rt *session) runWatch(ctx context.Context) int {
	reloads := make(chan *config.Config, 1)
	if rt.cfgPath != "" {
		cw := config.NewWatcher(rt.cfgPath, func(next *config.Config) {
			select {
			case reloads <- next:
			default:
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload disabled", "path", rt.cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	cfg := rt.cfg
	for {
		a, err := rt.buildApp(cfg)
		if err != nil {
			slog.Error("failed to initialize analysis", "error", err)
			return exitError
		}
		svc := a.AnalysisService()

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- svc.Watch(runCtx, func(r ports.Report) {
				if err := rt.printReport(r); err != nil {
					slog.Error("failed to write report", "error", err)
				}
			})
		}()

		var next *config.Config
		select {
		case err = <-done:
		case <-ctx.Done():
			cancel()
			err = <-done
		case next = <-reloads:
			cancel()
			err = <-done
		}
		cancel()
		_ = svc.Close(context.Background())

		if next == nil {
			if err != nil {
				slog.Error("watch failed", "error", err)
				return exitError
			}
			return exitOK
		}
		applyFlagOverrides(next, rt.opts, rt.cwd)
		cfg = next
		rt.cfg = next
		slog.Info("restarting watch with reloaded config")
	}
}

func (rt *session) runTrends(ctx context.Context) int {
	paths, err := config.ResolvePaths(rt.cfg, rt.base)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return exitError
	}
	store, err := history.Open(paths.History)
	if err != nil {
		slog.Error("failed to open history store", "error", err)
		return exitError
	}
	defer store.Close()

	since, _ := parseSince(rt.opts.since)
	window, _ := parseHistoryWindow(rt.opts.historyWindow)
	key := rt.cfg.History.ProjectKey

	snapshots, err := store.LoadSnapshots(ctx, key, since)
	if err != nil {
		slog.Error("failed to load snapshots", "error", err)
		return exitError
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(rt.stdout, "History: no snapshots matched the requested time window.")
		return exitOK
	}
	trend, err := history.BuildTrendReport(key, snapshots, window)
	if err != nil {
		slog.Error("failed to build trend report", "error", err)
		return exitError
	}

	if rt.opts.historyTSV != "" {
		if err := writeRendered(rt.opts.historyTSV, report.RenderTrendTSV, trend); err != nil {
			slog.Error("failed to write trend TSV", "error", err)
			return exitError
		}
	}
	if rt.opts.historyJSON != "" {
		if err := writeRendered(rt.opts.historyJSON, report.RenderTrendJSON, trend); err != nil {
			slog.Error("failed to write trend JSON", "error", err)
			return exitError
		}
	}

	render := report.RenderTrendTSV
	if rt.format == report.FormatJSON {
		render = report.RenderTrendJSON
	}
	data, err := render(trend)
	if err != nil {
		slog.Error("failed to render trend report", "error", err)
		return exitError
	}
	_, _ = rt.stdout.Write(data)
	return exitOK
}

func writeRendered(path string, render func(history.TrendReport) ([]byte, error), trend history.TrendReport) error {
	data, err := render(trend)
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(path, data, 0o644)
}

// buildApp resolves paths and wires the history store when enabled.
func (rt *session) buildApp(cfg *config.Config) (*coreapp.App, error) {
	paths, err := config.ResolvePaths(cfg, rt.base)
	if err != nil {
		return nil, err
	}
	a, err := coreapp.New(cfg, paths)
	if err != nil {
		return nil, err
	}
	if cfg.History.Enabled {
		store, err := history.Open(paths.History)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.WithHistory(store)
	}
	rt.current.Store(a)
	return a, nil
}

func (rt *session) printReport(r ports.Report) error {
	if rt.format == report.FormatText {
		return report.RenderSummary(rt.stdout, r, report.SummaryOptions{
			MaxCycles:        rt.opts.maxCycles,
			ShowWarnings:     rt.opts.verbose,
			ShowUnreferenced: rt.opts.unreferenced,
		})
	}
	return report.Write(rt.stdout, r, rt.format, version.Version)
}

func (rt *session) writeJSON(v any) int {
	enc := json.NewEncoder(rt.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to write JSON", "error", err)
		return exitError
	}
	return exitOK
}

func (rt *session) health(context.Context) HealthStatus {
	a := rt.current.Load()
	if a == nil {
		return HealthStatus{Status: "starting"}
	}
	an := a.LastAnalysis()
	if an == nil {
		return HealthStatus{Status: "starting", Root: a.Paths.Root}
	}
	return HealthStatus{
		Status:        "up",
		Root:          a.Paths.Root,
		LastRunID:     an.RunID,
		LastRunAt:     an.StartedAt.UTC(),
		Files:         len(an.Files),
		ModuleCycles:  len(an.ModuleCycles),
		PackageCycles: len(an.PackageCycles),
	}
}

// loadConfig reads path, or ./importgraph.toml when path is empty. A missing
// default file falls back to built-in defaults; the returned path is then "".
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, abs, nil
	}

	candidate := filepath.Join(cwd, defaultConfigName)
	cfg, err := config.Load(candidate)
	if err == nil {
		return cfg, candidate, nil
	}
	if !errors.IsCode(err, errors.CodeNotFound) {
		return nil, "", err
	}

	cfg = config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

// applyFlagOverrides lets explicitly given flags win over the config file.
func applyFlagOverrides(cfg *config.Config, opts cliOptions, cwd string) {
	if len(opts.args) == 1 && !opts.trace {
		cfg.Root = config.ResolveRelative(cwd, opts.args[0])
	}
	if opts.set["shortest"] {
		cfg.Cycles.Shortest = opts.shortest
	}
	if opts.set["fail-on-cycles"] {
		cfg.Cycles.FailOnCycles = opts.failOnCycles
	}
	if opts.set["history"] {
		cfg.History.Enabled = opts.history
	}
}

func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
