package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

const defaultConfigName = "importgraph.toml"

const (
	exitOK     = 0
	exitCycles = 1
	exitError  = 2
)

type cliOptions struct {
	configPath    string
	watch         bool
	format        string
	maxCycles     int
	trace         bool
	importers     string
	history       bool
	trends        bool
	since         string
	historyWindow string
	historyTSV    string
	historyJSON   string
	shortest      bool
	failOnCycles  bool
	unreferenced  bool
	verbose       bool
	version       bool
	args          []string

	// set holds the names of flags given explicitly, so only those override the config.
	set map[string]bool
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("importgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./"+defaultConfigName+" when present)")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run the analysis whenever a source file changes")
	fs.StringVar(&opts.format, "format", "text", "Report format on stdout: text, json, sarif, dot or mermaid")
	fs.IntVar(&opts.maxCycles, "max-cycles", 20, "Cycles listed per graph in the text report (0 lists all)")
	fs.BoolVar(&opts.trace, "trace", false, "Print the shortest import chain between two files given as arguments")
	fs.StringVar(&opts.importers, "importers", "", "Print the direct and transitive importers of a file")
	fs.BoolVar(&opts.history, "history", false, "Record a snapshot per run in the history store")
	fs.BoolVar(&opts.trends, "trends", false, "Print the trend report from the history store and exit")
	fs.StringVar(&opts.since, "since", "", "Only include snapshots at/after this timestamp (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&opts.historyWindow, "history-window", "24h", "Moving-window duration for trend averages")
	fs.StringVar(&opts.historyTSV, "history-tsv", "", "Write the trend report as TSV to this path")
	fs.StringVar(&opts.historyJSON, "history-json", "", "Write the trend report as JSON to this path")
	fs.BoolVar(&opts.shortest, "shortest", false, "Also report the shortest loop of every cycle")
	fs.BoolVar(&opts.failOnCycles, "fail-on-cycles", false, "Exit with status 1 when any cycle is found")
	fs.BoolVar(&opts.unreferenced, "unreferenced", false, "List files no other file imports in the text report")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	opts.args = fs.Args()
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if err := validateOptions(opts); err != nil {
		return cliOptions{}, err
	}
	return opts, nil
}

func validateOptions(opts cliOptions) error {
	modes := 0
	for _, on := range []bool{opts.watch, opts.trace, opts.importers != "", opts.trends} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("--watch, --trace, --importers and --trends cannot be combined")
	}
	if opts.trace && len(opts.args) != 2 {
		return fmt.Errorf("--trace requires two file arguments: <from> <to>")
	}
	if !opts.trace && len(opts.args) > 1 {
		return fmt.Errorf("expected at most one positional argument (the workspace root), got %d", len(opts.args))
	}
	if (opts.historyTSV != "" || opts.historyJSON != "") && !opts.trends {
		return fmt.Errorf("--history-tsv and --history-json require --trends")
	}
	if opts.maxCycles < 0 {
		return fmt.Errorf("--max-cycles must be >= 0")
	}
	if _, err := parseSince(opts.since); err != nil {
		return err
	}
	if _, err := parseHistoryWindow(opts.historyWindow); err != nil {
		return err
	}
	return nil
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("--since must be RFC3339 or YYYY-MM-DD, got %q", value)
}

func parseHistoryWindow(value string) (time.Duration, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("--history-window must be a Go duration (example: 24h), got %q", value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--history-window must be > 0, got %q", value)
	}
	return d, nil
}
