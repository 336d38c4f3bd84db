package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies IMPORTGRAPH_[SECTION]_[KEY] environment overrides.
// Malformed values are logged and ignored.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Root, "IMPORTGRAPH_ROOT")

	setEnvString(&cfg.Packages.Unclassified, "IMPORTGRAPH_PACKAGES_UNCLASSIFIED")
	setEnvString(&cfg.Scope.ModuleDir, "IMPORTGRAPH_SCOPE_MODULE_DIR")

	setEnvInt(&cfg.Parse.Workers, "IMPORTGRAPH_PARSE_WORKERS")
	setEnvBool(&cfg.Parse.TolerateSyntaxErrors, "IMPORTGRAPH_PARSE_TOLERATE_SYNTAX_ERRORS")

	setEnvBool(&cfg.Cycles.Shortest, "IMPORTGRAPH_CYCLES_SHORTEST")
	setEnvBool(&cfg.Cycles.FailOnCycles, "IMPORTGRAPH_CYCLES_FAIL_ON_CYCLES")

	setEnvBool(&cfg.History.Enabled, "IMPORTGRAPH_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "IMPORTGRAPH_HISTORY_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "IMPORTGRAPH_WATCH_DEBOUNCE")
	setEnvDuration(&cfg.Watch.MinInterval, "IMPORTGRAPH_WATCH_MIN_INTERVAL")

	setEnvString(&cfg.Observability.MetricsAddr, "IMPORTGRAPH_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "IMPORTGRAPH_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		slog.Warn("ignoring env override", "key", key, "value", val, "error", err)
		return
	}
	*target = i
}

func setEnvBool(target *bool, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val)))
	if err != nil {
		slog.Warn("ignoring env override", "key", key, "value", val, "error", err)
		return
	}
	*target = b
}

func setEnvDuration(target *time.Duration, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		slog.Warn("ignoring env override", "key", key, "value", val, "error", err)
		return
	}
	*target = d
}
