package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "importgraph_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ParseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "importgraph_parse_failures_total",
		Help: "Files that degraded to an empty fact set, by error code.",
	}, []string{"code"})

	SourceCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "importgraph_source_cache_entries",
		Help: "Parsed source files held by the current run's cache.",
	})

	GraphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "importgraph_graph_nodes",
		Help: "Number of nodes in the dependency graph.",
	}, []string{"graph"})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "importgraph_graph_edges",
		Help: "Number of edges in the dependency graph.",
	}, []string{"graph"})

	CyclesDetected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "importgraph_cycles",
		Help: "Cycles reported by the last run.",
	}, []string{"graph"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "importgraph_analysis_seconds",
		Help:    "Time spent on high-level analysis phases.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "importgraph_runs_total",
		Help: "Completed analysis runs.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "importgraph_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
