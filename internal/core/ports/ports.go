package ports

import (
	"context"
	"time"

	"importgraph/internal/data/history"
	"importgraph/internal/engine/graph"
	"importgraph/internal/engine/parser"
)

// CodeParser abstracts parsing of one source file into a syntax tree.
type CodeParser interface {
	Parse(path string) (*parser.SourceFile, error)
	IsSupportedPath(path string) bool
	Close()
}

// HistoryStore abstracts snapshot persistence for trend reporting.
type HistoryStore interface {
	SaveSnapshot(ctx context.Context, snapshot history.Snapshot) (history.Snapshot, error)
	Latest(ctx context.Context, projectKey string) (history.Snapshot, bool, error)
	LoadSnapshots(ctx context.Context, projectKey string, since time.Time) ([]history.Snapshot, error)
}

const (
	CycleKindModule  = "module"
	CycleKindPackage = "package"
)

// Hop is one edge along a cycle's representative path with the import that
// created it.
type Hop struct {
	From   string `json:"from"`
	To     string `json:"to"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Source string `json:"source"`
}

// CycleViolation is a reported cycle anchored at the import that closes it.
type CycleViolation struct {
	Kind       string   `json:"kind"`
	Members    []string `json:"members"`
	Path       []string `json:"path"`
	Shortest   []string `json:"shortest,omitempty"`
	Display    string   `json:"display"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Hops       []Hop    `json:"hops"`
	Suggestion string   `json:"suggestion"`
}

// Warning records a per-file degradation; it never aborts a run.
type Warning struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PackageEdge summarises one package dependency for rendering.
type PackageEdge struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Imports int    `json:"imports"`
}

// ExternalPackage is a non-relative import target with the names bound from
// it and the root-relative files importing it.
type ExternalPackage struct {
	Name      string   `json:"name"`
	Bindings  []string `json:"bindings"`
	Importers []string `json:"importers"`
}

// Report is everything an output format needs from one run.
type Report struct {
	RunID           string            `json:"run_id"`
	Root            string            `json:"root"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Duration        time.Duration     `json:"duration_ns"`
	FileCount       int               `json:"file_count"`
	ModuleEdgeCount int               `json:"module_edge_count"`
	Packages        []string          `json:"packages"`
	PackageEdges    []PackageEdge     `json:"package_edges"`
	ModuleCycles    []CycleViolation  `json:"module_cycles"`
	PackageCycles   []CycleViolation  `json:"package_cycles"`
	Warnings        []Warning         `json:"warnings"`
	Unreferenced    []string          `json:"unreferenced"` // files no other scanned file imports
	External        []ExternalPackage `json:"external_packages"`
	Previous        *history.Snapshot `json:"previous,omitempty"`
}

// CycleCount is the number of cycles across both graphs.
func (r Report) CycleCount() int {
	return len(r.ModuleCycles) + len(r.PackageCycles)
}

// ImportersResult answers "who imports this file".
type ImportersResult struct {
	File   string             `json:"file"`
	Impact graph.ImpactReport `json:"impact"`
	// InDegree counts distinct importing files resolved from relative specifiers.
	InDegree int `json:"in_degree"`
}

// AnalysisService is the driving port used by the CLI.
type AnalysisService interface {
	RunOnce(ctx context.Context) (Report, error)
	TraceImportChain(ctx context.Context, from, to string) ([]string, error)
	Importers(ctx context.Context, file string) (ImportersResult, error)
	Watch(ctx context.Context, onReport func(Report)) error
	Close(ctx context.Context) error
}
