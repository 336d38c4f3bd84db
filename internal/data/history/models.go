package history

import "time"

const SchemaVersion = 1

// Snapshot is one analysis run's headline counts.
type Snapshot struct {
	RunID             string    `json:"run_id"`
	ProjectKey        string    `json:"project_key"`
	SchemaVersion     int       `json:"schema_version"`
	Timestamp         time.Time `json:"timestamp"`
	CommitHash        string    `json:"commit_hash,omitempty"`
	CommitTimestamp   time.Time `json:"commit_timestamp,omitempty"`
	FileCount         int       `json:"file_count"`
	ModuleEdgeCount   int       `json:"module_edge_count"`
	PackageCount      int       `json:"package_count"`
	PackageEdgeCount  int       `json:"package_edge_count"`
	ModuleCycleCount  int       `json:"module_cycle_count"`
	PackageCycleCount int       `json:"package_cycle_count"`
	WarningCount      int       `json:"warning_count"`
	DurationMS        int64     `json:"duration_ms"`
}

// CycleCount is the total across both graphs.
func (s Snapshot) CycleCount() int {
	return s.ModuleCycleCount + s.PackageCycleCount
}

type TrendPoint struct {
	RunID            string    `json:"run_id"`
	Timestamp        time.Time `json:"timestamp"`
	CommitHash       string    `json:"commit_hash,omitempty"`
	FileCount        int       `json:"file_count"`
	CycleCount       int       `json:"cycle_count"`
	PackageEdgeCount int       `json:"package_edge_count"`
	DeltaFiles       int       `json:"delta_files"`
	DeltaCycles      int       `json:"delta_cycles"`
	DeltaPackageEdge int       `json:"delta_package_edges"`
	AvgCycles        float64   `json:"avg_cycles"`
	WindowHours      float64   `json:"window_hours"`
}

type TrendReport struct {
	ProjectKey string       `json:"project_key"`
	Since      time.Time    `json:"since"`
	Until      time.Time    `json:"until"`
	Window     string       `json:"window"`
	ScanCount  int          `json:"scan_count"`
	Points     []TrendPoint `json:"points"`
}
