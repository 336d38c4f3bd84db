package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"importgraph/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRunID\tCommit\tFiles\tCycles\tPackageEdges\tDeltaFiles\tDeltaCycles\tDeltaPackageEdges\tAvgCycles\tWindowHours\n")
	for _, point := range report.Points {
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\n",
			point.Timestamp.Format(time.RFC3339),
			point.RunID,
			point.CommitHash,
			point.FileCount,
			point.CycleCount,
			point.PackageEdgeCount,
			point.DeltaFiles,
			point.DeltaCycles,
			point.DeltaPackageEdge,
			point.AvgCycles,
			point.WindowHours,
		)
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
