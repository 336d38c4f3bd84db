package history

import (
	"bytes"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"
)

// BuildTrendReport computes per-run deltas and a trailing average of cycle
// counts over window. Snapshots must be ordered oldest first.
func BuildTrendReport(projectKey string, snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			RunID:            current.RunID,
			Timestamp:        current.Timestamp,
			CommitHash:       current.CommitHash,
			FileCount:        current.FileCount,
			CycleCount:       current.CycleCount(),
			PackageEdgeCount: current.PackageEdgeCount,
		}
		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaFiles = current.FileCount - prev.FileCount
			point.DeltaCycles = current.CycleCount() - prev.CycleCount()
			point.DeltaPackageEdge = current.PackageEdgeCount - prev.PackageEdgeCount
		}
		point.AvgCycles = round2(movingAverageCycles(snapshots, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		ProjectKey: normalizeProjectKey(projectKey),
		Since:      snapshots[0].Timestamp,
		Until:      snapshots[len(snapshots)-1].Timestamp,
		Window:     window.String(),
		ScanCount:  len(points),
		Points:     points,
	}, nil
}

func movingAverageCycles(snapshots []Snapshot, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(snapshots[index].CycleCount())
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		total += snapshots[i].CycleCount()
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ResolveGitMetadata returns HEAD's short hash and commit time, or zero
// values outside a git checkout.
func ResolveGitMetadata(projectRoot string) (string, time.Time) {
	commitHash := runGit(projectRoot, "rev-parse", "--short=12", "HEAD")
	commitTimeRaw := runGit(projectRoot, "show", "-s", "--format=%cI", "HEAD")
	if commitHash == "" || commitTimeRaw == "" {
		return "", time.Time{}
	}

	commitTime, err := time.Parse(time.RFC3339, commitTimeRaw)
	if err != nil {
		return commitHash, time.Time{}
	}
	return commitHash, commitTime.UTC()
}

func runGit(projectRoot string, args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", projectRoot}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
