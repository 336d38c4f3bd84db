package formats

import (
	"encoding/json"

	"importgraph/internal/core/ports"
)

// GenerateJSON renders the full report, cycles and hops included.
func GenerateJSON(r ports.Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
