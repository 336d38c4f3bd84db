// # internal/ui/report/formats/sarif.go
package formats

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"importgraph/internal/core/ports"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDModuleCycle  = "IMPG001"
	ruleIDPackageCycle = "IMPG002"
	ruleIDParseWarning = "IMPG003"

	toolName = "importgraph"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	ID               int                   `json:"id,omitempty"`
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifMessage         `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from a report. Every cycle is
// one result located at the import that closes it; the remaining hops are
// related locations. URIs are relative to the workspace root.
func GenerateSARIF(r ports.Report, toolVersion string) ([]byte, error) {
	results := make([]sarifResult, 0, r.CycleCount()+len(r.Warnings))

	for _, c := range r.ModuleCycles {
		results = append(results, cycleResult(r.Root, ruleIDModuleCycle, "Circular import", c))
	}
	for _, c := range r.PackageCycles {
		results = append(results, cycleResult(r.Root, ruleIDPackageCycle, "Circular package dependency", c))
	}
	for _, w := range r.Warnings {
		results = append(results, sarifResult{
			RuleID:    ruleIDParseWarning,
			Level:     "note",
			Message:   sarifMessage{Text: fmt.Sprintf("Parse warning (%s): %s", w.Code, w.Message)},
			Locations: []sarifLocation{fileLocation(r.Root, w.File, 0, 0)},
		})
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    toolName,
						Version: toolVersion,
						Rules:   buildSARIFRules(r),
					},
				},
				Results: results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

func cycleResult(root, ruleID, title string, c ports.CycleViolation) sarifResult {
	result := sarifResult{
		RuleID:  ruleID,
		Level:   "error",
		Message: sarifMessage{Text: fmt.Sprintf("%s: %s. %s", title, c.Display, c.Suggestion)},
	}
	if c.File != "" {
		result.Locations = []sarifLocation{fileLocation(root, c.File, c.Line, c.Column)}
	}
	for i, hop := range c.Hops {
		if hop.File == "" {
			continue
		}
		loc := fileLocation(root, hop.File, hop.Line, hop.Column)
		loc.ID = i + 1
		loc.Message = &sarifMessage{Text: fmt.Sprintf("%s imports %s via %q", hop.From, hop.To, hop.Source)}
		result.RelatedLocations = append(result.RelatedLocations, loc)
	}
	return result
}

// buildSARIFRules returns only the rules that are relevant for the given findings.
func buildSARIFRules(r ports.Report) []sarifRule {
	rules := make([]sarifRule, 0, 3)
	if len(r.ModuleCycles) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDModuleCycle,
			Name:             "CircularImport",
			ShortDescription: sarifMessage{Text: "Source files import each other in a loop."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	if len(r.PackageCycles) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDPackageCycle,
			Name:             "CircularPackageDependency",
			ShortDescription: sarifMessage{Text: "Workspace packages depend on each other in a loop."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	if len(r.Warnings) > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDParseWarning,
			Name:             "UnanalysedFile",
			ShortDescription: sarifMessage{Text: "A source file could not be read or parsed and contributed no imports."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
		})
	}
	return rules
}

func fileLocation(root, file string, line, column int) sarifLocation {
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       relativeURI(root, file),
				URIBaseID: "%SRCROOT%",
			},
		},
	}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: line, StartColumn: column}
	}
	return loc
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. Relative paths are returned with forward slashes.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		if rel, err := filepath.Rel(projectRoot, filePath); err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
