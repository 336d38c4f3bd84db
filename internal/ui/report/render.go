// # internal/ui/report/render.go
package report

import (
	"bytes"
	"fmt"
	"io"

	"importgraph/internal/core/ports"
	"importgraph/internal/ui/report/formats"
)

// Format names an output rendering of a report.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatSARIF   Format = "sarif"
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// ParseFormat accepts one of the Format names.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatText, FormatJSON, FormatSARIF, FormatDOT, FormatMermaid:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// Render produces the bytes of r in format f. toolVersion is stamped into
// SARIF output.
func Render(r ports.Report, f Format, toolVersion string) ([]byte, error) {
	switch f {
	case FormatText:
		var buf bytes.Buffer
		if err := RenderSummary(&buf, r, SummaryOptions{ShowWarnings: true}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return formats.GenerateJSON(r)
	case FormatSARIF:
		return formats.GenerateSARIF(r, toolVersion)
	case FormatDOT:
		out, err := formats.GenerateDOT(r)
		return []byte(out), err
	case FormatMermaid:
		out, err := formats.GenerateMermaid(r)
		return []byte(out), err
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}

// Write renders r to w.
func Write(w io.Writer, r ports.Report, f Format, toolVersion string) error {
	data, err := Render(r, f, toolVersion)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
