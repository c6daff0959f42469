package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gookit/color"
	"go.yaml.in/yaml/v3"
)

// Format selects an output serialisation.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatSarif Format = "sarif"
)

// Write serialises findings in the requested format.
func Write(w io.Writer, format Format, findings []Finding) error {
	switch format {
	case FormatText:
		return WriteText(w, findings)
	case FormatJSON:
		return WriteJSON(w, findings)
	case FormatYAML:
		return WriteYAML(w, findings)
	case FormatSarif:
		return WriteSarif(w, findings)
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}

// WriteText renders a human-readable report. Colors degrade to plain text
// on non-terminal writers.
func WriteText(w io.Writer, findings []Finding) error {
	if len(findings) == 0 {
		_, err := fmt.Fprintln(w, "No taint flows found.")
		return err
	}

	for _, f := range findings {
		header := fmt.Sprintf("[%s] %s: %s", f.Severity, f.RuleID, f.Description)
		switch f.Severity {
		case "HIGH":
			header = color.Red.Sprint(header)
		case "MEDIUM":
			header = color.Yellow.Sprint(header)
		default:
			header = color.Gray.Sprint(header)
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  source: %s (%s)\n", f.Source.ID, f.Source.Loc); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  sink:   %s (%s)\n", f.Sink.ID, f.Sink.Loc); err != nil {
			return err
		}
		for i, n := range f.Path {
			if _, err := fmt.Fprintf(w, "    %2d. %s %s\n", i+1, n.ID, n.Loc); err != nil {
				return err
			}
		}
		if f.Remediation != "" {
			if _, err := fmt.Fprintf(w, "  remediation: %s\n", f.Remediation); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d finding(s)\n", len(findings))
	return err
}

// WriteJSON emits the findings as an indented JSON array.
func WriteJSON(w io.Writer, findings []Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

// WriteYAML emits the findings as a YAML sequence.
func WriteYAML(w io.Writer, findings []Finding) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(findings)
}
