package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/Cristalinsg/taintgraph/graph"
)

const toolName = "taintgraph"

const toolURI = "https://github.com/Cristalinsg/taintgraph"

// WriteSarif serialises findings as one SARIF 2.1.0 run. Each finding
// becomes a result whose primary location is the sink; the full witness path
// is carried in the related locations, source first.
func WriteSarif(w io.Writer, findings []Finding) error {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("report: create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)

	seenRules := make(map[string]struct{})
	for _, f := range findings {
		if _, ok := seenRules[f.RuleID]; !ok {
			seenRules[f.RuleID] = struct{}{}
			run.AddRule(f.RuleID).
				WithDescription(f.Description).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: sarifLevel(f.Severity),
				})
		}

		message := fmt.Sprintf("%s: flow from %s to %s", f.Description, f.Source.Loc, f.Sink.Loc)
		result := sarif.NewRuleResult(f.RuleID).
			WithLevel(sarifLevel(f.Severity)).
			WithMessage(sarif.NewTextMessage(message)).
			WithLocations([]*sarif.Location{nodeLocation(f.Sink)})

		related := make([]*sarif.Location, 0, len(f.Path))
		for _, n := range f.Path {
			related = append(related, nodeLocation(n))
		}
		result.RelatedLocations = related

		run.AddResult(result)
	}

	rep.AddRun(run)
	return rep.PrettyWrite(w)
}

func nodeLocation(n *graph.Node) *sarif.Location {
	region := sarif.NewRegion().WithStartLine(n.Loc.StartLine)
	if n.Loc.EndLine > n.Loc.StartLine {
		region = region.WithEndLine(n.Loc.EndLine)
	}
	return sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(n.Loc.File)).
			WithRegion(region))
}

func sarifLevel(severity string) string {
	switch severity {
	case "HIGH":
		return "error"
	case "MEDIUM":
		return "warning"
	default:
		return "note"
	}
}
