// Package report turns witness paths into findings and serialises them for
// people and downstream tooling. Findings are deduplicated by (source, sink)
// pair and every reported path is the literal traversal-confirmed node
// sequence; nothing is approximated.
package report

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Cristalinsg/taintgraph/graph"
	"github.com/Cristalinsg/taintgraph/taint"
)

// Finding is a confirmed (source, sink, path) triple.
type Finding struct {
	ID          string        `json:"id" yaml:"id"`
	RuleID      string        `json:"rule_id" yaml:"rule_id"`
	Description string        `json:"description" yaml:"description"`
	Severity    string        `json:"severity" yaml:"severity"`
	Source      *graph.Node   `json:"source" yaml:"source"`
	Sink        *graph.Node   `json:"sink" yaml:"sink"`
	Path        []*graph.Node `json:"path" yaml:"path"`
	Remediation string        `json:"remediation,omitempty" yaml:"remediation,omitempty"`

	severity taint.Severity
}

// New converts paths into findings. At most one finding survives per
// distinct (source, sink) pair; BFS hands the shortest path to the sink
// first, so the first occurrence wins. Output is ordered by severity (high
// first), then sink location, then source location, the order reports
// are read in.
func New(paths []taint.Path, info taint.RuleInfo) []Finding {
	type pairKey struct {
		src, sink graph.NodeID
	}
	seen := make(map[pairKey]struct{})

	var findings []Finding
	for _, p := range paths {
		key := pairKey{src: p.Source().ID, sink: p.Sink().ID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		findings = append(findings, Finding{
			ID:          uuid.NewString(),
			RuleID:      info.ID,
			Description: info.Description,
			Severity:    info.Severity.String(),
			Source:      p.Source(),
			Sink:        p.Sink(),
			Path:        p.Nodes,
			severity:    info.Severity,
		})
	}
	Sort(findings)
	return findings
}

// Merge combines finding sets from several analyzer runs into one ordered
// report. Dedup stays per rule: two rules may legitimately flag the same
// (source, sink) pair for different reasons.
func Merge(sets ...[]Finding) []Finding {
	var all []Finding
	for _, s := range sets {
		all = append(all, s...)
	}
	Sort(all)
	return all
}

// Sort orders findings by severity (high first), then sink location, then
// source location, then rule ID.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.severity != b.severity {
			return a.severity > b.severity
		}
		if a.Sink.Loc != b.Sink.Loc {
			return lessLoc(a.Sink.Loc, b.Sink.Loc)
		}
		if a.Source.Loc != b.Source.Loc {
			return lessLoc(a.Source.Loc, b.Source.Loc)
		}
		return a.RuleID < b.RuleID
	})
}

func lessLoc(a, b graph.Location) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	return a.EndLine < b.EndLine
}
