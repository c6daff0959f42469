// Package taintgraph analyses program graphs for taint flows. It ties the
// pieces together: a graph snapshot goes in, every registered analyzer
// configuration runs its source-to-sink search over it, and the merged,
// deduplicated findings come out.
//
// The graph is supplied by an external front-end (or the bundled Go SSA
// adapter); analyzer configurations are code, see the analyzers package
// for the built-in ones.
package taintgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/Cristalinsg/taintgraph/graph"
	"github.com/Cristalinsg/taintgraph/report"
	"github.com/Cristalinsg/taintgraph/taint"
)

// Metrics summarises one Check run.
type Metrics struct {
	NumNodes    int
	NumEdges    int
	NumAnalyzed int
	NumFound    int
}

// Analyzer runs a registered set of analyzer configurations over graphs.
type Analyzer struct {
	configs []taint.Config
	logger  hclog.Logger
}

// NewAnalyzer builds an empty orchestrator.
func NewAnalyzer(logger hclog.Logger) *Analyzer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Analyzer{logger: logger}
}

// Register adds an analyzer configuration. Configurations run in
// registration order.
func (a *Analyzer) Register(cfgs ...taint.Config) {
	a.configs = append(a.configs, cfgs...)
}

// Check runs every registered configuration over the graph and returns the
// merged findings. A graph or rule error is fatal: no partial results are
// returned. An exceeded node budget is not fatal; the run continues with
// the paths found and the event is logged.
func (a *Analyzer) Check(ctx context.Context, g *graph.Graph) ([]report.Finding, *Metrics, error) {
	metrics := &Metrics{NumNodes: g.Len(), NumEdges: g.EdgeCount()}
	if len(a.configs) == 0 {
		return nil, metrics, nil
	}

	var sets [][]report.Finding
	for _, cfg := range a.configs {
		engine := taint.New(cfg, a.logger.Named(cfg.Info.ID))
		paths, err := engine.FindPaths(ctx, g)
		if err != nil {
			if !errors.Is(err, taint.ErrBudgetExceeded) {
				return nil, nil, fmt.Errorf("taintgraph: rule %s: %w", cfg.Info.ID, err)
			}
			a.logger.Warn("search truncated by node budget", "rule", cfg.Info.ID)
		}
		findings := report.New(paths, cfg.Info)
		metrics.NumAnalyzed++
		metrics.NumFound += len(findings)
		sets = append(sets, findings)
	}
	return report.Merge(sets...), metrics, nil
}
