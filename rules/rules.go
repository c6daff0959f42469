// Package rules derives additional propagation edges from structural
// patterns in the base graph. Rules model library behaviours that are not
// visible as a single base edge (call summaries); they only ever add edges,
// never remove or change existing ones.
package rules

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/Cristalinsg/taintgraph/graph"
)

// Rule inspects the base graph and emits synthetic edges.
type Rule interface {
	// ID names the rule; it is recorded on every edge the rule derives.
	ID() string
	// Derive returns the edges this rule introduces. Implementations must
	// be deterministic for a fixed graph and must not mutate it.
	Derive(g *graph.Graph) ([]graph.Edge, error)
}

// InvalidRuleDerivationError reports a derived edge referencing a node that
// is not part of the graph. It indicates a rule/graph mismatch and is fatal
// to the analysis run.
type InvalidRuleDerivationError struct {
	Rule string
	Node graph.NodeID
}

func (e *InvalidRuleDerivationError) Error() string {
	return fmt.Sprintf("rules: rule %q derived an edge referencing unknown node %q", e.Rule, e.Node)
}

// Engine runs a fixed rule set over a graph.
type Engine struct {
	rules  []Rule
	logger hclog.Logger
}

// NewEngine builds an engine. The rule order is irrelevant to the result:
// derived edges are unioned and sorted before they are recorded.
func NewEngine(rules []Rule, logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{rules: rules, logger: logger}
}

// Apply derives edges from every rule and returns them as an overlay over g.
// The base graph is never mutated, so the same graph can be analysed under
// several configurations without one run's summaries leaking into the next.
// Derived edges are validated against the graph, de-duplicated across rules
// and sorted by (from, to, rule) so the overlay is identical across runs.
func (e *Engine) Apply(g *graph.Graph) (*graph.Overlay, error) {
	var derived []graph.Edge
	for _, r := range e.rules {
		edges, err := r.Derive(g)
		if err != nil {
			return nil, fmt.Errorf("rules: rule %q: %w", r.ID(), err)
		}
		for _, edge := range edges {
			if _, ok := g.Node(edge.From); !ok {
				return nil, &InvalidRuleDerivationError{Rule: r.ID(), Node: edge.From}
			}
			if _, ok := g.Node(edge.To); !ok {
				return nil, &InvalidRuleDerivationError{Rule: r.ID(), Node: edge.To}
			}
			edge.Kind = graph.EdgeDerived
			if edge.Rule == "" {
				edge.Rule = r.ID()
			}
			derived = append(derived, edge)
		}
		e.logger.Debug("rule derived edges", "rule", r.ID(), "count", len(edges))
	}

	sort.Slice(derived, func(i, j int) bool {
		a, b := derived[i], derived[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Rule < b.Rule
	})

	overlay := graph.NewOverlay(g)
	for _, edge := range derived {
		if err := overlay.Add(edge); err != nil {
			return nil, fmt.Errorf("rules: record derived edge: %w", err)
		}
	}
	return overlay, nil
}

// Func adapts a plain function into a Rule.
func Func(id string, fn func(g *graph.Graph) ([]graph.Edge, error)) Rule {
	return funcRule{id: id, fn: fn}
}

type funcRule struct {
	id string
	fn func(g *graph.Graph) ([]graph.Edge, error)
}

func (r funcRule) ID() string { return r.id }

func (r funcRule) Derive(g *graph.Graph) ([]graph.Edge, error) { return r.fn(g) }
