// Package taint implements the source-to-sink reachability engine. It walks
// the program graph breadth-first from every source node, following base and
// rule-derived edges, pruning sanitizers, and yields a witness path for each
// sink it reaches.
//
// Inspired by:
//   - github.com/picatz/taint (per-source path search and dedup keys)
//   - the gosec taint engine (visited sets, depth budgets, sanitizer-first
//     checks)
package taint

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/Cristalinsg/taintgraph/classify"
	"github.com/Cristalinsg/taintgraph/graph"
	"github.com/Cristalinsg/taintgraph/rules"
)

// DefaultMaxNodes bounds how many nodes a single source traversal may visit.
// Pathological graphs stay bounded without configuration.
const DefaultMaxNodes = 1 << 20

// ErrBudgetExceeded reports that a traversal hit its node budget. Paths
// found before the budget ran out are still returned; callers decide whether
// a truncated exploration is acceptable.
var ErrBudgetExceeded = errors.New("taint: node budget exceeded")

// Severity of a finding produced from a config.
type Severity int

const (
	Low Severity = iota
	Medium
	High
)

func (s Severity) String() string {
	switch s {
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// RuleInfo identifies the vulnerability rule a config implements.
type RuleInfo struct {
	ID          string
	Description string
	Severity    Severity
}

// Config is one complete analysis configuration: who classifies nodes,
// which additional steps apply, and how to bound the search.
type Config struct {
	Classifier classify.Classifier
	Rules      []rules.Rule
	Info       RuleInfo

	// MaxNodes bounds each per-source traversal. Zero means
	// DefaultMaxNodes; negative means unbounded.
	MaxNodes int
	// Parallelism > 1 runs per-source traversals concurrently. The graph
	// and classifier are only read during search, so no locking is needed
	// beyond merging results.
	Parallelism int
}

// Path is a witness flow from a source node to a sink node. Consecutive
// nodes are joined by exactly one qualifying edge and no node repeats.
type Path struct {
	Nodes []*graph.Node
}

// Source returns the first node of the path.
func (p Path) Source() *graph.Node { return p.Nodes[0] }

// Sink returns the last node of the path.
func (p Path) Sink() *graph.Node { return p.Nodes[len(p.Nodes)-1] }

func (p Path) String() string {
	s := ""
	for i, n := range p.Nodes {
		if i > 0 {
			s += " -> "
		}
		s += string(n.ID)
	}
	return s
}

// Analyzer holds a compiled configuration and performs searches.
type Analyzer struct {
	cfg        Config
	classifier classify.Classifier
	engine     *rules.Engine
	logger     hclog.Logger
}

// New builds an analyzer. The classifier is wrapped with the ambiguity
// policy (sanitizer beats source) before any search runs.
func New(cfg Config, logger hclog.Logger) *Analyzer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.Config{}.Classifier()
	}
	return &Analyzer{
		cfg:        cfg,
		classifier: classify.Resolve(cfg.Classifier, logger),
		engine:     rules.NewEngine(cfg.Rules, logger),
		logger:     logger,
	}
}

// Info exposes the rule identity of this analyzer's config.
func (a *Analyzer) Info() RuleInfo { return a.cfg.Info }

// FindPaths applies the additional-step rules and searches the graph from
// every source. The rule engine completes before the first traversal starts;
// its edges live in a per-run overlay, so the caller's graph is never
// mutated and the same graph can be searched under other configs afterwards.
// Results are deterministic for a fixed graph and config, whatever the
// parallelism.
func (a *Analyzer) FindPaths(ctx context.Context, g *graph.Graph) ([]Path, error) {
	overlay, err := a.engine.Apply(g)
	if err != nil {
		return nil, err
	}

	// A fresh cache per run: cached classifications must not leak across
	// graph snapshots.
	classifier := classify.Cached(a.classifier, g.Len())

	var sources []*graph.Node
	for n := range g.All() {
		if classifier.IsSource(g, n) {
			sources = append(sources, n)
		}
	}
	a.logger.Debug("starting taint search",
		"rule", a.cfg.Info.ID, "sources", len(sources),
		"nodes", g.Len(), "edges", g.EdgeCount(), "derived", overlay.EdgeCount())
	if len(sources) == 0 {
		return nil, nil
	}

	budget := a.cfg.MaxNodes
	if budget == 0 {
		budget = DefaultMaxNodes
	}

	// Per-source result and error slots keep the output in source discovery
	// order even when traversals run concurrently. Budget errors are
	// recorded per source rather than returned from the goroutine: a
	// returned error would cancel the group context and abort sibling
	// traversals that could still complete within their own budgets.
	perSource := make([][]Path, len(sources))
	budgetErrs := make([]error, len(sources))
	if a.cfg.Parallelism > 1 {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(a.cfg.Parallelism)
		for i, src := range sources {
			eg.Go(func() error {
				paths, err := a.traverse(egCtx, g, overlay, classifier, src, budget)
				perSource[i] = paths
				if errors.Is(err, ErrBudgetExceeded) {
					budgetErrs[i] = err
					return nil
				}
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		return flatten(perSource), firstErr(budgetErrs)
	}

	for i, src := range sources {
		paths, err := a.traverse(ctx, g, overlay, classifier, src, budget)
		if err != nil {
			if !errors.Is(err, ErrBudgetExceeded) {
				return nil, err
			}
			budgetErrs[i] = err
		}
		perSource[i] = paths
	}
	return flatten(perSource), firstErr(budgetErrs)
}

// firstErr returns the error recorded for the earliest source, so the
// surfaced budget error does not depend on goroutine scheduling.
func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func flatten(perSource [][]Path) []Path {
	var all []Path
	for _, paths := range perSource {
		all = append(all, paths...)
	}
	return all
}

// traverse runs one breadth-first exploration rooted at src, following base
// edges and then the run's derived overlay edges. The visited set is
// per-traversal: a node skipped here may still be reached from another
// source. The predecessor map keeps the first-discovered parent, which under
// BFS gives the shortest path by edge count with ties broken by edge
// insertion order.
func (a *Analyzer) traverse(ctx context.Context, g *graph.Graph, overlay *graph.Overlay, c classify.Classifier, src *graph.Node, budget int) ([]Path, error) {
	if c.IsSanitizer(g, src) {
		// Nothing flows out of a sanitizer; Resolve already logged the
		// ambiguity if the node was also a source.
		return nil, nil
	}

	visited := map[graph.NodeID]struct{}{src.ID: {}}
	prev := make(map[graph.NodeID]graph.NodeID)
	queue := []*graph.Node{src}

	var paths []Path
	expanded := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("taint: search cancelled: %w", err)
		}
		cur := queue[0]
		queue = queue[1:]

		// The start node counts: a node that is both source and sink
		// yields the single-node path.
		if c.IsSink(g, cur) {
			paths = append(paths, reconstruct(g, prev, src.ID, cur.ID))
		}

		expanded++
		if budget > 0 && expanded > budget {
			return paths, fmt.Errorf("%w: source %s", ErrBudgetExceeded, src.ID)
		}

		// Sinks keep propagating: one source can reach several sinks on
		// a single walk. Base edges expand before overlay edges.
		neighbors := g.Neighbors(cur.ID)
		neighbors = append(neighbors[:len(neighbors):len(neighbors)], overlay.Neighbors(cur.ID)...)
		for _, nb := range neighbors {
			next := nb.Node
			if _, seen := visited[next.ID]; seen {
				continue
			}
			visited[next.ID] = struct{}{}
			if c.IsSanitizer(g, next) {
				// Taint stops here. Marking it visited keeps longer
				// routes from re-entering it.
				continue
			}
			prev[next.ID] = cur.ID
			queue = append(queue, next)
		}
	}
	return paths, nil
}

// reconstruct walks the predecessor chain backwards from sink to source.
// The visited set guarantees at most one predecessor per node, so the
// result is the unique first-discovered path and contains no repeats.
func reconstruct(g *graph.Graph, prev map[graph.NodeID]graph.NodeID, src, sink graph.NodeID) Path {
	var rev []graph.NodeID
	for cur := sink; ; {
		rev = append(rev, cur)
		if cur == src {
			break
		}
		cur = prev[cur]
	}
	nodes := make([]*graph.Node, len(rev))
	for i, id := range rev {
		n, _ := g.Node(id)
		nodes[len(rev)-1-i] = n
	}
	return Path{Nodes: nodes}
}
