package taint

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Cristalinsg/taintgraph/classify"
	"github.com/Cristalinsg/taintgraph/graph"
	"github.com/Cristalinsg/taintgraph/rules"
)

func linearGraph(t *testing.T, nodeIDs ...graph.NodeID) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range nodeIDs {
		if err := g.AddNode(graph.Node{ID: id, Kind: graph.KindLocal, Index: -1}); err != nil {
			t.Fatalf("add node %s: %v", id, err)
		}
	}
	for i := 0; i+1 < len(nodeIDs); i++ {
		if err := g.AddEdge(nodeIDs[i], nodeIDs[i+1], graph.EdgeAssign); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}
	return g
}

func idClassifier(sources, sinks, sanitizers []graph.NodeID) classify.Classifier {
	inSet := func(set []graph.NodeID, id graph.NodeID) bool {
		for _, s := range set {
			if s == id {
				return true
			}
		}
		return false
	}
	return classify.Funcs{
		Source:    func(_ *graph.Graph, n *graph.Node) bool { return inSet(sources, n.ID) },
		Sink:      func(_ *graph.Graph, n *graph.Node) bool { return inSet(sinks, n.ID) },
		Sanitizer: func(_ *graph.Graph, n *graph.Node) bool { return inSet(sanitizers, n.ID) },
	}
}

func ids(p Path) []graph.NodeID {
	out := make([]graph.NodeID, len(p.Nodes))
	for i, n := range p.Nodes {
		out[i] = n.ID
	}
	return out
}

func TestLinearFlowYieldsOnePath(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C")
	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"C"}, nil,
	)}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one path, got %d", len(paths))
	}
	want := []graph.NodeID{"A", "B", "C"}
	if !reflect.DeepEqual(ids(paths[0]), want) {
		t.Fatalf("unexpected path: %v", ids(paths[0]))
	}
	if paths[0].Source().ID != "A" || paths[0].Sink().ID != "C" {
		t.Fatalf("source/sink accessors wrong: %s -> %s", paths[0].Source().ID, paths[0].Sink().ID)
	}
}

func TestSanitizerBlocksEveryPath(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C")
	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"C"}, []graph.NodeID{"B"},
	)}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("sanitizer on the only route should block, got %v", paths)
	}
}

func TestDerivedEdgeBypassesSanitizer(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C")
	shortcut := rules.Func("shortcut", func(*graph.Graph) ([]graph.Edge, error) {
		return []graph.Edge{{From: "A", To: "C"}}, nil
	})
	a := New(Config{
		Classifier: idClassifier([]graph.NodeID{"A"}, []graph.NodeID{"C"}, []graph.NodeID{"B"}),
		Rules:      []rules.Rule{shortcut},
	}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one path over the derived edge, got %d", len(paths))
	}
	want := []graph.NodeID{"A", "C"}
	if !reflect.DeepEqual(ids(paths[0]), want) {
		t.Fatalf("derived edge should shortcut the path: %v", ids(paths[0]))
	}
}

func TestTwoSourcesOneSink(t *testing.T) {
	t.Parallel()

	g := graph.New()
	for _, id := range []graph.NodeID{"A1", "A2", "B", "C"} {
		if err := g.AddNode(graph.Node{ID: id, Kind: graph.KindLocal, Index: -1}); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	for _, e := range [][2]graph.NodeID{{"A1", "B"}, {"A2", "C"}, {"B", "C"}} {
		if err := g.AddEdge(e[0], e[1], graph.EdgeAssign); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}

	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A1", "A2"}, []graph.NodeID{"C"}, nil,
	)}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected one path per source, got %d", len(paths))
	}
	// Source order follows graph insertion order.
	if !reflect.DeepEqual(ids(paths[0]), []graph.NodeID{"A1", "B", "C"}) {
		t.Fatalf("unexpected first path: %v", ids(paths[0]))
	}
	if !reflect.DeepEqual(ids(paths[1]), []graph.NodeID{"A2", "C"}) {
		t.Fatalf("expected the second source's own shortest path: %v", ids(paths[1]))
	}
}

func TestShortestPathTieBrokenByInsertionOrder(t *testing.T) {
	t.Parallel()

	// Two equal-length routes A->B1->C and A->B2->C; the first-inserted
	// edge wins the predecessor slot.
	g := graph.New()
	for _, id := range []graph.NodeID{"A", "B1", "B2", "C"} {
		if err := g.AddNode(graph.Node{ID: id, Kind: graph.KindLocal, Index: -1}); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	for _, e := range [][2]graph.NodeID{{"A", "B1"}, {"A", "B2"}, {"B2", "C"}, {"B1", "C"}} {
		if err := g.AddEdge(e[0], e[1], graph.EdgeAssign); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}

	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"C"}, nil,
	)}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one path, got %d", len(paths))
	}
	// B1 is discovered before B2 (edge insertion order from A) and is
	// dequeued first, so C's first-discovered predecessor is B1.
	if !reflect.DeepEqual(ids(paths[0]), []graph.NodeID{"A", "B1", "C"}) {
		t.Fatalf("tie not broken by insertion order: %v", ids(paths[0]))
	}
}

func TestCyclicGraphTerminates(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C")
	if err := g.AddEdge("C", "A", graph.EdgeAssign); err != nil {
		t.Fatalf("add cycle edge: %v", err)
	}

	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"C"}, nil,
	)}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one path despite the cycle, got %d", len(paths))
	}
	seen := make(map[graph.NodeID]struct{})
	for _, id := range ids(paths[0]) {
		if _, dup := seen[id]; dup {
			t.Fatalf("path repeats node %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestFindPathsIsIdempotent(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C")
	cfg := Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"C"}, nil,
	)}

	first, err := New(cfg, nil).FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := New(cfg, nil).FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("run sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(ids(first[i]), ids(second[i])) {
			t.Fatalf("path %d differs between runs", i)
		}
	}
}

func TestSourceThatIsAlsoSinkYieldsSingleNodePath(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B")
	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"A"}, nil,
	)}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 || len(paths[0].Nodes) != 1 || paths[0].Nodes[0].ID != "A" {
		t.Fatalf("expected the single-node path [A], got %v", paths)
	}
}

func TestSourceThatIsSanitizerIsSkipped(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B")
	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"B"}, []graph.NodeID{"A"},
	)}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("sanitizer precedence should drop the source, got %v", paths)
	}
}

func TestNodeBudgetReturnsSentinel(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C", "D", "E")
	a := New(Config{
		Classifier: idClassifier([]graph.NodeID{"A"}, []graph.NodeID{"E"}, nil),
		MaxNodes:   2,
	}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("truncated run found no sink, got %v", paths)
	}
}

func TestDerivedEdgesDoNotOutliveTheRun(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C")
	fingerprint := g.Fingerprint()
	shortcut := rules.Func("shortcut", func(*graph.Graph) ([]graph.Edge, error) {
		return []graph.Edge{{From: "A", To: "C"}}, nil
	})

	withRule := New(Config{
		Classifier: idClassifier([]graph.NodeID{"A"}, []graph.NodeID{"C"}, []graph.NodeID{"B"}),
		Rules:      []rules.Rule{shortcut},
	}, nil)
	paths, err := withRule.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one path over the derived edge, got %d", len(paths))
	}

	if g.EdgeCount() != 2 {
		t.Fatalf("base edge count changed after a rule run: %d", g.EdgeCount())
	}
	if g.Fingerprint() != fingerprint {
		t.Fatal("graph fingerprint changed after a rule run")
	}

	// A rule-free config over the same graph must not see the shortcut:
	// its only route runs through the sanitizer.
	withoutRule := New(Config{
		Classifier: idClassifier([]graph.NodeID{"A"}, []graph.NodeID{"C"}, []graph.NodeID{"B"}),
	}, nil)
	paths, err = withoutRule.FindPaths(context.Background(), g)
	if err != nil {
		t.Fatalf("rule-free run: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("another config's derived edges leaked into this run: %v", paths)
	}
}

func TestContextCancellationAborts(t *testing.T) {
	t.Parallel()

	g := linearGraph(t, "A", "B", "C")
	a := New(Config{Classifier: idClassifier(
		[]graph.NodeID{"A"}, []graph.NodeID{"C"}, nil,
	)}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.FindPaths(ctx, g); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParallelBudgetKeepsSiblingResults(t *testing.T) {
	t.Parallel()

	// S1's traversal blows the budget on a long chain; S2 reaches the sink
	// well inside it. One source running out must not abort the others.
	g := graph.New()
	for _, id := range []graph.NodeID{"S1", "x1", "x2", "x3", "S2", "SINK"} {
		if err := g.AddNode(graph.Node{ID: id, Kind: graph.KindLocal, Index: -1}); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	for _, e := range [][2]graph.NodeID{{"S1", "x1"}, {"x1", "x2"}, {"x2", "x3"}, {"x3", "SINK"}, {"S2", "SINK"}} {
		if err := g.AddEdge(e[0], e[1], graph.EdgeAssign); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}

	a := New(Config{
		Classifier:  idClassifier([]graph.NodeID{"S1", "S2"}, []graph.NodeID{"SINK"}, nil),
		MaxNodes:    2,
		Parallelism: 4,
	}, nil)

	paths, err := a.FindPaths(context.Background(), g)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected the in-budget source's path to survive, got %v", paths)
	}
	if !reflect.DeepEqual(ids(paths[0]), []graph.NodeID{"S2", "SINK"}) {
		t.Fatalf("unexpected surviving path: %v", ids(paths[0]))
	}
}

func TestParallelSearchMatchesSerial(t *testing.T) {
	t.Parallel()

	build := func() *graph.Graph {
		g := graph.New()
		for _, id := range []graph.NodeID{"A1", "A2", "A3", "M", "C"} {
			if err := g.AddNode(graph.Node{ID: id, Kind: graph.KindLocal, Index: -1}); err != nil {
				t.Fatalf("add node: %v", err)
			}
		}
		for _, e := range [][2]graph.NodeID{{"A1", "M"}, {"A2", "M"}, {"A3", "M"}, {"M", "C"}} {
			if err := g.AddEdge(e[0], e[1], graph.EdgeAssign); err != nil {
				t.Fatalf("add edge: %v", err)
			}
		}
		return g
	}

	classifier := idClassifier([]graph.NodeID{"A1", "A2", "A3"}, []graph.NodeID{"C"}, nil)

	serial, err := New(Config{Classifier: classifier}, nil).FindPaths(context.Background(), build())
	if err != nil {
		t.Fatalf("serial run: %v", err)
	}
	parallel, err := New(Config{Classifier: classifier, Parallelism: 4}, nil).FindPaths(context.Background(), build())
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	if len(serial) != len(parallel) {
		t.Fatalf("result sizes differ: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if !reflect.DeepEqual(ids(serial[i]), ids(parallel[i])) {
			t.Fatalf("path %d differs: %v vs %v", i, ids(serial[i]), ids(parallel[i]))
		}
	}
}
