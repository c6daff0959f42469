package rules

import (
	"github.com/Cristalinsg/taintgraph/classify"
	"github.com/Cristalinsg/taintgraph/graph"
)

// Call sites are not first-class in the graph; the convention front-ends
// follow is that argument and return nodes of one call site share the same
// Call string and Location. The builtin rules group nodes by that pair.

type callSiteKey struct {
	call string
	loc  graph.Location
}

type callSite struct {
	args map[int]*graph.Node
	ret  *graph.Node
}

func collectCallSites(g *graph.Graph, pattern string) map[callSiteKey]*callSite {
	m := classify.Matcher{Call: pattern}
	sites := make(map[callSiteKey]*callSite)
	for n := range g.All() {
		if n.Kind != graph.KindCallArgument && n.Kind != graph.KindCallReturn {
			continue
		}
		if !m.Matches(n) {
			continue
		}
		key := callSiteKey{call: n.Call, loc: n.Loc}
		site, ok := sites[key]
		if !ok {
			site = &callSite{args: make(map[int]*graph.Node)}
			sites[key] = site
		}
		switch n.Kind {
		case graph.KindCallArgument:
			site.args[n.Index] = n
		case graph.KindCallReturn:
			site.ret = n
		}
	}
	return sites
}

// Summary models a library function that propagates taint from one argument
// to its result: for every call site matching Callee, it derives an edge
// from argument FromArg to the call's return node.
type Summary struct {
	// RuleID overrides the default rule ID when set.
	RuleID string
	// Callee is the call pattern, e.g. "StringBuilder.append" or
	// "StringBuilder.*".
	Callee string
	// FromArg is the propagating argument position; 0 is the receiver.
	FromArg int
}

func (s Summary) ID() string {
	if s.RuleID != "" {
		return s.RuleID
	}
	return "summary:" + s.Callee
}

func (s Summary) Derive(g *graph.Graph) ([]graph.Edge, error) {
	var edges []graph.Edge
	for _, site := range collectCallSites(g, s.Callee) {
		arg, ok := site.args[s.FromArg]
		if !ok || site.ret == nil {
			continue
		}
		edges = append(edges, graph.Edge{From: arg.ID, To: site.ret.ID})
	}
	return edges, nil
}

// ReceiverChain models taint carried through an intermediate object across
// two calls: when the result of a call matching FromCallee reaches, over
// base edges, the receiver of a call matching ToCallee, the rule connects
// FromCallee's argument FromArg directly to that receiver. This is the
// classic "builder" summary: data appended into an object taints whatever
// the object is later fed to.
type ReceiverChain struct {
	RuleID     string
	FromCallee string
	FromArg    int
	ToCallee   string
}

func (r ReceiverChain) ID() string {
	if r.RuleID != "" {
		return r.RuleID
	}
	return "receiver-chain:" + r.FromCallee + "->" + r.ToCallee
}

func (r ReceiverChain) Derive(g *graph.Graph) ([]graph.Edge, error) {
	fromSites := collectCallSites(g, r.FromCallee)
	toSites := collectCallSites(g, r.ToCallee)
	if len(fromSites) == 0 || len(toSites) == 0 {
		return nil, nil
	}

	var edges []graph.Edge
	for _, from := range fromSites {
		arg, ok := from.args[r.FromArg]
		if !ok || from.ret == nil {
			continue
		}
		for _, to := range toSites {
			recv, ok := to.args[0]
			if !ok {
				continue
			}
			if reachesOverBaseEdges(g, from.ret.ID, recv.ID) {
				edges = append(edges, graph.Edge{From: arg.ID, To: recv.ID})
			}
		}
	}
	return edges, nil
}

// reachesOverBaseEdges walks the base graph only. Derived edges live in
// per-run overlays and never feed back into rule derivation, so the derived
// edge set stays a function of the base graph alone.
func reachesOverBaseEdges(g *graph.Graph, from, to graph.NodeID) bool {
	if from == to {
		return true
	}
	visited := map[graph.NodeID]struct{}{from: {}}
	queue := []graph.NodeID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range g.Neighbors(cur) {
			next := nb.Node.ID
			if next == to {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}
