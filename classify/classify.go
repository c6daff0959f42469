// Package classify decides which graph nodes are taint sources, sinks and
// sanitizers. Classification is pluggable: a vulnerability rule swaps in its
// own Classifier while the search engine stays unchanged.
package classify

import (
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/Cristalinsg/taintgraph/graph"
)

// Classifier is the capability set the search engine consumes. All three
// predicates must be pure functions of the node and, optionally, the
// surrounding graph.
type Classifier interface {
	IsSource(g *graph.Graph, n *graph.Node) bool
	IsSink(g *graph.Graph, n *graph.Node) bool
	IsSanitizer(g *graph.Graph, n *graph.Node) bool
}

// Matcher matches nodes by their attributes. Zero-valued fields are
// wildcards. Call supports a ".*" suffix to match every member of a type,
// e.g. "ScriptEngine.*".
type Matcher struct {
	// Kind restricts the node kind. Nil matches any kind.
	Kind *graph.NodeKind
	// Call matches the qualified callee of argument/return nodes.
	Call string
	// Index restricts the argument position. Nil matches any position;
	// position 0 is the receiver for method calls.
	Index *int
	// Name matches the identifier or field name.
	Name string
}

// KindOf returns a pointer suitable for Matcher.Kind.
func KindOf(k graph.NodeKind) *graph.NodeKind { return &k }

// Arg returns a pointer suitable for Matcher.Index.
func Arg(i int) *int { return &i }

// Matches reports whether the node satisfies every restriction.
func (m Matcher) Matches(n *graph.Node) bool {
	if m.Kind != nil && n.Kind != *m.Kind {
		return false
	}
	if m.Call != "" && !callMatches(m.Call, n.Call) {
		return false
	}
	if m.Index != nil && n.Index != *m.Index {
		return false
	}
	if m.Name != "" && n.Name != m.Name {
		return false
	}
	return true
}

func callMatches(pattern, call string) bool {
	if call == "" {
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		rest, found := strings.CutPrefix(call, prefix+".")
		return found && rest != "" && !strings.Contains(rest, ".")
	}
	return pattern == call
}

// Config is the declarative form of a classifier: three matcher lists, one
// per capability. Matchers within a list are OR-ed.
type Config struct {
	Sources    []Matcher
	Sinks      []Matcher
	Sanitizers []Matcher
}

// Classifier compiles the config into a Classifier.
func (c Config) Classifier() Classifier {
	return &listClassifier{
		sources:    c.Sources,
		sinks:      c.Sinks,
		sanitizers: c.Sanitizers,
	}
}

type listClassifier struct {
	sources    []Matcher
	sinks      []Matcher
	sanitizers []Matcher
}

func anyMatch(ms []Matcher, n *graph.Node) bool {
	for _, m := range ms {
		if m.Matches(n) {
			return true
		}
	}
	return false
}

func (c *listClassifier) IsSource(_ *graph.Graph, n *graph.Node) bool {
	return anyMatch(c.sources, n)
}

func (c *listClassifier) IsSink(_ *graph.Graph, n *graph.Node) bool {
	return anyMatch(c.sinks, n)
}

func (c *listClassifier) IsSanitizer(_ *graph.Graph, n *graph.Node) bool {
	return anyMatch(c.sanitizers, n)
}

// Funcs adapts three plain predicates into a Classifier. Nil members never
// match. Analysis configurations are code, so this is the escape hatch for
// predicates that need the whole graph.
type Funcs struct {
	Source    func(g *graph.Graph, n *graph.Node) bool
	Sink      func(g *graph.Graph, n *graph.Node) bool
	Sanitizer func(g *graph.Graph, n *graph.Node) bool
}

func (f Funcs) IsSource(g *graph.Graph, n *graph.Node) bool {
	return f.Source != nil && f.Source(g, n)
}

func (f Funcs) IsSink(g *graph.Graph, n *graph.Node) bool {
	return f.Sink != nil && f.Sink(g, n)
}

func (f Funcs) IsSanitizer(g *graph.Graph, n *graph.Node) bool {
	return f.Sanitizer != nil && f.Sanitizer(g, n)
}

// Union combines classifiers; each capability matches when any member does.
func Union(cs ...Classifier) Classifier { return union(cs) }

type union []Classifier

func (u union) IsSource(g *graph.Graph, n *graph.Node) bool {
	for _, c := range u {
		if c.IsSource(g, n) {
			return true
		}
	}
	return false
}

func (u union) IsSink(g *graph.Graph, n *graph.Node) bool {
	for _, c := range u {
		if c.IsSink(g, n) {
			return true
		}
	}
	return false
}

func (u union) IsSanitizer(g *graph.Graph, n *graph.Node) bool {
	for _, c := range u {
		if c.IsSanitizer(g, n) {
			return true
		}
	}
	return false
}

// Resolve wraps a classifier with the ambiguity policy: a node that is both
// source and sanitizer stays a sanitizer and is dropped as a source, with a
// warning logged once per node. The run does not fail.
func Resolve(c Classifier, logger hclog.Logger) Classifier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &resolved{inner: c, logger: logger, warned: make(map[graph.NodeID]struct{})}
}

type resolved struct {
	inner  Classifier
	logger hclog.Logger

	mu     sync.Mutex // search may classify from concurrent traversals
	warned map[graph.NodeID]struct{}
}

func (r *resolved) IsSource(g *graph.Graph, n *graph.Node) bool {
	if !r.inner.IsSource(g, n) {
		return false
	}
	if r.inner.IsSanitizer(g, n) {
		r.mu.Lock()
		if _, ok := r.warned[n.ID]; !ok {
			r.warned[n.ID] = struct{}{}
			r.logger.Warn("node classified as both source and sanitizer, sanitizer wins",
				"node", string(n.ID), "loc", n.Loc.String())
		}
		r.mu.Unlock()
		return false
	}
	return true
}

func (r *resolved) IsSink(g *graph.Graph, n *graph.Node) bool {
	return r.inner.IsSink(g, n)
}

func (r *resolved) IsSanitizer(g *graph.Graph, n *graph.Node) bool {
	return r.inner.IsSanitizer(g, n)
}
