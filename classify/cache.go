package classify

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Cristalinsg/taintgraph/graph"
)

const defaultCacheSize = 4096

type classification uint8

const (
	clsSource classification = 1 << iota
	clsSink
	clsSanitizer
)

// Cached memoises a classifier per node. Classification is lazy: a node is
// evaluated the first time the engine asks about it and the three bits are
// kept together in one LRU entry. Classifiers are pure, so caching is safe
// for the lifetime of one graph snapshot; do not reuse a cached classifier
// across graphs.
func Cached(c Classifier, size int) Classifier {
	if size <= 0 {
		size = defaultCacheSize
	}
	// lru.New only fails on a non-positive size, which is ruled out above.
	cache, _ := lru.New[graph.NodeID, classification](size)
	return &cached{inner: c, cache: cache}
}

type cached struct {
	inner Classifier
	cache *lru.Cache[graph.NodeID, classification]
}

func (c *cached) classify(g *graph.Graph, n *graph.Node) classification {
	if cls, ok := c.cache.Get(n.ID); ok {
		return cls
	}
	var cls classification
	if c.inner.IsSource(g, n) {
		cls |= clsSource
	}
	if c.inner.IsSink(g, n) {
		cls |= clsSink
	}
	if c.inner.IsSanitizer(g, n) {
		cls |= clsSanitizer
	}
	c.cache.Add(n.ID, cls)
	return cls
}

func (c *cached) IsSource(g *graph.Graph, n *graph.Node) bool {
	return c.classify(g, n)&clsSource != 0
}

func (c *cached) IsSink(g *graph.Graph, n *graph.Node) bool {
	return c.classify(g, n)&clsSink != 0
}

func (c *cached) IsSanitizer(g *graph.Graph, n *graph.Node) bool {
	return c.classify(g, n)&clsSanitizer != 0
}
