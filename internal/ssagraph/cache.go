package ssagraph

import (
	"sync"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/ssa"
)

// Cache stores expensive SSA-derived artifacts shared by repeated
// extractions over the same program.
type Cache struct {
	prog *ssa.Program

	callGraphOnce sync.Once
	callGraph     *callgraph.Graph
}

// NewCache builds a cache for one SSA program.
func NewCache(prog *ssa.Program) *Cache {
	return &Cache{prog: prog}
}

// CallGraph returns a lazily initialized CHA call graph for the program.
// CHA is fast and sound but may over-approximate callees; the extractor
// only uses it to bind arguments of dynamic calls. Safe for concurrent use.
func (c *Cache) CallGraph() *callgraph.Graph {
	if c == nil {
		return nil
	}
	c.callGraphOnce.Do(func() {
		if c.prog == nil {
			return
		}
		c.callGraph = cha.CallGraph(c.prog)
	})
	return c.callGraph
}
