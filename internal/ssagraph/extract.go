// Package ssagraph lowers Go SSA form into the program graph consumed by
// the taint engine. It covers the value-flow instructions that matter for
// taint propagation (assignments, calls, field stores and loads) and leaves
// control flow behind: the engine reasons about data reachability only.
package ssagraph

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"

	"github.com/Cristalinsg/taintgraph/graph"
)

// Extractor accumulates nodes and edges for one program graph. It is not
// safe for concurrent use; extract each function set on a single goroutine.
type Extractor struct {
	cache *Cache
	fset  *token.FileSet

	g   *graph.Graph
	ids map[ssa.Value]graph.NodeID
}

// NewExtractor builds an extractor over the given SSA program. The cache
// may be shared across extractors for the same program.
func NewExtractor(prog *ssa.Program, cache *Cache) *Extractor {
	return &Extractor{
		cache: cache,
		fset:  prog.Fset,
		g:     graph.New(),
		ids:   make(map[ssa.Value]graph.NodeID),
	}
}

// Extract lowers the given functions, and every anonymous function nested
// inside them, into a single program graph.
func Extract(prog *ssa.Program, cache *Cache, fns ...*ssa.Function) (*graph.Graph, error) {
	ex := NewExtractor(prog, cache)
	for _, fn := range fns {
		if err := ex.Function(fn); err != nil {
			return nil, err
		}
	}
	return ex.Graph(), nil
}

// Graph returns the graph built so far.
func (ex *Extractor) Graph() *graph.Graph {
	return ex.g
}

// Function lowers one function body. Functions without blocks (external or
// intrinsic) contribute nothing; their effect is modelled at call sites.
func (ex *Extractor) Function(fn *ssa.Function) error {
	if fn == nil || len(fn.Blocks) == 0 {
		return nil
	}
	for _, p := range fn.Params {
		if _, err := ex.valueNode(fn, p); err != nil {
			return err
		}
	}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			if err := ex.instruction(fn, instr); err != nil {
				return err
			}
		}
	}
	for _, anon := range fn.AnonFuncs {
		if err := ex.Function(anon); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Extractor) instruction(fn *ssa.Function, instr ssa.Instruction) error {
	switch v := instr.(type) {
	case *ssa.Call:
		return ex.call(fn, v)

	case *ssa.Store:
		return ex.store(fn, v)

	case *ssa.UnOp:
		if v.Op == token.MUL {
			return ex.load(fn, v)
		}
		return ex.flow(fn, v, v.X)

	case *ssa.BinOp:
		return ex.flow(fn, v, v.X, v.Y)

	case *ssa.Phi:
		return ex.flow(fn, v, v.Edges...)

	case *ssa.Extract:
		return ex.flow(fn, v, v.Tuple)

	case *ssa.Convert:
		return ex.flow(fn, v, v.X)

	case *ssa.ChangeType:
		return ex.flow(fn, v, v.X)

	case *ssa.ChangeInterface:
		return ex.flow(fn, v, v.X)

	case *ssa.MakeInterface:
		return ex.flow(fn, v, v.X)

	case *ssa.TypeAssert:
		return ex.flow(fn, v, v.X)

	case *ssa.Slice:
		return ex.flow(fn, v, v.X)

	case *ssa.Lookup:
		return ex.flow(fn, v, v.X)

	case *ssa.Index:
		return ex.flow(fn, v, v.X)

	case *ssa.IndexAddr:
		return ex.flow(fn, v, v.X)
	}
	return nil
}

// flow records plain value propagation from each operand into the result.
func (ex *Extractor) flow(fn *ssa.Function, to ssa.Value, from ...ssa.Value) error {
	dst, err := ex.valueNode(fn, to)
	if err != nil {
		return err
	}
	for _, src := range from {
		if src == nil {
			continue
		}
		id, err := ex.valueNode(fn, src)
		if err != nil {
			return err
		}
		if err := ex.edge(id, dst, graph.EdgeAssign); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Extractor) store(fn *ssa.Function, st *ssa.Store) error {
	fa, ok := st.Addr.(*ssa.FieldAddr)
	if !ok {
		// Non-field stores collapse into the address value.
		return ex.flow(fn, st.Addr, st.Val)
	}
	field, err := ex.fieldNode(fn, fa)
	if err != nil {
		return err
	}
	val, err := ex.valueNode(fn, st.Val)
	if err != nil {
		return err
	}
	return ex.edge(val, field, graph.EdgeFieldStore)
}

func (ex *Extractor) load(fn *ssa.Function, ld *ssa.UnOp) error {
	fa, ok := ld.X.(*ssa.FieldAddr)
	if !ok {
		return ex.flow(fn, ld, ld.X)
	}
	field, err := ex.fieldNode(fn, fa)
	if err != nil {
		return err
	}
	dst, err := ex.valueNode(fn, ld)
	if err != nil {
		return err
	}
	return ex.edge(field, dst, graph.EdgeFieldLoad)
}

// call lowers one call site: argument nodes bind operands, a return node
// stands for the result, and callees with bodies get their parameters bound.
// Bodiless callees fall back to the conservative arg-to-return summary.
func (ex *Extractor) call(fn *ssa.Function, c *ssa.Call) error {
	callee := calleeName(c.Common())
	retID, err := ex.valueNode(fn, c)
	if err != nil {
		return err
	}
	loc := ex.location(c.Pos())

	operands := callOperands(c.Common())
	targets := ex.callees(fn, c)
	for i, op := range operands {
		argID := graph.NodeID(fmt.Sprintf("%s.arg%d", retID, i))
		if err := ex.g.AddNode(graph.Node{
			ID:    argID,
			Kind:  graph.KindCallArgument,
			Loc:   loc,
			Call:  callee,
			Index: i,
		}); err != nil {
			return err
		}
		src, err := ex.valueNode(fn, op)
		if err != nil {
			return err
		}
		if err := ex.edge(src, argID, graph.EdgeArgBind); err != nil {
			return err
		}
		bound := false
		for _, target := range targets {
			if i >= len(target.Params) {
				continue
			}
			param, err := ex.valueNode(target, target.Params[i])
			if err != nil {
				return err
			}
			if err := ex.edge(argID, param, graph.EdgeArgBind); err != nil {
				return err
			}
			bound = true
		}
		if !bound {
			if err := ex.edge(argID, retID, graph.EdgeReturnBind); err != nil {
				return err
			}
		}
	}
	for _, target := range targets {
		if err := ex.bindReturns(target, retID); err != nil {
			return err
		}
	}
	return nil
}

// bindReturns connects every value returned by a resolved callee to the
// call site's return node.
func (ex *Extractor) bindReturns(target *ssa.Function, retID graph.NodeID) error {
	for _, block := range target.Blocks {
		for _, instr := range block.Instrs {
			ret, ok := instr.(*ssa.Return)
			if !ok {
				continue
			}
			for _, res := range ret.Results {
				src, err := ex.valueNode(target, res)
				if err != nil {
					return err
				}
				if err := ex.edge(src, retID, graph.EdgeReturnBind); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// callees resolves a call site to function bodies. Static callees resolve
// directly; dynamic and interface calls go through the CHA call graph.
func (ex *Extractor) callees(fn *ssa.Function, c *ssa.Call) []*ssa.Function {
	if static := c.Common().StaticCallee(); static != nil {
		if len(static.Blocks) == 0 {
			return nil
		}
		return []*ssa.Function{static}
	}
	cg := ex.cache.CallGraph()
	if cg == nil || fn == nil {
		return nil
	}
	node := cg.Nodes[fn]
	if node == nil {
		return nil
	}
	var out []*ssa.Function
	for _, e := range node.Out {
		if e.Site != ssa.CallInstruction(c) {
			continue
		}
		if callee := calleeFunc(e); callee != nil && len(callee.Blocks) > 0 {
			out = append(out, callee)
		}
	}
	return out
}

func calleeFunc(e *callgraph.Edge) *ssa.Function {
	if e == nil || e.Callee == nil {
		return nil
	}
	return e.Callee.Func
}

func (ex *Extractor) valueNode(fn *ssa.Function, v ssa.Value) (graph.NodeID, error) {
	if id, ok := ex.ids[v]; ok {
		return id, nil
	}
	node := graph.Node{
		ID:    graph.NodeID(fmt.Sprintf("%s.%s", fn.String(), v.Name())),
		Kind:  graph.KindLocal,
		Loc:   ex.location(v.Pos()),
		Index: -1,
		Name:  v.Name(),
	}
	switch v := v.(type) {
	case *ssa.Call:
		node.Kind = graph.KindCallReturn
		node.Call = calleeName(v.Common())
		node.Name = ""
	case *ssa.Parameter:
		node.Kind = graph.KindParameter
		node.Call = fn.String()
		for i, p := range fn.Params {
			if p == v {
				node.Index = i
			}
		}
	case *ssa.Const:
		if v.Value != nil {
			node.Literal = v.Value.ExactString()
		}
	case *ssa.Global:
		node.ID = graph.NodeID(v.String())
		node.Name = v.Name()
	}
	if err := ex.g.AddNode(node); err != nil {
		return "", err
	}
	ex.ids[v] = node.ID
	return node.ID, nil
}

// fieldNode names a struct field by its base value and field index, so
// stores and loads through distinct FieldAddr instructions meet on one node.
func (ex *Extractor) fieldNode(fn *ssa.Function, fa *ssa.FieldAddr) (graph.NodeID, error) {
	base, err := ex.valueNode(fn, fa.X)
	if err != nil {
		return "", err
	}
	id := graph.NodeID(fmt.Sprintf("%s.f%d", base, fa.Field))
	if _, ok := ex.g.Node(id); ok {
		return id, nil
	}
	if err := ex.g.AddNode(graph.Node{
		ID:    id,
		Kind:  graph.KindField,
		Loc:   ex.location(fa.Pos()),
		Index: fa.Field,
		Name:  fieldName(fa),
	}); err != nil {
		return "", err
	}
	return id, nil
}

// edge tolerates re-binding the same flow; SSA walks revisit values freely.
func (ex *Extractor) edge(from, to graph.NodeID, kind graph.EdgeKind) error {
	err := ex.g.AddEdge(from, to, kind)
	var dup *graph.DuplicateEdgeError
	if errors.As(err, &dup) {
		return nil
	}
	return err
}

func (ex *Extractor) location(pos token.Pos) graph.Location {
	if !pos.IsValid() {
		return graph.Location{}
	}
	p := ex.fset.Position(pos)
	return graph.Location{File: p.Filename, StartLine: p.Line, EndLine: p.Line}
}

// callOperands lists the data-carrying operands of a call: the receiver of
// an invoke-mode call at position zero, then the plain arguments.
func callOperands(common *ssa.CallCommon) []ssa.Value {
	if common.IsInvoke() {
		out := make([]ssa.Value, 0, len(common.Args)+1)
		out = append(out, common.Value)
		return append(out, common.Args...)
	}
	return common.Args
}

func calleeName(common *ssa.CallCommon) string {
	if common.IsInvoke() {
		recv := common.Value.Type()
		if named, ok := recv.(*types.Named); ok {
			return named.Obj().Name() + "." + common.Method.Name()
		}
		return common.Method.Name()
	}
	if static := common.StaticCallee(); static != nil {
		return static.String()
	}
	return common.Value.Name()
}

func fieldName(fa *ssa.FieldAddr) string {
	t := fa.X.Type()
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if st, ok := t.Underlying().(*types.Struct); ok && fa.Field < st.NumFields() {
		return st.Field(fa.Field).Name()
	}
	return ""
}

