package graph

import (
	"strings"
	"testing"
)

const sampleDoc = `{
  "nodes": [
    {"id": "p0", "kind": "parameter", "name": "req", "loc": {"file": "handler.java", "start_line": 10}},
    {"id": "arg0", "kind": "call-argument", "call": "ScriptEngine.eval", "index": 1},
    {"id": "ret0", "kind": "call-return", "call": "Request.getParameter"}
  ],
  "edges": [
    {"from": "p0", "to": "ret0", "kind": "assign"},
    {"from": "ret0", "to": "arg0", "kind": "arg-bind"}
  ]
}`

func TestLoadBuildsGraphFromDocument(t *testing.T) {
	t.Parallel()

	g, err := Load(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if g.Len() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("unexpected graph size: %d nodes, %d edges", g.Len(), g.EdgeCount())
	}

	n, ok := g.Node("arg0")
	if !ok {
		t.Fatalf("missing node arg0")
	}
	if n.Kind != KindCallArgument || n.Call != "ScriptEngine.eval" || n.Index != 1 {
		t.Fatalf("node attributes not decoded: %+v", n)
	}

	// Index defaults to -1 when absent.
	p, _ := g.Node("p0")
	if p.Index != -1 {
		t.Fatalf("expected default index -1, got %d", p.Index)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing kind":  `{"nodes": [{"id": "a"}]}`,
		"unknown kind":  `{"nodes": [{"id": "a", "kind": "widget"}]}`,
		"empty node id": `{"nodes": [{"id": "", "kind": "local"}]}`,
		"derived edge": `{"nodes": [{"id": "a", "kind": "local"}, {"id": "b", "kind": "local"}],
			"edges": [{"from": "a", "to": "b", "kind": "derived"}]}`,
		"not an object": `[]`,
	}

	for name, doc := range cases {
		if _, err := Load(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadRejectsDanglingEdges(t *testing.T) {
	t.Parallel()

	doc := `{"nodes": [{"id": "a", "kind": "local"}],
		"edges": [{"from": "a", "to": "ghost", "kind": "assign"}]}`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected error for edge to unknown node")
	}
}

func TestLoadNormalisesUnicodeNames(t *testing.T) {
	t.Parallel()

	// U+00E9 composed vs e + U+0301 combining acute: same identifier after NFC.
	composed := `{"nodes": [{"id": "a", "kind": "local", "name": "café"}]}`
	decomposed := `{"nodes": [{"id": "a", "kind": "local", "name": "café"}]}`

	g1, err := Load(strings.NewReader(composed))
	if err != nil {
		t.Fatalf("load composed: %v", err)
	}
	g2, err := Load(strings.NewReader(decomposed))
	if err != nil {
		t.Fatalf("load decomposed: %v", err)
	}

	n1, _ := g1.Node("a")
	n2, _ := g2.Node("a")
	if n1.Name != n2.Name {
		t.Fatalf("names not normalised: %q vs %q", n1.Name, n2.Name)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	doc := `
nodes:
  - id: a
    kind: local
  - id: b
    kind: call-argument
    call: Runtime.exec
    index: 1
edges:
  - from: a
    to: b
    kind: assign
`
	g, err := LoadYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected yaml load error: %v", err)
	}
	if g.Len() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("unexpected graph size: %d nodes, %d edges", g.Len(), g.EdgeCount())
	}
}
