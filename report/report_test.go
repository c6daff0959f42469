package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Cristalinsg/taintgraph/graph"
	"github.com/Cristalinsg/taintgraph/taint"
)

func node(id graph.NodeID, file string, line int) *graph.Node {
	return &graph.Node{
		ID:    id,
		Kind:  graph.KindLocal,
		Index: -1,
		Loc:   graph.Location{File: file, StartLine: line},
	}
}

func pathOf(nodes ...*graph.Node) taint.Path {
	return taint.Path{Nodes: nodes}
}

func TestNewDeduplicatesBySourceSinkPair(t *testing.T) {
	t.Parallel()

	a := node("a", "app.java", 1)
	b := node("b", "app.java", 2)
	c := node("c", "app.java", 3)

	// Same (a, c) pair twice; the first (shortest) path must win.
	paths := []taint.Path{
		pathOf(a, c),
		pathOf(a, b, c),
	}
	info := taint.RuleInfo{ID: "TG001", Description: "test rule", Severity: taint.High}

	findings := New(paths, info)
	require.Len(t, findings, 1)
	require.Equal(t, "TG001", findings[0].RuleID)
	require.Len(t, findings[0].Path, 2)
	require.NotEmpty(t, findings[0].ID)
}

func TestNewKeepsDistinctPairs(t *testing.T) {
	t.Parallel()

	a1 := node("a1", "app.java", 1)
	a2 := node("a2", "app.java", 2)
	c := node("c", "app.java", 9)

	findings := New([]taint.Path{pathOf(a1, c), pathOf(a2, c)},
		taint.RuleInfo{ID: "TG001", Severity: taint.Medium})
	require.Len(t, findings, 2)
}

func TestMergeOrdersBySeverity(t *testing.T) {
	t.Parallel()

	low := New([]taint.Path{pathOf(node("a", "z.java", 1), node("b", "z.java", 2))},
		taint.RuleInfo{ID: "LOW1", Severity: taint.Low})
	high := New([]taint.Path{pathOf(node("c", "a.java", 1), node("d", "a.java", 2))},
		taint.RuleInfo{ID: "HIGH1", Severity: taint.High})

	merged := Merge(low, high)
	require.Len(t, merged, 2)
	require.Equal(t, "HIGH1", merged[0].RuleID)
	require.Equal(t, "LOW1", merged[1].RuleID)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	t.Parallel()

	findings := New([]taint.Path{pathOf(node("a", "app.java", 1), node("b", "app.java", 2))},
		taint.RuleInfo{ID: "TG001", Description: "injection", Severity: taint.High})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, findings))

	var decoded []Finding
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "TG001", decoded[0].RuleID)
	require.Equal(t, graph.NodeID("a"), decoded[0].Source.ID)
}

func TestWriteJSONUsesDocumentKindStrings(t *testing.T) {
	t.Parallel()

	src := node("a", "app.java", 1)
	src.Kind = graph.KindCallReturn
	snk := node("b", "app.java", 2)
	snk.Kind = graph.KindCallArgument
	findings := New([]taint.Path{pathOf(src, snk)},
		taint.RuleInfo{ID: "TG001", Severity: taint.High})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, findings))
	require.Contains(t, buf.String(), `"call-return"`)
	require.Contains(t, buf.String(), `"call-argument"`)

	var decoded []Finding
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, graph.KindCallReturn, decoded[0].Source.Kind)
	require.Equal(t, graph.KindCallArgument, decoded[0].Sink.Kind)
}

func TestWriteTextListsPathAndSummary(t *testing.T) {
	t.Parallel()

	findings := New([]taint.Path{pathOf(node("src", "app.java", 1), node("mid", "app.java", 2), node("snk", "app.java", 3))},
		taint.RuleInfo{ID: "TG001", Description: "injection", Severity: taint.High})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, findings))

	out := buf.String()
	for _, want := range []string{"TG001", "src", "mid", "snk", "1 finding(s)"} {
		require.Contains(t, out, want)
	}
}

func TestWriteTextEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, nil))
	require.Contains(t, buf.String(), "No taint flows found")
}

func TestWriteSarifShape(t *testing.T) {
	t.Parallel()

	findings := New([]taint.Path{pathOf(node("a", "app.java", 10), node("b", "app.java", 20))},
		taint.RuleInfo{ID: "TG001", Description: "injection", Severity: taint.High})

	var buf bytes.Buffer
	require.NoError(t, WriteSarif(&buf, findings))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, "2.1.0", doc["version"])

	runs, ok := doc["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
	require.Contains(t, buf.String(), "app.java")
	require.Contains(t, buf.String(), "TG001")
}

func TestWriteUnknownFormat(t *testing.T) {
	t.Parallel()

	err := Write(&bytes.Buffer{}, Format("xml"), nil)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unknown format"))
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	findings := New([]taint.Path{pathOf(node("a", "app.java", 1), node("b", "app.java", 2))},
		taint.RuleInfo{ID: "TG001", Severity: taint.Low})

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, findings))
	require.Contains(t, buf.String(), "rule_id: TG001")
}
