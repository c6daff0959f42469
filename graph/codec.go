package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/unicode/norm"
)

// Graph documents are the interchange format between external front-ends and
// the engine: a flat list of nodes followed by a flat list of edges. JSON
// documents are validated against the embedded schema before decoding so a
// malformed extractor output fails loudly instead of producing a silently
// truncated graph.

const schemaURL = "taintgraph://graph.schema.json"

const graphSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "kind"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "kind": {"enum": ["parameter", "call-argument", "call-return", "field", "local"]},
          "loc": {
            "type": "object",
            "properties": {
              "file": {"type": "string"},
              "start_line": {"type": "integer", "minimum": 0},
              "end_line": {"type": "integer", "minimum": 0}
            }
          },
          "call": {"type": "string"},
          "index": {"type": "integer", "minimum": -1},
          "name": {"type": "string"},
          "literal": {"type": "string"}
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["from", "to", "kind"],
        "properties": {
          "from": {"type": "string", "minLength": 1},
          "to": {"type": "string", "minLength": 1},
          "kind": {"enum": ["assign", "arg-bind", "return-bind", "field-store", "field-load"]}
        }
      }
    }
  }
}`

type document struct {
	Nodes []docNode `json:"nodes" yaml:"nodes"`
	Edges []docEdge `json:"edges" yaml:"edges"`
}

type docNode struct {
	ID      string   `json:"id" yaml:"id"`
	Kind    string   `json:"kind" yaml:"kind"`
	Loc     Location `json:"loc" yaml:"loc"`
	Call    string   `json:"call" yaml:"call"`
	Index   *int     `json:"index" yaml:"index"`
	Name    string   `json:"name" yaml:"name"`
	Literal string   `json:"literal" yaml:"literal"`
}

type docEdge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Kind string `json:"kind" yaml:"kind"`
}

// Load reads a JSON graph document, validates it against the embedded schema
// and builds the graph. Node and edge order in the document becomes the
// graph's insertion order.
func Load(r io.Reader) (*Graph, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("graph: read document: %w", err)
	}

	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("graph: decode document: %w", err)
	}
	return doc.build()
}

// LoadYAML reads a YAML graph document. YAML documents skip schema
// validation and rely on strict decoding plus the graph's own invariants.
func LoadYAML(r io.Reader) (*Graph, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("graph: decode yaml document: %w", err)
	}
	return doc.build()
}

func validateDocument(raw []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(graphSchema))
	if err != nil {
		return fmt.Errorf("graph: parse embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return fmt.Errorf("graph: register schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("graph: compile schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("graph: parse document: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("graph: invalid document: %w", err)
	}
	return nil
}

func (d *document) build() (*Graph, error) {
	g := New()
	for _, dn := range d.Nodes {
		kind, err := ParseNodeKind(dn.Kind)
		if err != nil {
			return nil, err
		}
		idx := -1
		if dn.Index != nil {
			idx = *dn.Index
		}
		n := Node{
			ID:   NodeID(dn.ID),
			Kind: kind,
			Loc:  dn.Loc,
			// Front-ends disagree on Unicode forms for identifiers
			// extracted from source; normalise so identity is stable.
			Call:    norm.NFC.String(dn.Call),
			Index:   idx,
			Name:    norm.NFC.String(dn.Name),
			Literal: norm.NFC.String(dn.Literal),
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, de := range d.Edges {
		kind, err := ParseEdgeKind(de.Kind)
		if err != nil {
			return nil, err
		}
		if err := g.AddEdge(NodeID(de.From), NodeID(de.To), kind); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ParseNodeKind maps a document kind string to its NodeKind.
func ParseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "parameter":
		return KindParameter, nil
	case "call-argument":
		return KindCallArgument, nil
	case "call-return":
		return KindCallReturn, nil
	case "field":
		return KindField, nil
	case "local":
		return KindLocal, nil
	default:
		return 0, fmt.Errorf("graph: unknown node kind %q", s)
	}
}

// ParseEdgeKind maps a document kind string to its EdgeKind. Derived edges
// are never part of a document; they only exist inside one analysis run.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch s {
	case "assign":
		return EdgeAssign, nil
	case "arg-bind":
		return EdgeArgBind, nil
	case "return-bind":
		return EdgeReturnBind, nil
	case "field-store":
		return EdgeFieldStore, nil
	case "field-load":
		return EdgeFieldLoad, nil
	default:
		return 0, fmt.Errorf("graph: unknown edge kind %q", s)
	}
}
