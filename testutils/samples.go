// Package testutils provides sample program graphs with known expected
// findings, used by the analyzer and orchestrator tests.
package testutils

import (
	"strings"

	"github.com/Cristalinsg/taintgraph/graph"
)

// GraphSample is a graph document paired with the analyzer configuration it
// exercises and the number of findings that configuration must produce.
type GraphSample struct {
	Name     string
	Analyzer string
	Doc      string
	Findings int
}

// Load parses the sample's graph document.
func (s GraphSample) Load() (*graph.Graph, error) {
	return graph.Load(strings.NewReader(s.Doc))
}

// CodeInjectionSamples exercise the code-injection configuration.
var CodeInjectionSamples = []GraphSample{
	{
		Name:     "request parameter reaches eval",
		Analyzer: "code-injection",
		Findings: 1,
		Doc: `{
  "nodes": [
    {"id": "src", "kind": "call-return", "call": "Request.getParameter",
     "loc": {"file": "Handler.java", "start_line": 12}},
    {"id": "script", "kind": "local", "name": "script",
     "loc": {"file": "Handler.java", "start_line": 13}},
    {"id": "sink", "kind": "call-argument", "call": "ScriptEngine.eval", "index": 1,
     "loc": {"file": "Handler.java", "start_line": 14}}
  ],
  "edges": [
    {"from": "src", "to": "script", "kind": "assign"},
    {"from": "script", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
	{
		Name:     "encoder sanitizes the flow",
		Analyzer: "code-injection",
		Findings: 0,
		Doc: `{
  "nodes": [
    {"id": "src", "kind": "call-return", "call": "Request.getParameter",
     "loc": {"file": "Handler.java", "start_line": 12}},
    {"id": "enc", "kind": "call-return", "call": "Encoder.forJavaScript",
     "loc": {"file": "Handler.java", "start_line": 13}},
    {"id": "sink", "kind": "call-argument", "call": "ScriptEngine.eval", "index": 1,
     "loc": {"file": "Handler.java", "start_line": 14}}
  ],
  "edges": [
    {"from": "src", "to": "enc", "kind": "assign"},
    {"from": "enc", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
	{
		Name:     "flow only exists through the append summary",
		Analyzer: "code-injection",
		Findings: 1,
		Doc: `{
  "nodes": [
    {"id": "src", "kind": "call-return", "call": "Request.getParameter",
     "loc": {"file": "Handler.java", "start_line": 20}},
    {"id": "append-arg", "kind": "call-argument", "call": "StringBuilder.append", "index": 1,
     "loc": {"file": "Handler.java", "start_line": 21}},
    {"id": "append-ret", "kind": "call-return", "call": "StringBuilder.append",
     "loc": {"file": "Handler.java", "start_line": 21}},
    {"id": "sink", "kind": "call-argument", "call": "ScriptEngine.eval", "index": 1,
     "loc": {"file": "Handler.java", "start_line": 22}}
  ],
  "edges": [
    {"from": "src", "to": "append-arg", "kind": "arg-bind"},
    {"from": "append-ret", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
}

// PathTraversalSamples exercise the path-traversal configuration.
var PathTraversalSamples = []GraphSample{
	{
		Name:     "request path reaches file constructor",
		Analyzer: "path-traversal",
		Findings: 1,
		Doc: `{
  "nodes": [
    {"id": "src", "kind": "call-return", "call": "Request.getPathInfo",
     "loc": {"file": "Download.java", "start_line": 30}},
    {"id": "sink", "kind": "call-argument", "call": "FileInputStream.new", "index": 1,
     "loc": {"file": "Download.java", "start_line": 31}}
  ],
  "edges": [
    {"from": "src", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
	{
		Name:     "normalized path is safe",
		Analyzer: "path-traversal",
		Findings: 0,
		Doc: `{
  "nodes": [
    {"id": "src", "kind": "call-return", "call": "Request.getPathInfo",
     "loc": {"file": "Download.java", "start_line": 30}},
    {"id": "norm", "kind": "call-return", "call": "Path.normalize",
     "loc": {"file": "Download.java", "start_line": 31}},
    {"id": "sink", "kind": "call-argument", "call": "FileInputStream.new", "index": 1,
     "loc": {"file": "Download.java", "start_line": 32}}
  ],
  "edges": [
    {"from": "src", "to": "norm", "kind": "assign"},
    {"from": "norm", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
}

// LogForgingSamples exercise the log-forging configuration.
var LogForgingSamples = []GraphSample{
	{
		Name:     "header reaches logger",
		Analyzer: "log-forging",
		Findings: 1,
		Doc: `{
  "nodes": [
    {"id": "src", "kind": "call-return", "call": "Request.getHeader",
     "loc": {"file": "Audit.java", "start_line": 8}},
    {"id": "sink", "kind": "call-argument", "call": "Logger.info", "index": 1,
     "loc": {"file": "Audit.java", "start_line": 9}}
  ],
  "edges": [
    {"from": "src", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
}

// SecretLeakSamples exercise the secret-leak configuration.
var SecretLeakSamples = []GraphSample{
	{
		Name:     "named credential literal reaches logger",
		Analyzer: "secret-leak",
		Findings: 1,
		Doc: `{
  "nodes": [
    {"id": "lit", "kind": "local", "name": "dbPassword", "literal": "hunter2",
     "loc": {"file": "Config.java", "start_line": 4}},
    {"id": "sink", "kind": "call-argument", "call": "Logger.info", "index": 1,
     "loc": {"file": "Config.java", "start_line": 5}}
  ],
  "edges": [
    {"from": "lit", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
	{
		Name:     "masked secret is safe",
		Analyzer: "secret-leak",
		Findings: 0,
		Doc: `{
  "nodes": [
    {"id": "lit", "kind": "local", "name": "apiKey", "literal": "hunter2",
     "loc": {"file": "Config.java", "start_line": 4}},
    {"id": "mask", "kind": "call-return", "call": "Secrets.mask",
     "loc": {"file": "Config.java", "start_line": 5}},
    {"id": "sink", "kind": "call-argument", "call": "Logger.info", "index": 1,
     "loc": {"file": "Config.java", "start_line": 6}}
  ],
  "edges": [
    {"from": "lit", "to": "mask", "kind": "assign"},
    {"from": "mask", "to": "sink", "kind": "arg-bind"}
  ]
}`,
	},
}

// All returns every sample grouped in one slice.
func All() []GraphSample {
	var all []GraphSample
	all = append(all, CodeInjectionSamples...)
	all = append(all, PathTraversalSamples...)
	all = append(all, LogForgingSamples...)
	all = append(all, SecretLeakSamples...)
	return all
}
