package analyzers

import (
	"github.com/Cristalinsg/taintgraph/classify"
	"github.com/Cristalinsg/taintgraph/rules"
	"github.com/Cristalinsg/taintgraph/taint"
)

// PathTraversal returns a configuration for detecting untrusted data used
// as a filesystem path.
func PathTraversal() taint.Config {
	return taint.Config{
		Info: taint.RuleInfo{
			ID:          "TG102",
			Description: "untrusted input flows into a filesystem path",
			Severity:    taint.High,
		},
		Classifier: classify.Config{
			Sources: []classify.Matcher{
				{Call: "Request.getParameter"},
				{Call: "Request.getHeader"},
				{Call: "Request.getPathInfo"},
				{Call: "Environment.get"},
			},
			Sinks: []classify.Matcher{
				// Constructor-style and open-style path consumers.
				{Call: "File.new", Index: classify.Arg(1)},
				{Call: "FileInputStream.new", Index: classify.Arg(1)},
				{Call: "FileOutputStream.new", Index: classify.Arg(1)},
				{Call: "Paths.get"},
				{Call: "Files.*"},
			},
			Sanitizers: []classify.Matcher{
				// Canonicalisation plus containment checks.
				{Call: "File.getCanonicalPath"},
				{Call: "Path.normalize"},
				{Call: "FilenameUtils.getName"},
			},
		}.Classifier(),
		Rules: []rules.Rule{
			rules.Summary{Callee: "StringBuilder.append", FromArg: 1},
			rules.Summary{Callee: "String.concat", FromArg: 1},
			rules.Summary{Callee: "Paths.get", FromArg: 1},
		},
	}
}
