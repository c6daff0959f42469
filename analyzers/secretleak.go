package analyzers

import (
	"github.com/Cristalinsg/taintgraph/classify"
	"github.com/Cristalinsg/taintgraph/rules"
	"github.com/Cristalinsg/taintgraph/taint"
)

// SecretLeak returns a configuration for detecting hardcoded credentials
// leaking into logs or serialised output. Sources are heuristic: literal
// nodes recognised by the credential classifier.
func SecretLeak() taint.Config {
	sinks := classify.Config{
		Sinks: []classify.Matcher{
			{Call: "Logger.*"},
			{Call: "PrintStream.println", Index: classify.Arg(1)},
			{Call: "ObjectMapper.writeValueAsString", Index: classify.Arg(1)},
			{Call: "Marshaller.marshal", Index: classify.Arg(1)},
		},
		Sanitizers: []classify.Matcher{
			{Call: "Redactor.redact"},
			{Call: "Secrets.mask"},
		},
	}.Classifier()

	return taint.Config{
		Info: taint.RuleInfo{
			ID:          "TG104",
			Description: "hardcoded credential flows into logging or serialization",
			Severity:    taint.Medium,
		},
		Classifier: classify.Union(
			classify.HardcodedCredentials(0),
			sinks,
		),
		Rules: []rules.Rule{
			rules.Summary{Callee: "StringBuilder.append", FromArg: 1},
			rules.Summary{Callee: "String.concat", FromArg: 1},
		},
	}
}
