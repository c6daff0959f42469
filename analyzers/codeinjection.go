package analyzers

import (
	"github.com/Cristalinsg/taintgraph/classify"
	"github.com/Cristalinsg/taintgraph/graph"
	"github.com/Cristalinsg/taintgraph/rules"
	"github.com/Cristalinsg/taintgraph/taint"
)

// CodeInjection returns a configuration for detecting untrusted data
// reaching a dynamic code-evaluation API.
func CodeInjection() taint.Config {
	return taint.Config{
		Info: taint.RuleInfo{
			ID:          "TG101",
			Description: "untrusted input flows into dynamic code evaluation",
			Severity:    taint.High,
		},
		Classifier: classify.Config{
			Sources: []classify.Matcher{
				// Values arriving from the request surface.
				{Call: "Request.getParameter", Kind: classify.KindOf(graph.KindCallReturn)},
				{Call: "Request.getHeader"},
				{Call: "Request.getQueryString"},
				{Call: "Cookie.getValue"},
				{Call: "Environment.get"},
			},
			Sinks: []classify.Matcher{
				// ScriptEngine.eval(script), the script argument.
				{Call: "ScriptEngine.eval", Index: classify.Arg(1)},
				{Call: "Interpreter.eval", Index: classify.Arg(1)},
				{Call: "ExpressionParser.parseExpression", Index: classify.Arg(1)},
				{Call: "Runtime.exec"},
			},
			Sanitizers: []classify.Matcher{
				// Structured encoders neutralise control characters.
				{Call: "Encoder.forJavaScript"},
				{Call: "Encoder.forHtml"},
				{Call: "Sanitizer.sanitize"},
			},
		}.Classifier(),
		Rules: []rules.Rule{
			// Concatenation carries taint into an accumulated script.
			rules.Summary{Callee: "StringBuilder.append", FromArg: 1},
			rules.Summary{Callee: "String.concat", FromArg: 1},
			rules.Summary{Callee: "String.format", FromArg: 2},
			// Script appended into a builder taints whatever call the
			// builder is later handed to as receiver.
			rules.ReceiverChain{
				FromCallee: "StringBuilder.append",
				FromArg:    1,
				ToCallee:   "StringBuilder.toString",
			},
		},
	}
}
