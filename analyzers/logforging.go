package analyzers

import (
	"github.com/Cristalinsg/taintgraph/classify"
	"github.com/Cristalinsg/taintgraph/rules"
	"github.com/Cristalinsg/taintgraph/taint"
)

// LogForging returns a configuration for detecting untrusted data written
// into log records without newline stripping.
func LogForging() taint.Config {
	return taint.Config{
		Info: taint.RuleInfo{
			ID:          "TG103",
			Description: "untrusted input flows into a log record",
			Severity:    taint.Medium,
		},
		Classifier: classify.Config{
			Sources: []classify.Matcher{
				{Call: "Request.getParameter"},
				{Call: "Request.getHeader"},
				{Call: "Cookie.getValue"},
			},
			Sinks: []classify.Matcher{
				{Call: "Logger.info", Index: classify.Arg(1)},
				{Call: "Logger.warn", Index: classify.Arg(1)},
				{Call: "Logger.error", Index: classify.Arg(1)},
				{Call: "Logger.debug", Index: classify.Arg(1)},
			},
			Sanitizers: []classify.Matcher{
				{Call: "StringEscapeUtils.escapeJava"},
				// Removing line breaks defeats record splitting.
				{Call: "String.replaceAll"},
			},
		}.Classifier(),
		Rules: []rules.Rule{
			rules.Summary{Callee: "StringBuilder.append", FromArg: 1},
			rules.Summary{Callee: "String.concat", FromArg: 1},
			rules.Summary{Callee: "String.format", FromArg: 2},
		},
	}
}
