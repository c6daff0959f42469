// Package autofix asks a language model to explain each finding and suggest
// a remediation. The suggestion is advisory text attached to the finding; it
// never rewrites analyzed code.
package autofix

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cristalinsg/taintgraph/report"
)

const (
	// ProviderGemini selects the Google Gemini API.
	ProviderGemini = "gemini"
	// ProviderClaude selects the Anthropic API.
	ProviderClaude = "claude"
	// ProviderOpenAI selects the OpenAI API.
	ProviderOpenAI = "openai"

	prompt = `You are reviewing a taint-tracking finding from a static
analysis tool. Explain in a short paragraph why the flow below is dangerous
and propose a concrete fix, naming the sanitizer or API change to apply.
Respond with plain text only.`

	requestTimeout = 30 * time.Second
)

// Client generates a remediation suggestion for one finding description.
type Client interface {
	GenerateSolution(ctx context.Context, prompt string) (string, error)
}

// NewClient builds a client for the named provider. The model may be empty,
// in which case the provider's default model is used.
func NewClient(ctx context.Context, provider, apiKey, model string) (Client, error) {
	switch provider {
	case ProviderGemini:
		return newGeminiClient(ctx, apiKey, model)
	case ProviderClaude:
		return newClaudeClient(apiKey, model), nil
	case ProviderOpenAI:
		return newOpenAIClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("autofix: unsupported provider %q", provider)
	}
}

// Explain fills the Remediation field of every finding in place. It stops at
// the first provider error so a bad key or quota problem fails fast instead
// of producing a half-annotated report.
func Explain(ctx context.Context, client Client, findings []report.Finding) error {
	for i := range findings {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		solution, err := client.GenerateSolution(reqCtx, prompt+"\n\n"+describe(&findings[i]))
		cancel()
		if err != nil {
			return fmt.Errorf("autofix: generating solution for %s: %w", findings[i].RuleID, err)
		}
		findings[i].Remediation = strings.TrimSpace(solution)
	}
	return nil
}

// describe renders one finding as the model-facing problem statement.
func describe(f *report.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule: %s (%s, severity %s)\n", f.RuleID, f.Description, f.Severity)
	fmt.Fprintf(&b, "Source: %s at %s\n", f.Source.Call, f.Source.Loc)
	fmt.Fprintf(&b, "Sink: %s at %s\n", f.Sink.Call, f.Sink.Loc)
	b.WriteString("Flow:\n")
	for _, n := range f.Path {
		fmt.Fprintf(&b, "  %s (%s)\n", n.ID, n.Kind)
	}
	return b.String()
}
