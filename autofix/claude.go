package autofix

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-sonnet-4-20250514"

type claudeClient struct {
	cli   anthropic.Client
	model string
}

func newClaudeClient(apiKey, model string) *claudeClient {
	if model == "" {
		model = defaultClaudeModel
	}
	return &claudeClient{
		cli:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}
}

func (c *claudeClient) GenerateSolution(ctx context.Context, prompt string) (string, error) {
	msg, err := c.cli.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	if len(msg.Content) == 0 {
		return "", errEmptyResponse
	}
	return msg.Content[0].Text, nil
}
