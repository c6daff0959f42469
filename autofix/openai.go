package autofix

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIClient struct {
	cli   openai.Client
	model string
}

func newOpenAIClient(apiKey, model string) *openAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIClient{
		cli:   openai.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}
}

func (c *openAIClient) GenerateSolution(ctx context.Context, prompt string) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
