package autofix

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

var errEmptyResponse = errors.New("autofix: empty model response")

type geminiClient struct {
	cli   *genai.Client
	model string
}

func newGeminiClient(ctx context.Context, apiKey, model string) (*geminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiClient{cli: cli, model: model}, nil
}

func (g *geminiClient) GenerateSolution(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyResponse
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
