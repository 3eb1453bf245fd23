// Package gemini generates free text with Google's Gemini models. Text
// generation is best effort: callers are expected to fall back to canned
// answers on any error.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var _ gateway.TextGenerator = (*Generator)(nil)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator calls the Gemini API. A Generator built without an API key is
// disabled and fails every call with gateway.ErrUnavailable.
type Generator struct {
	models contentGenerator
	model  string
}

func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		return &Generator{model: model}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Generator{models: client.Models, model: model}, nil
}

func (g *Generator) Enabled() bool {
	return g.models != nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Enabled() {
		return "", fmt.Errorf("text generation: %w", gateway.ErrUnavailable)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generate content: empty response")
	}
	return text, nil
}
