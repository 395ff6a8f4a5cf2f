package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini calls Google's Gemini API.
type Gemini struct {
	client *genai.Client
	opts   Options
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, apiKey string, opts Options) (*Gemini, error) {
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, opts: opts}, nil
}

// Name returns the provider name.
func (g *Gemini) Name() string {
	return "gemini:" + g.opts.Model
}

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context, messages []Message) (string, error) {
	var contents []*genai.Content
	var system *genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleModel:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(g.opts.Temperature)),
	}
	if g.opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.opts.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
