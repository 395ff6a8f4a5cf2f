package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(apiKey string, opts Options, reqOpts ...option.RequestOption) *Anthropic {
	if opts.Model == "" {
		opts.Model = defaultAnthropicModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	var clientOpts []option.RequestOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	clientOpts = append(clientOpts, reqOpts...)
	return &Anthropic{client: anthropic.NewClient(clientOpts...), opts: opts}
}

// Name returns the provider name.
func (a *Anthropic) Name() string {
	return "anthropic:" + a.opts.Model
}

// Generate implements Provider.
func (a *Anthropic) Generate(ctx context.Context, messages []Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.opts.Model),
		MaxTokens:   int64(a.opts.MaxTokens),
		Temperature: anthropic.Float(a.opts.Temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleModel:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			if text := block.AsText().Text; text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.Join(parts, "\n"), nil
}
