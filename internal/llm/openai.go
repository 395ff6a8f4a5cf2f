package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI calls the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	opts   Options
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey string, opts Options, reqOpts ...option.RequestOption) *OpenAI {
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	var clientOpts []option.RequestOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	clientOpts = append(clientOpts, reqOpts...)
	return &OpenAI{client: openai.NewClient(clientOpts...), opts: opts}
}

// Name returns the provider name.
func (o *OpenAI) Name() string {
	return "openai:" + o.opts.Model
}

// Generate implements Provider.
func (o *OpenAI) Generate(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleModel:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       o.opts.Model,
		Messages:    msgs,
		Temperature: openai.Float(o.opts.Temperature),
	}
	if o.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.opts.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
