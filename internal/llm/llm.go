// Package llm adapts hosted language models to the plan generation endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashureev/eventplanner/internal/config"
)

// Role of a message author.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
)

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Message is one conversation message.
type Message struct {
	Role    Role
	Content string
}

// Provider generates a reply to a conversation.
type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// Options tunes generation.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// InitialHistory is the conversation for a first plan generation.
func InitialHistory(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}

// FollowUpHistory is the conversation for a follow-up: the original prompt,
// the original plan, then the new question. Callers must supply non-empty
// context; providers reject empty content blocks.
func FollowUpHistory(prevPrompt, prevResponse, followUp string) []Message {
	return []Message{
		{Role: RoleUser, Content: prevPrompt},
		{Role: RoleModel, Content: prevResponse},
		{Role: RoleUser, Content: followUp},
	}
}

// New builds the provider selected by cfg.
func New(ctx context.Context, cfg config.ModelConfig) (Provider, error) {
	opts := Options{
		Model:       cfg.Name,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.GoogleAPIKey, opts)
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, opts), nil
	case "anthropic":
		return NewAnthropic(cfg.AnthropicAPIKey, opts), nil
	case "echo":
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
