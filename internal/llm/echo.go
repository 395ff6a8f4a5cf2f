package llm

import (
	"context"
	"fmt"
	"strings"
)

// Echo is an offline provider that answers deterministically from the
// conversation. It is meant for local development and tests.
type Echo struct{}

// Name returns the provider name.
func (Echo) Name() string { return "echo" }

// Generate implements Provider.
func (Echo) Generate(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", ErrEmptyResponse
	}

	last := messages[len(messages)-1]
	if len(messages) > 1 {
		return fmt.Sprintf("**Answer**\n- You asked: %s", strings.TrimSpace(last.Content)), nil
	}

	var b strings.Builder
	b.WriteString("**Event Plan**\n")
	for _, line := range strings.Split(last.Content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("Day 1: Setup and welcome\n")
	b.WriteString("BUDGET:\n")
	b.WriteString("1. Venue\n2. Catering\n3. Decor")
	return b.String(), nil
}
