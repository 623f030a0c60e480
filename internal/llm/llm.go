// Package llm wraps the language-model providers used to structure recipe content.
package llm

import (
	"context"
	"fmt"

	"grocery-planner/internal/config"
	"grocery-planner/internal/shared"
)

// systemPrompt is sent ahead of every prompt; callers parse the answer as JSON.
const systemPrompt = "You turn recipe pages into JSON. Answer with a single JSON object and nothing else."

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewTextGenerator picks a provider from configuration: Gemini when its key is
// set, otherwise Groq.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	switch {
	case cfg.GeminiAPIKey != "":
		return NewGeminiClient(ctx, cfg)
	case cfg.GroqAPIKey != "":
		return NewGroqClient(cfg), nil
	default:
		return nil, fmt.Errorf("GEMINI_API_KEY or GROQ_API_KEY environment variable not set")
	}
}
