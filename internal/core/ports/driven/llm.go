package driven

import "context"

// LLMService completes single-turn prompts. The router uses it to classify
// queries it cannot route by keyword, and every answerer uses it to
// synthesise the final answer.
//
// Providers: groq and openai (chat completions), anthropic, ollama.
type LLMService interface {
	Complete(ctx context.Context, req Completion) (string, error)

	// ModelName returns the configured model.
	ModelName() string

	// Ping checks the provider is reachable and the credentials work.
	Ping(ctx context.Context) error

	Close() error
}

// Completion is one prompt sent to an LLMService.
type Completion struct {
	// System holds instructions sent ahead of the prompt. Optional.
	System string

	Prompt string

	// MaxTokens caps the reply. Zero leaves the provider default.
	MaxTokens int

	// Temperature is always sent, so zero means deterministic.
	Temperature float64
}
