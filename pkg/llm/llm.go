// Package llm abstracts the language-model collaborators behind a single
// chat interface and provides resilient JSON extraction from their output.
package llm

import "context"

// Message is one chat message in OpenAI-style format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single chat call. Zero values fall back to the provider's
// configured defaults.
type Options struct {
	Model     string
	MaxTokens int
}

// Client is the LLM collaborator. Every call site in this codebase sends
// exactly one user message containing the fully rendered prompt.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}

// UserMessage wraps a rendered prompt as a single-message conversation.
func UserMessage(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}
