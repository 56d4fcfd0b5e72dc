// Package llm talks to hosted chat models. Everything above this package
// depends on the Client interface only.
package llm

import (
	"context"

	"treecare/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// ChatPrompt is a single-turn exchange: a system instruction plus one user message.
type ChatPrompt struct {
	System string
	User   string
}

// TextGenerator produces a JSON document from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// ChatGenerator answers a chat prompt in plain text.
type ChatGenerator interface {
	GenerateChat(ctx context.Context, prompt ChatPrompt) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// Client is what provider implementations offer.
type Client interface {
	TextGenerator
	ChatGenerator
	Closer
}
