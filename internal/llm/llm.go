package llm

import (
	"context"
	"fmt"
)

//go:generate mockgen -destination=llmmock/completer_mock.go -package=llmmock hub-backend/internal/llm Completer

// Mode selects how the model is asked to format its reply.
type Mode string

const (
	// ModeText asks for free-form text.
	ModeText Mode = "text"
	// ModeJSON asks for a single JSON object.
	ModeJSON Mode = "json"
)

// Request is one completion call.
type Request struct {
	System string
	Prompt string
	Mode   Mode
	// Images are data URLs or https URLs sent alongside the prompt.
	Images []string
	// Model overrides the provider's default model when set.
	Model     string
	MaxTokens int
}

// Completer sends a prompt to a language model and returns its raw reply.
// Failures are reported as ErrUpstreamUnavailable or ErrUpstreamTimeout.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Unconfigured is used when no provider is set up. Every call fails as
// unavailable.
type Unconfigured struct{}

// Complete returns ErrUpstreamUnavailable.
func (Unconfigured) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", fmt.Errorf("%w: no model provider configured", ErrUpstreamUnavailable)
}
