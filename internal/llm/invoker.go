// Package llm hides the chat-model providers behind a single prompt-in, text-out call.
package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("empty response from model")

// ModelParams selects the model and sampling temperature for one call.
type ModelParams struct {
	Model       string
	Temperature float64
}

// Invoker sends one prompt and returns the raw completion text. Calls are single attempts.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, params ModelParams) (string, error)
}

// Client is an Invoker that owns network resources.
type Client interface {
	Invoker
	Close() error
}
