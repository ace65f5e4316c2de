// Package llmtest provides a scripted llm.Invoker for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/maigenai/fingenius/internal/llm"
)

type Call struct {
	Prompt string
	Params llm.ModelParams
}

// StubInvoker replays Responses in order; once exhausted it keeps returning the last one.
// Err, when set, is returned from every call instead.
type StubInvoker struct {
	Responses []string
	Err       error
	// Respond, when set, takes precedence over Responses and Err.
	Respond func(prompt string, params llm.ModelParams) (string, error)

	mu    sync.Mutex
	calls []Call
}

func NewStub(responses ...string) *StubInvoker {
	return &StubInvoker{Responses: responses}
}

func (s *StubInvoker) Invoke(ctx context.Context, prompt string, params llm.ModelParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.calls)
	s.calls = append(s.calls, Call{Prompt: prompt, Params: params})

	if s.Respond != nil {
		return s.Respond(prompt, params)
	}
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", nil
	}
	if n >= len(s.Responses) {
		n = len(s.Responses) - 1
	}
	return s.Responses[n], nil
}

func (s *StubInvoker) Close() error { return nil }

func (s *StubInvoker) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *StubInvoker) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
