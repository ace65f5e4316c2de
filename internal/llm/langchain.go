package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// LangChain serves Anthropic and Ollama models, one cached llms.Model per model name.
type LangChain struct {
	name    string
	factory func(model string) (llms.Model, error)
	logger  *zap.Logger

	mu     sync.Mutex
	models map[string]llms.Model
}

func NewAnthropic(apiKey string, logger *zap.Logger) (*LangChain, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is empty")
	}
	return newLangChain("anthropic", func(model string) (llms.Model, error) {
		return anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	}, logger), nil
}

func NewOllama(baseURL string, logger *zap.Logger) (*LangChain, error) {
	return newLangChain("ollama", func(model string) (llms.Model, error) {
		return ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
	}, logger), nil
}

func newLangChain(name string, factory func(string) (llms.Model, error), logger *zap.Logger) *LangChain {
	return &LangChain{
		name:    name,
		factory: factory,
		logger:  logger,
		models:  make(map[string]llms.Model),
	}
}

func (l *LangChain) Invoke(ctx context.Context, prompt string, params ModelParams) (string, error) {
	model, err := l.model(params.Model)
	if err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := model.GenerateContent(ctx, content, llms.WithTemperature(params.Temperature))
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", l.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	l.logger.Debug("LLM response received",
		zap.String("provider", l.name),
		zap.String("model", params.Model),
		zap.Int("length", len(resp.Choices[0].Content)),
	)
	return resp.Choices[0].Content, nil
}

func (l *LangChain) model(name string) (llms.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.models[name]; ok {
		return m, nil
	}
	m, err := l.factory(name)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s model %q: %w", l.name, name, err)
	}
	l.models[name] = m
	return m, nil
}

func (l *LangChain) Close() error {
	return nil
}
