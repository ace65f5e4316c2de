package llm

import (
	"context"
	"fmt"

	"github.com/maigenai/fingenius/pkg/config"

	"go.uber.org/zap"
)

// New builds the configured provider and wraps it with the call limiter when one is set.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Client, error) {
	var (
		client Client
		err    error
	)

	switch cfg.LLM.Provider {
	case "gigachat":
		client, err = NewGigaChat(ctx, &cfg.GigaChat, logger)
	case "anthropic":
		client, err = NewAnthropic(cfg.Anthropic.APIKey, logger)
	case "ollama":
		client, err = NewOllama(cfg.Ollama.BaseURL, logger)
	case "vertex":
		client, err = NewVertex(ctx, &cfg.Vertex, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("LLM provider initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.Float64("rate_per_second", cfg.LLM.RatePerSecond),
	)

	if cfg.LLM.RatePerSecond > 0 {
		return NewRateLimited(client, cfg.LLM.RatePerSecond, cfg.LLM.RateBurst), nil
	}
	return client, nil
}

// StageParams converts a config stage entry.
func StageParams(p config.StageParams) ModelParams {
	return ModelParams{Model: p.Model, Temperature: p.Temperature}
}
