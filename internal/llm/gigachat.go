package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/maigenai/fingenius/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

type GigaChat struct {
	client *gigago.Client
	logger *zap.Logger
}

func NewGigaChat(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChat, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	return &GigaChat{client: client, logger: logger}, nil
}

func (g *GigaChat) Invoke(ctx context.Context, prompt string, params ModelParams) (string, error) {
	// built per call: stages differ in model and temperature
	model := g.client.GenerativeModel(params.Model)
	assignFloat(&model.Temperature, params.Temperature)

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("gigachat generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	g.logger.Debug("GigaChat response received",
		zap.String("model", params.Model),
		zap.Int("length", len(content)),
	)
	return content, nil
}

func (g *GigaChat) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

func assignFloat[F float32 | float64](dst *F, v float64) {
	*dst = F(v)
}
