package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/maigenai/fingenius/pkg/config"

	"cloud.google.com/go/vertexai/genai"
	"go.uber.org/zap"
)

type Vertex struct {
	client *genai.Client
	logger *zap.Logger
}

func NewVertex(ctx context.Context, cfg *config.VertexConfig, logger *zap.Logger) (*Vertex, error) {
	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Vertex{client: client, logger: logger}, nil
}

func (v *Vertex) Invoke(ctx context.Context, prompt string, params ModelParams) (string, error) {
	model := v.client.GenerativeModel(params.Model)
	model.SetTemperature(float32(params.Temperature))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func (v *Vertex) Close() error {
	return v.client.Close()
}
