package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/internal/llm/llmtest"
	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var disputeParams = llm.ModelParams{Model: "claude-3-sonnet-20240229", Temperature: 0.2}

func disputeDocument() *models.Document {
	return &models.Document{
		ID:               uuid.New(),
		OriginalFilename: "march.pdf",
		Type:             models.DocumentTypeCreditCardStatement,
		ExtractedData:    map[string]any{"issuer": "ACME Bank"},
	}
}

func TestDisputeGeneratorTrimsPreamble(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "greeting", response: "Some preamble. Dear Sir, I am writing...", want: "Dear Sir, I am writing..."},
		{name: "no marker", response: "Plain letter body.", want: "Plain letter body."},
		{
			name:     "earliest marker wins over list order",
			response: "Notes first.\n[Date]\n\nDear Madam,\n---\nSigned",
			want:     "[Date]\n\nDear Madam,\n---\nSigned",
		},
		{name: "heading", response: "Legal analysis...\nDISPUTE LETTER\nDear Team,", want: "DISPUTE LETTER\nDear Team,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := service.NewDisputeGenerator(llmtest.NewStub(tt.response), disputeParams, zap.NewNop())
			assert.Equal(t, tt.want, gen.Generate(context.Background(), disputeDocument(), "double charge", "charged twice"))
		})
	}
}

func TestDisputeGeneratorPrompt(t *testing.T) {
	stub := llmtest.NewStub("Dear Sir")
	gen := service.NewDisputeGenerator(stub, disputeParams, zap.NewNop())
	gen.Generate(context.Background(), disputeDocument(), "double charge", "charged twice on 03/15")

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, disputeParams, calls[0].Params)
	assert.Contains(t, calls[0].Prompt, "Dispute reason: double charge")
	assert.Contains(t, calls[0].Prompt, "charged twice on 03/15")
	assert.Contains(t, calls[0].Prompt, `"filename": "march.pdf"`)
	assert.Contains(t, calls[0].Prompt, "ACME Bank")
}

func TestDisputeGeneratorCallFailure(t *testing.T) {
	stub := llmtest.NewStub()
	stub.Err = errors.New("connection refused")
	gen := service.NewDisputeGenerator(stub, disputeParams, zap.NewNop())

	got := gen.Generate(context.Background(), disputeDocument(), "r", "d")
	assert.Equal(t, "Error generating dispute letter: connection refused", got)
}
