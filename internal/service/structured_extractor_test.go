package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/internal/llm/llmtest"
	"github.com/maigenai/fingenius/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var structuredParams = llm.ModelParams{Model: "claude-3-opus-20240229", Temperature: 0.1}

func TestStructuredExtractorSkipsBlankText(t *testing.T) {
	// "\n\n" is what a two-page scan without a text layer extracts to.
	for _, text := range []string{"", "   \n\t", "\n\n"} {
		stub := llmtest.NewStub(`{"a": 1}`)
		extractor := service.NewStructuredExtractor(stub, structuredParams, zap.NewNop())

		assert.Nil(t, extractor.Extract(context.Background(), text, "bank_statement"))
		assert.Equal(t, 0, stub.CallCount())
	}
}

func TestStructuredExtractorFallbackLadder(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		err       error
		status    service.ExtractionStatus
		wantError bool
	}{
		{name: "complete", response: `Result: {"document_type": "bank_statement", "issuer": "ACME"}`, status: service.ExtractionComplete},
		{name: "no braces", response: "I could not find anything useful.", status: service.ExtractionPartial},
		{name: "malformed", response: `{"document_type": "bank_statement",}`, status: service.ExtractionFailed},
		{name: "call failed", err: errors.New("401 unauthorized"), status: service.ExtractionError, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := llmtest.NewStub(tt.response)
			stub.Err = tt.err
			extractor := service.NewStructuredExtractor(stub, structuredParams, zap.NewNop())

			got := extractor.Extract(context.Background(), "Statement for March", "bank_statement")
			require.NotNil(t, got)
			assert.Equal(t, tt.status, got.Status)

			payload := got.Payload()
			if tt.status == service.ExtractionComplete {
				assert.Equal(t, "ACME", payload["issuer"])
				assert.NotContains(t, payload, "extraction_method")
				return
			}

			assert.Equal(t, "bank_statement", payload["document_type"])
			assert.Equal(t, "Statement for March", payload["raw_text"])
			assert.Equal(t, string(tt.status), payload["extraction_status"])
			assert.Equal(t, "fallback", payload["extraction_method"])
			if tt.wantError {
				assert.Equal(t, "401 unauthorized", payload["error"])
			} else {
				assert.NotContains(t, payload, "error")
			}
		})
	}
}

func TestStructuredExtractorTruncation(t *testing.T) {
	text := strings.Repeat("é", 12000)
	stub := llmtest.NewStub("no json here")
	extractor := service.NewStructuredExtractor(stub, structuredParams, zap.NewNop())

	got := extractor.Extract(context.Background(), text, "utility_bill")
	require.NotNil(t, got)

	raw := got.Payload()["raw_text"].(string)
	assert.Equal(t, 5000, utf8.RuneCountInString(raw))

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, structuredParams, calls[0].Params)
	assert.Contains(t, calls[0].Prompt, strings.Repeat("é", 10000))
	assert.NotContains(t, calls[0].Prompt, strings.Repeat("é", 10001))
}
