package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/maigenai/fingenius/internal/llm"

	"go.uber.org/zap"
)

const (
	promptTextLimit   = 10000
	sentinelTextLimit = 5000
)

type ExtractionStatus string

const (
	ExtractionComplete ExtractionStatus = "complete"
	// ExtractionPartial: the model answered without any JSON object.
	ExtractionPartial ExtractionStatus = "partial"
	// ExtractionFailed: the model emitted a malformed JSON object.
	ExtractionFailed ExtractionStatus = "failed"
	// ExtractionError: the call itself did not complete.
	ExtractionError ExtractionStatus = "error"
)

// StructuredData is the outcome of the structured-data stage.
type StructuredData struct {
	Status       ExtractionStatus
	Fields       map[string]any // set only when Status is complete
	RawText      string         // truncated source text for the fallback payload
	DocumentType string
	Err          error
}

// Payload is the mapping persisted as the document's extracted data.
func (d *StructuredData) Payload() map[string]any {
	if d.Status == ExtractionComplete {
		return d.Fields
	}

	payload := map[string]any{
		"document_type":     d.DocumentType,
		"raw_text":          d.RawText,
		"extraction_status": string(d.Status),
		"extraction_method": "fallback",
	}
	if d.Status == ExtractionError && d.Err != nil {
		payload["error"] = d.Err.Error()
	}
	return payload
}

type StructuredExtractor struct {
	llm    llm.Invoker
	params llm.ModelParams
	logger *zap.Logger
}

func NewStructuredExtractor(invoker llm.Invoker, params llm.ModelParams, logger *zap.Logger) *StructuredExtractor {
	return &StructuredExtractor{
		llm:    invoker,
		params: params,
		logger: logger,
	}
}

// Extract returns nil for blank text without calling the model.
func (s *StructuredExtractor) Extract(ctx context.Context, text, documentType string) *StructuredData {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	result := &StructuredData{
		RawText:      truncateRunes(text, sentinelTextLimit),
		DocumentType: documentType,
	}

	response, err := s.llm.Invoke(ctx, buildDocumentPrompt(text, documentType), s.params)
	if err != nil {
		s.logger.Error("Structured extraction call failed", zap.String("model", s.params.Model), zap.Error(err))
		result.Status = ExtractionError
		result.Err = err
		return result
	}

	scan := llm.ScanObject(response)
	switch scan.Status {
	case llm.ScanOK:
		result.Status = ExtractionComplete
		result.Fields = scan.Value
	case llm.ScanNoSpan:
		result.Status = ExtractionPartial
	default:
		result.Status = ExtractionFailed
		result.Err = scan.Err
	}

	s.logger.Info("Structured extraction finished",
		zap.String("document_type", documentType),
		zap.String("status", string(result.Status)),
	)
	return result
}

func buildDocumentPrompt(text, documentType string) string {
	return fmt.Sprintf(`You are an expert in financial document analysis with years of experience in banking and financial services.

Analyze this %s document and extract all relevant information.

Document text:
%s

Focus on:
1. Identifying the document type and issuer
2. Finding key dates, account numbers, and financial information
3. Extracting transaction details if present
4. Identifying any fees, charges, or important notices

Then, as a financial expert, interpret the data:
1. Identify the most important financial information
2. Highlight any unusual patterns or potential issues
3. Note any information that might be relevant for disputes or financial planning

Finally, convert all the extracted information into a well-structured JSON object including:
1. Document metadata (type, issuer, dates, account info)
2. Financial summary data
3. Detailed transaction list (if applicable)
4. Important notices or action items

Return ONLY the JSON object without any additional text or explanation.`, documentType, truncateRunes(text, promptTextLimit))
}
