package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/internal/models"

	"go.uber.org/zap"
)

// letterMarkers are checked together; the earliest match wins, ties go to the earlier marker.
var letterMarkers = []string{
	"---",
	"===",
	"DISPUTE LETTER",
	"COMPLAINT LETTER",
	"[Date]",
	"[Your Name]",
	"Dear ",
}

type DisputeGenerator struct {
	llm    llm.Invoker
	params llm.ModelParams
	logger *zap.Logger
}

func NewDisputeGenerator(invoker llm.Invoker, params llm.ModelParams, logger *zap.Logger) *DisputeGenerator {
	return &DisputeGenerator{
		llm:    invoker,
		params: params,
		logger: logger,
	}
}

// Generate returns the letter text, or a readable error message in its place.
func (g *DisputeGenerator) Generate(ctx context.Context, doc *models.Document, reason, details string) string {
	response, err := g.llm.Invoke(ctx, buildDisputePrompt(doc, reason, details), g.params)
	if err != nil {
		g.logger.Error("Dispute letter call failed",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return fmt.Sprintf("Error generating dispute letter: %v", err)
	}
	return trimToLetter(response)
}

func trimToLetter(response string) string {
	start := -1
	for _, marker := range letterMarkers {
		if i := strings.Index(response, marker); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	if start < 0 {
		return response
	}
	return response[start:]
}

func buildDisputePrompt(doc *models.Document, reason, details string) string {
	extracted := doc.ExtractedData
	if extracted == nil {
		extracted = map[string]any{}
	}
	documentData := map[string]any{
		"document_type":  string(doc.Type),
		"filename":       doc.OriginalFilename,
		"extracted_data": extracted,
	}

	return fmt.Sprintf(`You are a team of experts working together to create an effective dispute letter.

First, as a Consumer Rights Legal Expert, analyze this dispute situation and provide legal guidance.

Document information:
%s

Dispute reason: %s

Dispute details: %s

Consider the consumer protection laws that apply, the key legal points the letter must make,
the recommended structure, and any references that would strengthen the case.

Then, as a Professional Communication Specialist, draft a professional, persuasive dispute letter
based on the legal analysis. The letter should use proper business letter structure, state the nature
of the dispute, include supporting details, reference relevant regulations where appropriate, make a
clear request for resolution with a reasonable response timeframe, and stay firm but respectful.

Create a complete, ready-to-send letter that the user can print and mail or email.`, prettyJSON(documentData), reason, details)
}
