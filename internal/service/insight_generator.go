package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/internal/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

const maxInsightTransactions = 50

const insightSchema = `{
	"type": "object",
	"required": ["type", "title", "content", "importance"],
	"properties": {
		"type":       {"type": "string"},
		"title":      {"type": "string"},
		"content":    {"type": "string"},
		"importance": {"type": ["number", "string"]}
	}
}`

type ExtractedInsight struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Importance int    `json:"importance"`
}

func analysisCompleteInsight() ExtractedInsight {
	return ExtractedInsight{
		Type:       models.InsightTypeSystem,
		Title:      "Document Analysis Complete",
		Content:    "The document has been processed. Please check the extracted data for details.",
		Importance: 3,
	}
}

func insightErrorInsight(err error) ExtractedInsight {
	return ExtractedInsight{
		Type:       models.InsightTypeSystem,
		Title:      "Error Generating Insights",
		Content:    fmt.Sprintf("An error occurred while generating insights: %v", err),
		Importance: 4,
	}
}

type InsightGenerator struct {
	llm    llm.Invoker
	params llm.ModelParams
	schema *jsonschema.Schema
	logger *zap.Logger
}

func NewInsightGenerator(invoker llm.Invoker, params llm.ModelParams, logger *zap.Logger) *InsightGenerator {
	return &InsightGenerator{
		llm:    invoker,
		params: params,
		schema: jsonschema.MustCompileString("insight.json", insightSchema),
		logger: logger,
	}
}

// Generate always returns at least one insight.
func (g *InsightGenerator) Generate(ctx context.Context, data map[string]any, transactions []ExtractedTransaction, documentType string) []ExtractedInsight {
	if len(transactions) > maxInsightTransactions {
		transactions = transactions[:maxInsightTransactions]
	}

	response, err := g.llm.Invoke(ctx, buildInsightPrompt(data, transactions, documentType), g.params)
	if err != nil {
		g.logger.Error("Insight generation call failed", zap.String("model", g.params.Model), zap.Error(err))
		return []ExtractedInsight{insightErrorInsight(err)}
	}

	scan := llm.ScanArray(response)
	if scan.Status != llm.ScanOK {
		g.logger.Warn("No insight array in response", zap.Stringer("scan", scan.Status), zap.Error(scan.Err))
		return []ExtractedInsight{analysisCompleteInsight()}
	}

	insights := make([]ExtractedInsight, 0, len(scan.Value))
	for i, raw := range scan.Value {
		insight, err := g.decode(raw)
		if err != nil {
			g.logger.Warn("Skipping invalid insight", zap.Int("index", i), zap.Error(err))
			continue
		}
		insights = append(insights, insight)
	}
	if len(insights) == 0 {
		return []ExtractedInsight{analysisCompleteInsight()}
	}

	g.logger.Info("Insight generation finished", zap.Int("count", len(insights)))
	return insights
}

func (g *InsightGenerator) decode(raw json.RawMessage) (ExtractedInsight, error) {
	var generic any
	if err := llm.DecodeElement(raw, &generic); err != nil {
		return ExtractedInsight{}, err
	}
	if err := g.schema.Validate(generic); err != nil {
		return ExtractedInsight{}, err
	}

	// importance may arrive quoted ("4"); json.Number takes both forms.
	var wire struct {
		Type       string      `json:"type"`
		Title      string      `json:"title"`
		Content    string      `json:"content"`
		Importance json.Number `json:"importance"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ExtractedInsight{}, err
	}
	importance, err := wire.Importance.Float64()
	if err != nil {
		return ExtractedInsight{}, fmt.Errorf("invalid importance %q: %w", wire.Importance, err)
	}

	return ExtractedInsight{
		Type:       wire.Type,
		Title:      sanitizeUTF8(wire.Title),
		Content:    sanitizeUTF8(wire.Content),
		Importance: clampImportance(importance),
	}, nil
}

func clampImportance(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}

func buildInsightPrompt(data map[string]any, transactions []ExtractedTransaction, documentType string) string {
	analysis := map[string]any{
		"document_type":  documentType,
		"extracted_data": data,
		"transactions":   transactions,
	}

	return fmt.Sprintf(`You are a team of financial experts analyzing financial data to provide valuable insights.

First, as a Financial Analyst, identify important patterns or trends in the data.

Financial data:
%s

Focus on spending patterns and categories, income versus expenses, recurring transactions,
changes over time and outlier transactions.

Then, as a Fraud Detection Specialist, review the data for unauthorized transactions, double charges,
incorrect fees or interest, suspicious patterns and billing errors.

Finally, as a Financial Advisor, give actionable recommendations that address the issues found,
reduce fees, identify savings and state clear next steps.

Return your insights as a JSON array, each with a type (spending_pattern, anomaly, recommendation, ...),
a clear title, a detailed content and an importance rating from 1 to 5 (5 is highest):
[
  {
    "type": "anomaly",
    "title": "Potential duplicate charge from Amazon",
    "content": "There appear to be two identical charges of $45.99 from Amazon on March 15th and 16th.",
    "importance": 4
  }
]

Return ONLY the JSON array without any additional text or explanation.`, prettyJSON(analysis))
}
