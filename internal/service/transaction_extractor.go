package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maigenai/fingenius/internal/llm"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const transactionSchema = `{
	"type": "object",
	"required": ["date", "description", "amount"],
	"properties": {
		"date":        {"type": "string"},
		"description": {"type": "string"},
		"amount":      {"type": ["number", "string"]},
		"category":    {"type": ["string", "null"]},
		"is_expense":  {"type": ["boolean", "null"]},
		"is_flagged":  {"type": ["boolean", "null"]},
		"flag_reason": {"type": ["string", "null"]}
	}
}`

// ExtractedTransaction is one record as the model returned it. Date stays a string
// until persistence so that an unparseable date surfaces there.
type ExtractedTransaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    *string         `json:"category"`
	IsExpense   *bool           `json:"is_expense"`
	IsFlagged   *bool           `json:"is_flagged"`
	FlagReason  *string         `json:"flag_reason"`
}

// Expense defaults to true.
func (t ExtractedTransaction) Expense() bool {
	return t.IsExpense == nil || *t.IsExpense
}

// Flagged defaults to false.
func (t ExtractedTransaction) Flagged() bool {
	return t.IsFlagged != nil && *t.IsFlagged
}

type TransactionExtractor struct {
	llm    llm.Invoker
	params llm.ModelParams
	schema *jsonschema.Schema
	logger *zap.Logger
}

func NewTransactionExtractor(invoker llm.Invoker, params llm.ModelParams, logger *zap.Logger) *TransactionExtractor {
	return &TransactionExtractor{
		llm:    invoker,
		params: params,
		schema: jsonschema.MustCompileString("transaction.json", transactionSchema),
		logger: logger,
	}
}

// Extract never fails: any call, scan or decode problem yields an empty slice.
func (t *TransactionExtractor) Extract(ctx context.Context, data map[string]any, documentType string) []ExtractedTransaction {
	response, err := t.llm.Invoke(ctx, buildTransactionPrompt(data, documentType), t.params)
	if err != nil {
		t.logger.Error("Transaction extraction call failed", zap.String("model", t.params.Model), zap.Error(err))
		return []ExtractedTransaction{}
	}

	scan := llm.ScanArray(response)
	if scan.Status != llm.ScanOK {
		t.logger.Warn("No transaction array in response", zap.Stringer("scan", scan.Status), zap.Error(scan.Err))
		return []ExtractedTransaction{}
	}

	transactions, err := t.decode(scan.Value)
	if err != nil {
		t.logger.Warn("Discarding transaction array", zap.Error(err))
		return []ExtractedTransaction{}
	}

	t.logger.Info("Transaction extraction finished", zap.Int("count", len(transactions)))
	return transactions
}

func (t *TransactionExtractor) decode(items []json.RawMessage) ([]ExtractedTransaction, error) {
	transactions := make([]ExtractedTransaction, 0, len(items))
	for i, raw := range items {
		var generic any
		if err := llm.DecodeElement(raw, &generic); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if err := t.schema.Validate(generic); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		var tx ExtractedTransaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		tx.Description = sanitizeUTF8(tx.Description)
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

func buildTransactionPrompt(data map[string]any, documentType string) string {
	return fmt.Sprintf(`You are a Transaction Extraction Specialist with expertise in parsing financial documents and extracting structured transaction data.

Extract all transactions from this %s document data.

Document data:
%s

For each transaction, extract:
1. Date (in ISO format YYYY-MM-DD)
2. Description (merchant name or transaction description)
3. Amount (as a number)
4. Category (if available, or infer from description)
5. Whether it's an expense (true) or income (false)
6. Flag any suspicious transactions (is_flagged: true/false)
7. Reason for flagging (if applicable)

Return the transactions as a JSON array of objects, like this:
[
  {
    "date": "2023-03-15",
    "description": "AMAZON MARKETPLACE",
    "amount": 45.99,
    "category": "Shopping",
    "is_expense": true,
    "is_flagged": false,
    "flag_reason": null
  }
]

If no transactions are found, return an empty array.
Return ONLY the JSON array without any additional text or explanation.`, documentType, prettyJSON(data))
}
