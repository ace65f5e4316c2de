package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/internal/llm/llmtest"
	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/pipeline"
	"github.com/maigenai/fingenius/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	structuredResponse  = `{"document_type":"bank_statement","account":"****1234","period":"March 2023"}`
	transactionResponse = `Here you go: [
		{"date":"2023-03-15","description":"AMAZON","amount":45.99,"is_expense":true},
		{"date":"2023-03-20","description":"PAYROLL","amount":2500,"is_expense":false}
	]`
	insightResponse = `[{"type":"spending_pattern","title":"Online shopping","content":"Most spend went to Amazon.","importance":2}]`
)

// scriptedLLM answers each stage by recognising its prompt.
func scriptedLLM(structured, transactions, insights string) *llmtest.StubInvoker {
	stub := llmtest.NewStub()
	stub.Respond = func(prompt string, params llm.ModelParams) (string, error) {
		switch {
		case strings.Contains(prompt, "Transaction Extraction Specialist"):
			return transactions, nil
		case strings.Contains(prompt, "team of financial experts"):
			return insights, nil
		default:
			return structured, nil
		}
	}
	return stub
}

type harness struct {
	docs         *memDocs
	transactions *memRows[models.Transaction]
	insights     *memRows[models.Insight]
	files        memFiles
	llm          *llmtest.StubInvoker
	text         pipeline.TextExtractor
	doc          *models.Document
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	doc := &models.Document{
		ID:               uuid.New(),
		OriginalFilename: "march.pdf",
		StoredFilename:   uuid.NewString() + ".pdf",
		Type:             models.DocumentTypeBankStatement,
		Status:           models.DocumentStatusPending,
	}
	return &harness{
		docs:         newMemDocs(doc),
		transactions: &memRows[models.Transaction]{},
		insights:     &memRows[models.Insight]{},
		files:        memFiles{doc.StoredFilename: []byte("%PDF-1.4")},
		llm:          scriptedLLM(structuredResponse, transactionResponse, insightResponse),
		text:         fixedText("Statement for March"),
		doc:          doc,
	}
}

func (h *harness) orchestrator() *pipeline.Orchestrator {
	logger := zap.NewNop()
	params := llm.ModelParams{Model: "test-model", Temperature: 0.1}
	return pipeline.NewOrchestrator(h.docs, h.transactions, h.insights, h.files, pipeline.Stages{
		Text:         h.text,
		Structured:   service.NewStructuredExtractor(h.llm, params, logger),
		Transactions: service.NewTransactionExtractor(h.llm, params, logger),
		Insights:     service.NewInsightGenerator(h.llm, params, logger),
	}, logger)
}

func TestRunEndToEnd(t *testing.T) {
	h := newHarness(t)

	out := h.orchestrator().Run(context.Background(), h.doc.ID)
	require.NoError(t, out.Err)

	assert.Equal(t, models.DocumentStatusCompleted, out.Status)
	assert.Equal(t, models.DocumentStatusCompleted, h.docs.status(h.doc.ID))
	assert.Equal(t, []models.DocumentStatus{models.DocumentStatusProcessing, models.DocumentStatusCompleted}, h.docs.statuses)
	assert.Equal(t, 2, out.Transactions)
	assert.Equal(t, 1, out.Insights)
	require.Equal(t, 2, h.transactions.count())
	require.Equal(t, 1, h.insights.count())
	assert.Equal(t, 3, h.llm.CallCount())

	stored, _ := h.docs.GetByID(context.Background(), h.doc.ID)
	assert.Equal(t, "bank_statement", stored.ExtractedData["document_type"])

	first := h.transactions.rows[0]
	assert.Equal(t, h.doc.ID, first.DocumentID)
	assert.Equal(t, "AMAZON", first.Description)
	assert.True(t, decimal.RequireFromString("45.99").Equal(first.Amount))
	assert.True(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC).Equal(first.Date))
	assert.True(t, first.IsExpense)
	assert.False(t, first.IsFlagged)
	assert.False(t, h.transactions.rows[1].IsExpense)

	assert.Equal(t, "Online shopping", h.insights.rows[0].Title)
	assert.Equal(t, 2, h.insights.rows[0].Importance)
}

func TestRunMissingFile(t *testing.T) {
	h := newHarness(t)
	h.files = memFiles{}

	out := h.orchestrator().Run(context.Background(), h.doc.ID)

	assert.ErrorIs(t, out.Err, pipeline.ErrFileNotFound)
	assert.Equal(t, models.DocumentStatusFailed, out.Status)
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
	assert.Zero(t, h.transactions.count())
	assert.Zero(t, h.insights.count())
	assert.Zero(t, h.llm.CallCount())
}

func TestRunDocumentNotFound(t *testing.T) {
	h := newHarness(t)

	out := h.orchestrator().Run(context.Background(), uuid.New())

	assert.ErrorIs(t, out.Err, pipeline.ErrDocumentNotFound)
	assert.Empty(t, out.Status)
	assert.Empty(t, h.docs.statuses)
	assert.Equal(t, models.DocumentStatusPending, h.docs.status(h.doc.ID))
}

func TestRunNoExtractableText(t *testing.T) {
	h := newHarness(t)
	h.text = fixedText("  \n")

	out := h.orchestrator().Run(context.Background(), h.doc.ID)

	assert.ErrorIs(t, out.Err, pipeline.ErrExtractionFailed)
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
	assert.Zero(t, h.llm.CallCount())

	stored, _ := h.docs.GetByID(context.Background(), h.doc.ID)
	assert.Nil(t, stored.ExtractedData)
}

func TestRunPDFWithoutTextLayerFails(t *testing.T) {
	h := newHarness(t)
	h.text = fixedText("\n\n\n")

	out := h.orchestrator().Run(context.Background(), h.doc.ID)

	assert.ErrorIs(t, out.Err, pipeline.ErrExtractionFailed)
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
	assert.Zero(t, h.llm.CallCount())
}

func TestRunSentinelPayloadStillCompletes(t *testing.T) {
	h := newHarness(t)
	h.llm = llmtest.NewStub()
	h.llm.Err = errors.New("anthropic: 529 overloaded")

	out := h.orchestrator().Run(context.Background(), h.doc.ID)
	require.NoError(t, out.Err)

	assert.Equal(t, models.DocumentStatusCompleted, h.docs.status(h.doc.ID))
	stored, _ := h.docs.GetByID(context.Background(), h.doc.ID)
	assert.Equal(t, "error", stored.ExtractedData["extraction_status"])
	assert.Equal(t, "fallback", stored.ExtractedData["extraction_method"])
	assert.Zero(t, h.transactions.count())
	require.Equal(t, 1, h.insights.count())
	assert.Equal(t, "Error Generating Insights", h.insights.rows[0].Title)
}

func TestRunInvalidTransactionDateFailsDocument(t *testing.T) {
	h := newHarness(t)
	h.llm = scriptedLLM(structuredResponse,
		`[{"date":"2023-03-15","description":"OK","amount":1},{"date":"15/03/2023","description":"BAD","amount":2}]`,
		insightResponse)

	out := h.orchestrator().Run(context.Background(), h.doc.ID)

	assert.ErrorContains(t, out.Err, "invalid transaction date")
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
	// rows written before the bad record stay
	assert.Equal(t, 1, h.transactions.count())
	assert.Zero(t, h.insights.count())
}

func TestRunInsertErrorFailsDocument(t *testing.T) {
	h := newHarness(t)
	h.insights.err = errors.New("insights table missing")

	out := h.orchestrator().Run(context.Background(), h.doc.ID)

	assert.ErrorContains(t, out.Err, "insights table missing")
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
	assert.Equal(t, 2, h.transactions.count())
}

func TestRunRecoversPanic(t *testing.T) {
	h := newHarness(t)
	h.text = panicText{}

	var out pipeline.Outcome
	require.NotPanics(t, func() {
		out = h.orchestrator().Run(context.Background(), h.doc.ID)
	})

	assert.ErrorContains(t, out.Err, "mupdf segfault")
	assert.Equal(t, models.DocumentStatusFailed, out.Status)
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
}

func TestRunMarksFailedAfterCancellation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.text = textFunc(func() string {
		cancel()
		return ""
	})

	out := h.orchestrator().Run(ctx, h.doc.ID)

	assert.ErrorIs(t, out.Err, pipeline.ErrExtractionFailed)
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
	last := h.docs.ctxErrs[len(h.docs.ctxErrs)-1]
	assert.NoError(t, last, "the failed-status write must not inherit the cancelled job context")
}

func TestRunCompletedStatusWriteError(t *testing.T) {
	h := newHarness(t)
	h.docs.failOn = models.DocumentStatusCompleted

	out := h.orchestrator().Run(context.Background(), h.doc.ID)

	assert.ErrorContains(t, out.Err, "failed to mark document completed")
	assert.Equal(t, models.DocumentStatusFailed, h.docs.status(h.doc.ID))
}

// Re-running a completed document appends a second set of rows; nothing deduplicates them.
func TestRunTwiceAppendsDuplicateRows(t *testing.T) {
	h := newHarness(t)
	orch := h.orchestrator()

	require.NoError(t, orch.Run(context.Background(), h.doc.ID).Err)
	require.NoError(t, orch.Run(context.Background(), h.doc.ID).Err)

	assert.Equal(t, models.DocumentStatusCompleted, h.docs.status(h.doc.ID))
	assert.Equal(t, 4, h.transactions.count())
	assert.Equal(t, 2, h.insights.count())
}

func TestParseTransactionDate(t *testing.T) {
	for _, value := range []string{"2023-03-15", "2023-03-15T10:30:00", "2023-03-15T10:30:00Z", "2023-03-15 10:30:00"} {
		got, err := pipeline.ParseTransactionDate(value)
		require.NoError(t, err, value)
		assert.Equal(t, 2023, got.Year())
		assert.Equal(t, time.March, got.Month())
		assert.Equal(t, 15, got.Day())
	}

	for _, value := range []string{"", "03/15/2023", "March 15"} {
		_, err := pipeline.ParseTransactionDate(value)
		assert.Error(t, err, value)
	}
}

type textFunc func() string

func (f textFunc) Extract(ctx context.Context, data []byte, fileName string) string {
	return f()
}
