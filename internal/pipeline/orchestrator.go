// Package pipeline drives one document through text extraction, structuring,
// transaction extraction and insight generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/repository"
	"github.com/maigenai/fingenius/internal/service"
	"github.com/maigenai/fingenius/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrFileNotFound     = errors.New("document file not found")
	ErrExtractionFailed = errors.New("failed to extract data from document")
)

const failWriteTimeout = 10 * time.Second

type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error
	UpdateExtractedData(ctx context.Context, id uuid.UUID, data map[string]any) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
}

type InsightStore interface {
	Create(ctx context.Context, insight *models.Insight) error
}

type FileStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	ReadBytes(ctx context.Context, name string) ([]byte, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileName string) string
}

type StructuredExtractor interface {
	Extract(ctx context.Context, text, documentType string) *service.StructuredData
}

type TransactionExtractor interface {
	Extract(ctx context.Context, data map[string]any, documentType string) []service.ExtractedTransaction
}

type InsightGenerator interface {
	Generate(ctx context.Context, data map[string]any, transactions []service.ExtractedTransaction, documentType string) []service.ExtractedInsight
}

type Stages struct {
	Text         TextExtractor
	Structured   StructuredExtractor
	Transactions TransactionExtractor
	Insights     InsightGenerator
}

// Outcome reports how a run ended. Status is empty when the document was never touched.
type Outcome struct {
	DocumentID   uuid.UUID
	Status       models.DocumentStatus
	Transactions int
	Insights     int
	Err          error
}

type Orchestrator struct {
	docs         DocumentStore
	transactions TransactionStore
	insights     InsightStore
	files        FileStore
	stages       Stages
	logger       *zap.Logger
	now          func() time.Time
}

func NewOrchestrator(
	docs DocumentStore,
	transactions TransactionStore,
	insights InsightStore,
	files FileStore,
	stages Stages,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		docs:         docs,
		transactions: transactions,
		insights:     insights,
		files:        files,
		stages:       stages,
		logger:       logger,
		now:          time.Now,
	}
}

// Run moves the document pending -> processing -> completed|failed. Once the
// document is marked processing, every exit path, panics included, leaves it terminal.
func (o *Orchestrator) Run(ctx context.Context, documentID uuid.UUID) (out Outcome) {
	out.DocumentID = documentID
	log := o.logger.With(zap.String("document_id", documentID.String()))

	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			out.Err = ErrDocumentNotFound
		} else {
			out.Err = fmt.Errorf("failed to load document: %w", err)
		}
		log.Warn("Pipeline not started", zap.Error(out.Err))
		return out
	}

	if err := o.docs.UpdateStatus(ctx, documentID, models.DocumentStatusProcessing); err != nil {
		out.Err = fmt.Errorf("failed to mark document processing: %w", err)
		log.Error("Pipeline not started", zap.Error(out.Err))
		return out
	}
	out.Status = models.DocumentStatusProcessing

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("unexpected pipeline failure: %v", r)
		}
		if out.Err != nil {
			o.markFailed(ctx, documentID, log)
			out.Status = models.DocumentStatusFailed
			log.Error("Document processing failed", zap.Error(out.Err))
			return
		}
		log.Info("Document processing completed",
			zap.Int("transactions", out.Transactions),
			zap.Int("insights", out.Insights),
		)
	}()

	out.Transactions, out.Insights, out.Err = o.runStages(ctx, doc, log)
	if out.Err != nil {
		return out
	}

	if err := o.docs.UpdateStatus(ctx, documentID, models.DocumentStatusCompleted); err != nil {
		out.Err = fmt.Errorf("failed to mark document completed: %w", err)
		return out
	}
	out.Status = models.DocumentStatusCompleted
	return out
}

func (o *Orchestrator) runStages(ctx context.Context, doc *models.Document, log *zap.Logger) (int, int, error) {
	data, err := o.readFile(ctx, doc.StoredFilename)
	if err != nil {
		return 0, 0, err
	}

	documentType := string(doc.Type)
	text := o.stages.Text.Extract(ctx, data, doc.StoredFilename)

	structured := o.stages.Structured.Extract(ctx, text, documentType)
	if structured == nil {
		return 0, 0, ErrExtractionFailed
	}
	extracted := structured.Payload()
	if err := o.docs.UpdateExtractedData(ctx, doc.ID, extracted); err != nil {
		return 0, 0, fmt.Errorf("failed to save extracted data: %w", err)
	}
	log.Info("Extracted data saved", zap.String("extraction_status", string(structured.Status)))

	transactions := o.stages.Transactions.Extract(ctx, extracted, documentType)
	for i, tx := range transactions {
		record, err := o.transactionRecord(doc.ID, tx)
		if err != nil {
			return i, 0, fmt.Errorf("transaction %d: %w", i, err)
		}
		if err := o.transactions.Create(ctx, record); err != nil {
			return i, 0, fmt.Errorf("failed to save transaction %d: %w", i, err)
		}
	}

	insights := o.stages.Insights.Generate(ctx, extracted, transactions, documentType)
	for i, in := range insights {
		record := &models.Insight{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			InsightType: in.Type,
			Title:       in.Title,
			Content:     in.Content,
			Importance:  in.Importance,
			CreatedAt:   o.now(),
		}
		if err := o.insights.Create(ctx, record); err != nil {
			return len(transactions), i, fmt.Errorf("failed to save insight %d: %w", i, err)
		}
	}

	return len(transactions), len(insights), nil
}

func (o *Orchestrator) readFile(ctx context.Context, name string) ([]byte, error) {
	exists, err := o.files.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check document file: %w", err)
	}
	if !exists {
		return nil, ErrFileNotFound
	}

	data, err := o.files.ReadBytes(ctx, name)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}
	return data, nil
}

func (o *Orchestrator) transactionRecord(documentID uuid.UUID, tx service.ExtractedTransaction) (*models.Transaction, error) {
	date, err := ParseTransactionDate(tx.Date)
	if err != nil {
		return nil, err
	}
	return &models.Transaction{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Date:        date,
		Description: tx.Description,
		Amount:      tx.Amount,
		Category:    tx.Category,
		IsExpense:   tx.Expense(),
		IsFlagged:   tx.Flagged(),
		FlagReason:  tx.FlagReason,
		CreatedAt:   o.now(),
	}, nil
}

// markFailed must land even when the job context is already cancelled.
func (o *Orchestrator) markFailed(ctx context.Context, documentID uuid.UUID, log *zap.Logger) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
	defer cancel()

	if err := o.docs.UpdateStatus(writeCtx, documentID, models.DocumentStatusFailed); err != nil {
		log.Error("Failed to mark document failed", zap.Error(err))
	}
}

var transactionDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTransactionDate accepts ISO-8601 dates with an optional time part.
func ParseTransactionDate(value string) (time.Time, error) {
	for _, layout := range transactionDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid transaction date %q", value)
}
