package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/maigenai/fingenius/internal/dto"
	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/repository"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrForbidden           = errors.New("not authorized to access this document")
	ErrUnsupportedFileType = errors.New("file type not allowed, allowed types: .pdf, .png, .jpg, .jpeg")
	ErrInvalidPDF          = errors.New("file is not a valid PDF")
	ErrDocumentBusy        = errors.New("document is already queued or processing")
	ErrQueueUnavailable    = errors.New("processing queue unavailable")
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error)
}

type TransactionReader interface {
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.Transaction, error)
}

type InsightReader interface {
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.Insight, error)
}

type FileSaver interface {
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	Delete(ctx context.Context, name string) error
}

// Enqueuer hands a document to background processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, documentID uuid.UUID) error
}

type DocumentService struct {
	docRepo DocumentStore
	txRepo  TransactionReader
	insRepo InsightReader
	files   FileSaver
	queue   Enqueuer
	logger  *zap.Logger
}

func NewDocumentService(
	docRepo DocumentStore,
	txRepo TransactionReader,
	insRepo InsightReader,
	files FileSaver,
	queue Enqueuer,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		txRepo:  txRepo,
		insRepo: insRepo,
		files:   files,
		queue:   queue,
		logger:  logger,
	}
}

type UploadInput struct {
	FileName     string
	DocumentType string
	Description  string
	Content      io.Reader
}

// UploadDocument stores the file, records the document as pending and queues one processing job.
// The document row survives a queue failure and can be picked up again with ReprocessDocument.
func (s *DocumentService) UploadDocument(ctx context.Context, userID uuid.UUID, in UploadInput) (*dto.DocumentResponse, error) {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if MediaKindFromFilename(in.FileName) == MediaUnsupported {
		return nil, ErrUnsupportedFileType
	}

	data, err := io.ReadAll(in.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if ext == ".pdf" {
		if err := api.Validate(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
			s.logger.Warn("Rejected invalid PDF", zap.String("file_name", in.FileName), zap.Error(err))
			return nil, ErrInvalidPDF
		}
	}

	fileID := uuid.New()
	storedName := fileID.String() + ext

	size, err := s.files.Save(ctx, storedName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	docType := models.DocumentType(strings.TrimSpace(in.DocumentType))
	if docType == "" {
		docType = models.DocumentTypeOther
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:               fileID,
		UserID:           userID,
		OriginalFilename: in.FileName,
		StoredFilename:   storedName,
		Type:             docType,
		FileSize:         size,
		Status:           models.DocumentStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		doc.Description = &d
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		if delErr := s.files.Delete(ctx, storedName); delErr != nil {
			s.logger.Warn("Failed to remove orphaned file", zap.String("stored_filename", storedName), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("document_type", string(doc.Type)),
		zap.Int64("file_size", size),
	)

	if err := s.queue.Enqueue(ctx, doc.ID); err != nil {
		s.logger.Error("Failed to queue document", zap.String("document_id", doc.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// ListDocuments lists user's documents, newest first
func (s *DocumentService) ListDocuments(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.DocumentListResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := s.docRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}

	return &dto.DocumentListResponse{
		Documents: responses,
		Limit:     limit,
		Offset:    offset,
	}, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*dto.DocumentDetailResponse, error) {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactions(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	insights, err := s.insights(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	return &dto.DocumentDetailResponse{
		Document:     toDocumentResponse(doc),
		Transactions: transactions,
		Insights:     insights,
	}, nil
}

func (s *DocumentService) GetInsights(ctx context.Context, userID, documentID uuid.UUID) ([]dto.InsightResponse, error) {
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.insights(ctx, documentID)
}

func (s *DocumentService) GetTransactions(ctx context.Context, userID, documentID uuid.UUID) ([]dto.TransactionResponse, error) {
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.transactions(ctx, documentID)
}

// ReprocessDocument queues a finished document again. The orchestrator moves it
// to processing when the job starts; rows from earlier runs are kept, so a second
// run appends to them. Pending and processing documents already have a job.
func (s *DocumentService) ReprocessDocument(ctx context.Context, userID, documentID uuid.UUID) (*dto.ReprocessResponse, error) {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.IsTerminal() {
		return nil, ErrDocumentBusy
	}

	if err := s.queue.Enqueue(ctx, doc.ID); err != nil {
		s.logger.Error("Failed to queue document", zap.String("document_id", doc.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	s.logger.Info("Document queued for reprocessing", zap.String("document_id", doc.ID.String()))
	return &dto.ReprocessResponse{
		DocumentID: doc.ID.String(),
		Status:     string(doc.Status),
	}, nil
}

func (s *DocumentService) ownedDocument(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc.UserID != userID {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *DocumentService) transactions(ctx context.Context, documentID uuid.UUID) ([]dto.TransactionResponse, error) {
	rows, err := s.txRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	out := make([]dto.TransactionResponse, len(rows))
	for i, tx := range rows {
		out[i] = toTransactionResponse(tx)
	}
	return out, nil
}

func (s *DocumentService) insights(ctx context.Context, documentID uuid.UUID) ([]dto.InsightResponse, error) {
	rows, err := s.insRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load insights: %w", err)
	}
	out := make([]dto.InsightResponse, len(rows))
	for i, ins := range rows {
		out[i] = dto.InsightResponse{
			ID:          ins.ID.String(),
			InsightType: ins.InsightType,
			Title:       ins.Title,
			Content:     ins.Content,
			Importance:  ins.Importance,
			CreatedAt:   ins.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}

func toDocumentResponse(doc *models.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:               doc.ID.String(),
		OriginalFilename: doc.OriginalFilename,
		DocumentType:     string(doc.Type),
		Description:      doc.Description,
		FileSize:         doc.FileSize,
		Status:           string(doc.Status),
		ExtractedData:    doc.ExtractedData,
		CreatedAt:        doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        doc.UpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionResponse(tx *models.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:          tx.ID.String(),
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(2),
		Category:    tx.Category,
		IsExpense:   tx.IsExpense,
		IsFlagged:   tx.IsFlagged,
		FlagReason:  tx.FlagReason,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}
