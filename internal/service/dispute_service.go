package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maigenai/fingenius/internal/dto"
	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDisputeNotFound         = errors.New("dispute not found")
	ErrDisputeReasonRequired   = errors.New("dispute reason is required")
	ErrInvalidDisputeStatus    = errors.New("invalid dispute status")
	ErrDisputeTransitionDenied = errors.New("dispute status can only move forward")
)

type DisputeStore interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.Dispute, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DisputeStatus) error
}

type LetterWriter interface {
	Generate(ctx context.Context, doc *models.Document, reason, details string) string
}

type DisputeService struct {
	docs     *DocumentService
	disputes DisputeStore
	letters  LetterWriter
	logger   *zap.Logger
}

func NewDisputeService(docs *DocumentService, disputes DisputeStore, letters LetterWriter, logger *zap.Logger) *DisputeService {
	return &DisputeService{
		docs:     docs,
		disputes: disputes,
		letters:  letters,
		logger:   logger,
	}
}

// CreateDispute drafts a letter for the document and stores it as a draft dispute.
// The letter is generated synchronously; a failed generation is stored as its error text.
func (s *DisputeService) CreateDispute(ctx context.Context, userID, documentID uuid.UUID, req *dto.CreateDisputeRequest) (*dto.DisputeResponse, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, ErrDisputeReasonRequired
	}

	doc, err := s.docs.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	letter := s.letters.Generate(ctx, doc, req.Reason, req.Details)

	now := time.Now().UTC()
	dispute := &models.Dispute{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		Reason:        req.Reason,
		Details:       req.Details,
		LetterContent: sanitizeUTF8(letter),
		Status:        models.DisputeStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, fmt.Errorf("failed to save dispute: %w", err)
	}

	s.logger.Info("Dispute drafted",
		zap.String("dispute_id", dispute.ID.String()),
		zap.String("document_id", doc.ID.String()),
	)

	resp := toDisputeResponse(dispute)
	return &resp, nil
}

func (s *DisputeService) ListDisputes(ctx context.Context, userID, documentID uuid.UUID) ([]dto.DisputeResponse, error) {
	if _, err := s.docs.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	disputes, err := s.disputes.ListByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load disputes: %w", err)
	}

	out := make([]dto.DisputeResponse, len(disputes))
	for i, d := range disputes {
		out[i] = toDisputeResponse(d)
	}
	return out, nil
}

// UpdateStatus moves a dispute forward: draft -> sent -> resolved.
func (s *DisputeService) UpdateStatus(ctx context.Context, userID, disputeID uuid.UUID, status string) (*dto.DisputeResponse, error) {
	next := models.DisputeStatus(strings.ToLower(strings.TrimSpace(status)))
	if !models.ValidDisputeStatus(next) {
		return nil, ErrInvalidDisputeStatus
	}

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to load dispute: %w", err)
	}

	if _, err := s.docs.ownedDocument(ctx, userID, dispute.DocumentID); err != nil {
		return nil, err
	}

	if !dispute.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrDisputeTransitionDenied, dispute.Status, next)
	}

	if err := s.disputes.UpdateStatus(ctx, dispute.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update dispute: %w", err)
	}

	dispute.Status = next
	dispute.UpdatedAt = time.Now().UTC()
	resp := toDisputeResponse(dispute)
	return &resp, nil
}

func toDisputeResponse(d *models.Dispute) dto.DisputeResponse {
	return dto.DisputeResponse{
		ID:            d.ID.String(),
		DocumentID:    d.DocumentID.String(),
		Reason:        d.Reason,
		Details:       d.Details,
		LetterContent: d.LetterContent,
		Status:        string(d.Status),
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
}
