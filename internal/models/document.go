package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// DocumentType is a free-form label; the constants are the labels the upload form offers.
type DocumentType string

const (
	DocumentTypeBankStatement       DocumentType = "bank_statement"
	DocumentTypeCreditCardStatement DocumentType = "credit_card_statement"
	DocumentTypeUtilityBill         DocumentType = "utility_bill"
	DocumentTypeMedicalBill         DocumentType = "medical_bill"
	DocumentTypeReceipt             DocumentType = "receipt"
	DocumentTypeInvoice             DocumentType = "invoice"
	DocumentTypeOther               DocumentType = "other"
)

type Document struct {
	ID               uuid.UUID      `db:"id"`
	UserID           uuid.UUID      `db:"user_id"`
	OriginalFilename string         `db:"original_filename"`
	StoredFilename   string         `db:"stored_filename"`
	Type             DocumentType   `db:"document_type"`
	Description      *string        `db:"description"`
	FileSize         int64          `db:"file_size"`
	Status           DocumentStatus `db:"status"`
	ExtractedData    map[string]any `db:"extracted_data"` // nil until the structured stage persists it
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (d *Document) IsTerminal() bool {
	return d.Status == DocumentStatusCompleted || d.Status == DocumentStatusFailed
}
