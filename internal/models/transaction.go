package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one line item derived from a document. Rows are never updated.
type Transaction struct {
	ID          uuid.UUID       `db:"id"`
	DocumentID  uuid.UUID       `db:"document_id"`
	Date        time.Time       `db:"date"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
	Category    *string         `db:"category"`
	IsExpense   bool            `db:"is_expense"`
	IsFlagged   bool            `db:"is_flagged"`
	FlagReason  *string         `db:"flag_reason"`
	CreatedAt   time.Time       `db:"created_at"`
}
