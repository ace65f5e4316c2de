package repository

import (
	"context"

	"github.com/maigenai/fingenius/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "document_id", "date", "description", "amount", "category",
	"is_expense", "is_flagged", "flag_reason", "created_at",
}

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := psql.Insert("transactions").
		Columns(transactionColumns...).
		Values(tx.ID, tx.DocumentID, tx.Date, tx.Description, tx.Amount, tx.Category,
			tx.IsExpense, tx.IsFlagged, tx.FlagReason, tx.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetByDocumentID returns rows in insertion order.
func (r *TransactionRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.Transaction, error) {
	query := psql.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.DocumentID, &tx.Date, &tx.Description, &tx.Amount, &tx.Category,
			&tx.IsExpense, &tx.IsFlagged, &tx.FlagReason, &tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}
