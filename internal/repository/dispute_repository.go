package repository

import (
	"context"

	"github.com/maigenai/fingenius/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var disputeColumns = []string{"id", "document_id", "reason", "details", "letter_content", "status", "created_at", "updated_at"}

type DisputeRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDisputeRepository(db *pgxpool.Pool, logger *zap.Logger) *DisputeRepository {
	return &DisputeRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := psql.Insert("disputes").
		Columns(disputeColumns...).
		Values(d.ID, d.DocumentID, d.Reason, d.Details, d.LetterContent, d.Status, d.CreatedAt, d.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	sql, args, err := psql.Select(disputeColumns...).
		From("disputes").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var d models.Dispute
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&d.ID, &d.DocumentID, &d.Reason, &d.Details, &d.LetterContent, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *DisputeRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.Dispute, error) {
	sql, args, err := psql.Select(disputeColumns...).
		From("disputes").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []*models.Dispute
	for rows.Next() {
		var d models.Dispute
		if err := rows.Scan(
			&d.ID, &d.DocumentID, &d.Reason, &d.Details, &d.LetterContent, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		disputes = append(disputes, &d)
	}

	return disputes, rows.Err()
}

func (r *DisputeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DisputeStatus) error {
	sql, args, err := psql.Update("disputes").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
