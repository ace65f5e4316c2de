package repository

import (
	"context"

	"github.com/maigenai/fingenius/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var insightColumns = []string{"id", "document_id", "insight_type", "title", "content", "importance", "created_at"}

type InsightRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewInsightRepository(db *pgxpool.Pool, logger *zap.Logger) *InsightRepository {
	return &InsightRepository{
		db:     db,
		logger: logger,
	}
}

func (r *InsightRepository) Create(ctx context.Context, insight *models.Insight) error {
	query := psql.Insert("insights").
		Columns(insightColumns...).
		Values(insight.ID, insight.DocumentID, insight.InsightType, insight.Title, insight.Content, insight.Importance, insight.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetByDocumentID returns the most important insights first.
func (r *InsightRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.Insight, error) {
	query := psql.Select(insightColumns...).
		From("insights").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("importance DESC", "created_at ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []*models.Insight
	for rows.Next() {
		var in models.Insight
		if err := rows.Scan(
			&in.ID, &in.DocumentID, &in.InsightType, &in.Title, &in.Content, &in.Importance, &in.CreatedAt,
		); err != nil {
			return nil, err
		}
		insights = append(insights, &in)
	}

	return insights, rows.Err()
}
