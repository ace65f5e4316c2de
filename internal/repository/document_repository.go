package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maigenai/fingenius/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var documentColumns = []string{
	"id", "user_id", "original_filename", "stored_filename", "document_type", "description",
	"file_size", "status", "extracted_data", "created_at", "updated_at",
}

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	extracted, err := marshalExtractedData(doc.ExtractedData)
	if err != nil {
		return err
	}

	query := psql.Insert("documents").
		Columns(documentColumns...).
		Values(doc.ID, doc.UserID, doc.OriginalFilename, doc.StoredFilename, doc.Type, doc.Description,
			doc.FileSize, doc.Status, extracted, doc.CreatedAt, doc.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetByID returns ErrNotFound when no row matches.
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	sql, args, err := selectDocuments().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error {
	query := psql.Update("documents").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	return r.execUpdate(ctx, query)
}

func (r *DocumentRepository) UpdateExtractedData(ctx context.Context, id uuid.UUID, data map[string]any) error {
	extracted, err := marshalExtractedData(data)
	if err != nil {
		return err
	}

	query := psql.Update("documents").
		Set("extracted_data", extracted).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	return r.execUpdate(ctx, query)
}

func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	query := selectDocuments().
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.list(ctx, query)
}

// ListByStatus returns documents in the given status, oldest first.
func (r *DocumentRepository) ListByStatus(ctx context.Context, status models.DocumentStatus) ([]*models.Document, error) {
	query := selectDocuments().
		Where(squirrel.Eq{"status": status}).
		OrderBy("created_at ASC")

	return r.list(ctx, query)
}

func (r *DocumentRepository) execUpdate(ctx context.Context, query squirrel.UpdateBuilder) error {
	sql, args, err := query.ToSql()
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

func (r *DocumentRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Document, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}

	return documents, rows.Err()
}

func selectDocuments() squirrel.SelectBuilder {
	return psql.Select(documentColumns...).From("documents")
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var (
		doc       models.Document
		extracted []byte
	)
	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.OriginalFilename, &doc.StoredFilename, &doc.Type, &doc.Description,
		&doc.FileSize, &doc.Status, &extracted, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(extracted) > 0 {
		if err := json.Unmarshal(extracted, &doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("failed to decode extracted_data: %w", err)
		}
	}
	return &doc, nil
}

// marshalExtractedData keeps a nil map as SQL NULL.
func marshalExtractedData(data map[string]any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extracted_data: %w", err)
	}
	return raw, nil
}
