package models

import (
	"time"

	"github.com/google/uuid"
)

const InsightTypeSystem = "system"

type Insight struct {
	ID          uuid.UUID `db:"id"`
	DocumentID  uuid.UUID `db:"document_id"`
	InsightType string    `db:"insight_type"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	Importance  int       `db:"importance"` // 1..5
	CreatedAt   time.Time `db:"created_at"`
}
