package pipeline_test

import (
	"context"
	"sync"

	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/repository"
	"github.com/maigenai/fingenius/internal/storage"

	"github.com/google/uuid"
)

type memDocs struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]*models.Document
	statuses []models.DocumentStatus
	failOn   models.DocumentStatus
	// ctxErrs records the context error seen by each status write.
	ctxErrs []error
}

func newMemDocs(docs ...*models.Document) *memDocs {
	m := &memDocs{docs: make(map[uuid.UUID]*models.Document)}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *memDocs) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDocs) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	if status == m.failOn {
		return context.DeadlineExceeded
	}
	m.docs[id].Status = status
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *memDocs) UpdateExtractedData(ctx context.Context, id uuid.UUID, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id].ExtractedData = data
	return nil
}

func (m *memDocs) status(id uuid.UUID) models.DocumentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id].Status
}

type memRows[T any] struct {
	mu   sync.Mutex
	rows []*T
	err  error
}

func (m *memRows[T]) Create(ctx context.Context, row *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memRows[T]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memFiles map[string][]byte

func (m memFiles) Exists(ctx context.Context, name string) (bool, error) {
	_, ok := m[name]
	return ok, nil
}

func (m memFiles) ReadBytes(ctx context.Context, name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return data, nil
}

type fixedText string

func (f fixedText) Extract(ctx context.Context, data []byte, fileName string) string {
	return string(f)
}

type panicText struct{}

func (panicText) Extract(ctx context.Context, data []byte, fileName string) string {
	panic("mupdf segfault")
}
