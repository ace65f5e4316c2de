package service_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/repository"

	"github.com/google/uuid"
)

type memDocuments struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*models.Document
}

func newMemDocuments(docs ...*models.Document) *memDocuments {
	m := &memDocuments{docs: make(map[uuid.UUID]*models.Document)}
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return m
}

func (m *memDocuments) Create(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memDocuments) GetByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDocuments) UpdateStatus(_ context.Context, id uuid.UUID, status models.DocumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

func (m *memDocuments) ListByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Document
	for _, d := range m.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memTransactions map[uuid.UUID][]*models.Transaction

func (m memTransactions) GetByDocumentID(_ context.Context, id uuid.UUID) ([]*models.Transaction, error) {
	return m[id], nil
}

type memInsights map[uuid.UUID][]*models.Insight

func (m memInsights) GetByDocumentID(_ context.Context, id uuid.UUID) ([]*models.Insight, error) {
	return m[id], nil
}

type memFiles struct {
	files   map[string][]byte
	deleted []string
}

func newMemFiles() *memFiles { return &memFiles{files: make(map[string][]byte)} }

func (m *memFiles) Save(_ context.Context, name string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	m.files[name] = buf.Bytes()
	return n, nil
}

func (m *memFiles) Delete(_ context.Context, name string) error {
	delete(m.files, name)
	m.deleted = append(m.deleted, name)
	return nil
}

type recordingQueue struct {
	ids []uuid.UUID
	err error
}

func (q *recordingQueue) Enqueue(_ context.Context, id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type memDisputes struct {
	rows map[uuid.UUID]*models.Dispute
}

func newMemDisputes() *memDisputes { return &memDisputes{rows: make(map[uuid.UUID]*models.Dispute)} }

func (m *memDisputes) Create(_ context.Context, d *models.Dispute) error {
	cp := *d
	m.rows[d.ID] = &cp
	return nil
}

func (m *memDisputes) GetByID(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	d, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDisputes) ListByDocumentID(_ context.Context, id uuid.UUID) ([]*models.Dispute, error) {
	var out []*models.Dispute
	for _, d := range m.rows {
		if d.DocumentID == id {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDisputes) UpdateStatus(_ context.Context, id uuid.UUID, status models.DisputeStatus) error {
	d, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

type memUsers struct {
	byID map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers { return &memUsers{byID: make(map[uuid.UUID]*models.User)} }

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
