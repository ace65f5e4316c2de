package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maigenai/fingenius/internal/api"
	"github.com/maigenai/fingenius/internal/api/handlers"
	"github.com/maigenai/fingenius/internal/models"
	"github.com/maigenai/fingenius/internal/repository"
	"github.com/maigenai/fingenius/internal/service"
	"github.com/maigenai/fingenius/internal/worker"
	"github.com/maigenai/fingenius/pkg/auth"
	"github.com/maigenai/fingenius/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type docStore map[uuid.UUID]*models.Document

func (s docStore) Create(_ context.Context, d *models.Document) error { s[d.ID] = d; return nil }

func (s docStore) GetByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	if d, ok := s[id]; ok {
		return d, nil
	}
	return nil, repository.ErrNotFound
}

func (s docStore) UpdateStatus(_ context.Context, id uuid.UUID, st models.DocumentStatus) error {
	s[id].Status = st
	return nil
}

func (s docStore) ListByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range s {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

type noRows struct{}

func (noRows) GetByDocumentID(context.Context, uuid.UUID) ([]*models.Transaction, error) {
	return nil, nil
}

type noInsights struct{}

func (noInsights) GetByDocumentID(context.Context, uuid.UUID) ([]*models.Insight, error) {
	return nil, nil
}

type discardFiles struct{}

func (discardFiles) Save(_ context.Context, _ string, r io.Reader) (int64, error) {
	return io.Copy(io.Discard, r)
}
func (discardFiles) Delete(context.Context, string) error { return nil }

type queueStub struct {
	ids []uuid.UUID
	err error
}

func (q *queueStub) Enqueue(_ context.Context, id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type disputeStore map[uuid.UUID]*models.Dispute

func (s disputeStore) Create(_ context.Context, d *models.Dispute) error { s[d.ID] = d; return nil }
func (s disputeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	if d, ok := s[id]; ok {
		return d, nil
	}
	return nil, repository.ErrNotFound
}
func (s disputeStore) ListByDocumentID(context.Context, uuid.UUID) ([]*models.Dispute, error) {
	return nil, nil
}
func (s disputeStore) UpdateStatus(_ context.Context, id uuid.UUID, st models.DisputeStatus) error {
	s[id].Status = st
	return nil
}

type letter string

func (l letter) Generate(context.Context, *models.Document, string, string) string { return string(l) }

type userStore struct{}

func (userStore) Create(context.Context, *models.User) error { return nil }
func (userStore) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, repository.ErrNotFound
}
func (userStore) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, repository.ErrNotFound
}

type testServer struct {
	app   *fiber.App
	docs  docStore
	queue *queueStub
	jwt   *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	jwt := auth.NewJWTManager("router-secret", time.Hour, 24*time.Hour)
	docs := docStore{}
	queue := &queueStub{}

	docService := service.NewDocumentService(docs, noRows{}, noInsights{}, discardFiles{}, queue, log)
	disputeService := service.NewDisputeService(docService, disputeStore{}, letter("Dear Bank,"), log)
	authService := service.NewAuthService(userStore{}, jwt, log)

	app := api.SetupRouter(api.Handlers{
		Auth:     handlers.NewAuthHandler(authService, log),
		Document: handlers.NewDocumentHandler(docService, log),
		Dispute:  handlers.NewDisputeHandler(disputeService, log),
	}, jwt, &config.ServerConfig{BodyLimitMB: 1}, log)

	return &testServer{app: app, docs: docs, queue: queue, jwt: jwt}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(userID.String(), "ada", "ada@example.com")
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func uploadRequest(t *testing.T, fileName, docType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, _ = part.Write([]byte("image bytes"))
	if docType != "" {
		require.NoError(t, w.WriteField("document_type", docType))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUploadRoute(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		docType  string
		queueErr error
		want     int
	}{
		{name: "accepted", fileName: "receipt.jpg", docType: "receipt", want: http.StatusAccepted},
		{name: "missing type", fileName: "receipt.jpg", want: http.StatusBadRequest},
		{name: "unsupported file", fileName: "receipt.gif", docType: "receipt", want: http.StatusBadRequest},
		{name: "queue full", fileName: "receipt.jpg", docType: "receipt", queueErr: worker.ErrQueueFull, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.queue.err = tt.queueErr
			req := uploadRequest(t, tt.fileName, tt.docType)
			req.Header.Set(fiber.HeaderAuthorization, s.token(t, uuid.New()))

			status, body := s.do(t, req)
			assert.Equal(t, tt.want, status)
			if tt.want == http.StatusAccepted {
				assert.Equal(t, "pending", body["status"])
				assert.Len(t, s.queue.ids, 1)
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestDocumentAccess(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()
	doc := &models.Document{ID: uuid.New(), UserID: owner, Status: models.DocumentStatusCompleted}
	s.docs[doc.ID] = doc

	tests := []struct {
		name string
		user uuid.UUID
		path string
		want int
	}{
		{name: "owner", user: owner, path: "/api/v1/documents/" + doc.ID.String(), want: http.StatusOK},
		{name: "other user", user: uuid.New(), path: "/api/v1/documents/" + doc.ID.String(), want: http.StatusForbidden},
		{name: "unknown", user: owner, path: "/api/v1/documents/" + uuid.NewString() + "/insights", want: http.StatusNotFound},
		{name: "bad id", user: owner, path: "/api/v1/documents/nope/transactions", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(fiber.HeaderAuthorization, s.token(t, tt.user))
			status, _ := s.do(t, req)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestDisputeRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := uuid.New()
	doc := &models.Document{ID: uuid.New(), UserID: owner, Status: models.DocumentStatusCompleted}
	s.docs[doc.ID] = doc
	bearer := s.token(t, owner)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID.String()+"/disputes",
		strings.NewReader(`{"reason":"double charge","details":"twice on 2024-02-02"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, bearer)

	status, body := s.do(t, req)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "draft", body["status"])
	assert.Equal(t, "Dear Bank,", body["letter_content"])

	id := body["id"].(string)
	patch := func(status string) int {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/disputes/"+id+"/status",
			strings.NewReader(`{"status":"`+status+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		code, _ := s.do(t, req)
		return code
	}

	assert.Equal(t, http.StatusOK, patch("sent"))
	assert.Equal(t, http.StatusConflict, patch("draft"))
	assert.Equal(t, http.StatusBadRequest, patch("lost"))
}

func TestMeUnknownUser(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.token(t, uuid.New()))

	status, body := s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["error"])
}
