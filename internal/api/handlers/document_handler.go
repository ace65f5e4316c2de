package handlers

import (
	"fmt"

	"github.com/maigenai/fingenius/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	docService *service.DocumentService
	logger     *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// UploadDocument godoc
// @Summary Upload a financial document
// @Description Upload a statement, bill or receipt. Processing runs in the background; poll the document for its status.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (.pdf, .png, .jpg, .jpeg)"
// @Param document_type formData string true "Document type label, e.g. bank_statement, credit_card_statement, receipt"
// @Param description formData string false "Free-form description"
// @Security Bearer
// @Success 202 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/documents/upload [post]
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	docType := c.FormValue("document_type")
	if docType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Document type is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	doc, err := h.docService.UploadDocument(c.Context(), userID, service.UploadInput{
		FileName:     file.Filename,
		DocumentType: docType,
		Description:  c.FormValue("description"),
		Content:      src,
	})
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to upload document")
	}

	return c.Status(fiber.StatusAccepted).JSON(doc)
}

// ListDocuments godoc
// @Summary List user's documents
// @Description Get a page of the user's documents, newest first
// @Tags documents
// @Produce json
// @Param limit query int false "Limit" default(100)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.DocumentListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	docs, err := h.docService.ListDocuments(c.Context(), userID, c.QueryInt("limit", 100), c.QueryInt("offset", 0))
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to list documents")
	}

	return c.JSON(docs)
}

// GetDocument godoc
// @Summary Get a document
// @Description Document with its extracted data, transactions and insights
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentDetailResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidDocumentID(c)
	}

	detail, err := h.docService.GetDocument(c.Context(), userID, documentID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to get document")
	}

	return c.JSON(detail)
}

// GetInsights godoc
// @Summary List document insights
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {array} dto.InsightResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/insights [get]
func (h *DocumentHandler) GetInsights(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidDocumentID(c)
	}

	insights, err := h.docService.GetInsights(c.Context(), userID, documentID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to get insights")
	}

	return c.JSON(insights)
}

// GetTransactions godoc
// @Summary List document transactions
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {array} dto.TransactionResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/transactions [get]
func (h *DocumentHandler) GetTransactions(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidDocumentID(c)
	}

	transactions, err := h.docService.GetTransactions(c.Context(), userID, documentID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to get transactions")
	}

	return c.JSON(transactions)
}

// ExportTransactions godoc
// @Summary Export document transactions as XLSX
// @Tags documents
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {file} file
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/transactions/export [get]
func (h *DocumentHandler) ExportTransactions(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidDocumentID(c)
	}

	data, err := h.docService.ExportTransactionsXLSX(c.Context(), userID, documentID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to export transactions")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="transactions-%s.xlsx"`, documentID))
	return c.Send(data)
}

// ReprocessDocument godoc
// @Summary Run the processing pipeline again
// @Description Queues a completed or failed document again. Transactions and insights from earlier runs are kept.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 202 {object} dto.ReprocessResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/documents/{id}/reprocess [post]
func (h *DocumentHandler) ReprocessDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidDocumentID(c)
	}

	resp, err := h.docService.ReprocessDocument(c.Context(), userID, documentID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to reprocess document")
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func invalidDocumentID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid document ID",
	})
}
