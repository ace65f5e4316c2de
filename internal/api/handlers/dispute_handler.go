package handlers

import (
	"github.com/maigenai/fingenius/internal/dto"
	"github.com/maigenai/fingenius/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DisputeHandler struct {
	disputeService *service.DisputeService
	logger         *zap.Logger
}

func NewDisputeHandler(disputeService *service.DisputeService, logger *zap.Logger) *DisputeHandler {
	return &DisputeHandler{
		disputeService: disputeService,
		logger:         logger,
	}
}

// CreateDispute godoc
// @Summary Generate a dispute letter
// @Description Drafts a dispute letter for the document and stores it with status draft
// @Tags disputes
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body dto.CreateDisputeRequest true "Dispute reason and details"
// @Security Bearer
// @Success 201 {object} dto.DisputeResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/disputes [post]
func (h *DisputeHandler) CreateDispute(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidDocumentID(c)
	}

	var req dto.CreateDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.disputeService.CreateDispute(c.Context(), userID, documentID, &req)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to create dispute")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListDisputes godoc
// @Summary List disputes for a document
// @Tags disputes
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {array} dto.DisputeResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/disputes [get]
func (h *DisputeHandler) ListDisputes(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidDocumentID(c)
	}

	disputes, err := h.disputeService.ListDisputes(c.Context(), userID, documentID)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to list disputes")
	}

	return c.JSON(disputes)
}

// UpdateStatus godoc
// @Summary Update dispute status
// @Description Moves a dispute forward: draft -> sent -> resolved
// @Tags disputes
// @Accept json
// @Produce json
// @Param id path string true "Dispute ID"
// @Param request body dto.UpdateDisputeStatusRequest true "New status"
// @Security Bearer
// @Success 200 {object} dto.DisputeResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/disputes/{id}/status [patch]
func (h *DisputeHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	disputeID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid dispute ID",
		})
	}

	var req dto.UpdateDisputeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.disputeService.UpdateStatus(c.Context(), userID, disputeID, req.Status)
	if err != nil {
		return serviceError(c, h.logger, err, "Failed to update dispute")
	}

	return c.JSON(resp)
}
