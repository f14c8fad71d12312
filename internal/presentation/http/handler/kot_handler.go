package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/tablepos-api/internal/application/service"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/response"
)

// KOTHandler handles kitchen ticket requests
type KOTHandler struct {
	kotService *service.KOTService
}

// NewKOTHandler creates a new kitchen ticket handler
func NewKOTHandler(kotService *service.KOTService) *KOTHandler {
	return &KOTHandler{kotService: kotService}
}

// ListByBranch handles listing the tickets of a branch, newest first
func (h *KOTHandler) ListByBranch(c *gin.Context) {
	branchID, err := pathUUID(c, "branchId")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.kotService.ListKOTsByBranch(c.Request.Context(), scope(c), branchID, pageParams(c, 15))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Kitchen tickets retrieved successfully", result)
}

// ListUnprinted handles listing the tickets still waiting for the printer
func (h *KOTHandler) ListUnprinted(c *gin.Context) {
	branchID, err := pathUUID(c, "branchId")
	if err != nil {
		response.Error(c, err)
		return
	}

	kots, err := h.kotService.ListUnprinted(c.Request.Context(), scope(c), branchID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Unprinted kitchen tickets retrieved successfully", kots)
}

// Get handles getting a single ticket
func (h *KOTHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	kot, err := h.kotService.GetKOT(c.Request.Context(), scope(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Kitchen ticket retrieved successfully", kot)
}

// Print handles sending one ticket to the kitchen printer
func (h *KOTHandler) Print(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	kot, err := h.kotService.PrintKOT(c.Request.Context(), scope(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Kitchen ticket sent to printer", kot)
}

// PrintMany handles printing a batch. Individual failures are reported in
// the body, so the call itself succeeds.
func (h *KOTHandler) PrintMany(c *gin.Context) {
	var req request.PrintKOTsRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	result := h.kotService.PrintMultipleKOTs(c.Request.Context(), scope(c), req.KOTIDs)
	response.OK(c, "Kitchen tickets processed", result)
}

// Delete handles deleting an unprinted ticket
func (h *KOTHandler) Delete(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.kotService.DeleteKOT(c.Request.Context(), scope(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
