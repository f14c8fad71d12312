package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/tablepos-api/internal/application/service"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tablepos-api/pkg/apperror"
)

// InventoryHandler handles stock ledger requests
type InventoryHandler struct {
	stockService *service.StockService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(stockService *service.StockService) *InventoryHandler {
	return &InventoryHandler{stockService: stockService}
}

// List handles listing stock items
func (h *InventoryHandler) List(c *gin.Context) {
	branchID, err := queryUUID(c, "branch_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.stockService.ListStockItems(c.Request.Context(), scope(c), branchID, pageParams(c, 15))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Stock items retrieved successfully", result)
}

// Create handles starting to track a product
func (h *InventoryHandler) Create(c *gin.Context) {
	var req request.CreateStockItemRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.stockService.CreateStockItem(c.Request.Context(), scope(c), &service.CreateStockItemInput{
		ProductID: req.ProductID,
		BranchID:  req.BranchID,
		Qty:       req.Qty,
		MinQty:    req.MinQty,
		UserID:    GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Stock item created successfully", item)
}

// LowStock handles listing items below their reorder threshold
func (h *InventoryHandler) LowStock(c *gin.Context) {
	branchID, err := queryUUID(c, "branch_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.stockService.GetLowStock(c.Request.Context(), scope(c), branchID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Low stock items retrieved successfully", items)
}

// Summary handles stock totals
func (h *InventoryHandler) Summary(c *gin.Context) {
	summary, err := h.stockService.StockSummary(c.Request.Context(), scope(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock summary retrieved successfully", summary)
}

// ListMovements handles the movement audit trail, newest first
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, err := queryUUID(c, "product_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var movementType *enum.MovementType
	if raw := c.Query("type"); raw != "" {
		t := enum.MovementType(raw)
		if !t.Valid() {
			response.Error(c, apperror.NewFieldError("type", "unknown movement type"))
			return
		}
		movementType = &t
	}

	result, err := h.stockService.ListMovements(c.Request.Context(), scope(c), productID, movementType, pageParams(c, 15))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Stock movements retrieved successfully", result)
}

// RecordMovement handles a manual stock movement
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req request.RecordMovementRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.stockService.RecordMovement(c.Request.Context(), scope(c), &service.RecordMovementInput{
		ProductID: req.ProductID,
		BranchID:  req.BranchID,
		Type:      req.Type,
		Qty:       req.Qty,
		Reference: req.Reference,
		UserID:    GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Stock movement recorded successfully", result)
}

// Get handles getting a single stock item
func (h *InventoryHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.stockService.GetStockItem(c.Request.Context(), scope(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock item retrieved successfully", item)
}

// Update handles changing the reorder threshold
func (h *InventoryHandler) Update(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateStockItemRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.stockService.UpdateMinQty(c.Request.Context(), scope(c), id, *req.MinQty)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock item updated successfully", item)
}

// Delete handles removing an empty stock item
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.stockService.DeleteStockItem(c.Request.Context(), scope(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
