package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/application/service"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tablepos-api/internal/presentation/http/middleware"
	"github.com/sangkips/tablepos-api/pkg/apperror"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create handles creating an order. A token pinned to a branch may only
// order for that branch, and supplies it when the body omits it.
func (h *OrderHandler) Create(c *gin.Context) {
	var req request.CreateOrderRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	if branchID, ok := middleware.GetBranchID(c); ok {
		if req.BranchID == uuid.Nil {
			req.BranchID = branchID
		} else if req.BranchID != branchID {
			response.Error(c, apperror.NewAppError(403, apperror.ReasonForbidden, "Token is not valid for this branch"))
			return
		}
	}

	tax, err := amount("tax", req.Tax)
	if err != nil {
		response.Error(c, err)
		return
	}
	discount, err := amount("discount", req.Discount)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]service.OrderItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.OrderItemInput{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			Notes:     item.Notes,
		}
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), scope(c), &service.CreateOrderInput{
		BranchID: req.BranchID,
		TableID:  req.TableID,
		UserID:   GetUserID(c),
		Items:    items,
		Tax:      tax,
		Discount: discount,
		Notes:    req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Order created successfully", order)
}

// List handles listing orders
func (h *OrderHandler) List(c *gin.Context) {
	branchID, err := queryUUID(c, "branch_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	input := &service.ListOrdersInput{
		BranchID:   branchID,
		Pagination: pageParams(c, 15),
	}
	if raw := c.Query("status"); raw != "" {
		status := enum.OrderStatus(raw)
		input.Status = &status
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), scope(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Orders retrieved successfully", result)
}

// Stats handles order statistics
func (h *OrderHandler) Stats(c *gin.Context) {
	branchID, err := queryUUID(c, "branch_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.orderService.OrderStats(c.Request.Context(), scope(c), branchID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order statistics retrieved successfully", stats)
}

// ListByTable handles listing the open orders of a table
func (h *OrderHandler) ListByTable(c *gin.Context) {
	tableID, err := pathUUID(c, "tableId")
	if err != nil {
		response.Error(c, err)
		return
	}

	orders, err := h.orderService.ListOpenOrdersByTable(c.Request.Context(), scope(c), tableID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Orders retrieved successfully", orders)
}

// Get handles getting a single order
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), scope(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// UpdateStatus handles updating order status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateOrderStatusRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), scope(c), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order status updated successfully", order)
}

// AddItem handles adding a line to an open order
func (h *OrderHandler) AddItem(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.OrderItemRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.orderService.AddOrderItem(c.Request.Context(), scope(c), id, &service.OrderItemInput{
		ProductID: req.ProductID,
		Qty:       req.Qty,
		Notes:     req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order item added successfully", order)
}

// RemoveItem handles removing a line from an open order
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.orderService.RemoveOrderItem(c.Request.Context(), scope(c), id, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order item removed successfully", order)
}

// UpdateItemStatus handles moving a line through the kitchen
func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	itemID, err := pathUUID(c, "itemId")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateOrderItemStatusRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	order, err := h.orderService.UpdateOrderItemStatus(c.Request.Context(), scope(c), id, itemID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order item status updated successfully", order)
}

// Void handles cancelling an order
func (h *OrderHandler) Void(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.VoidOrderRequest
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
	}

	order, err := h.orderService.VoidOrder(c.Request.Context(), scope(c), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Order voided successfully", order)
}
