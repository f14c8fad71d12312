package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/tablepos-api/internal/domain/enum"
)

// OrderItemRequest is one requested order line
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Qty       int       `json:"qty" binding:"required,min=1,max=10000"`
	Notes     string    `json:"notes" binding:"omitempty,max=500"`
}

// CreateOrderRequest represents an order creation request
type CreateOrderRequest struct {
	BranchID uuid.UUID          `json:"branch_id"`
	TableID  *uuid.UUID         `json:"table_id"`
	Items    []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Tax      decimal.Decimal    `json:"tax"`
	Discount decimal.Decimal    `json:"discount"`
	Notes    string             `json:"notes" binding:"omitempty,max=1000"`
}

// UpdateOrderStatusRequest moves an order to another status
type UpdateOrderStatusRequest struct {
	Status enum.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderItemStatusRequest moves an order line to another status
type UpdateOrderItemStatusRequest struct {
	Status enum.OrderItemStatus `json:"status" binding:"required"`
}

// VoidOrderRequest cancels an order
type VoidOrderRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}
