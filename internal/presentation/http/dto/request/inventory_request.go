package request

import (
	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/enum"
)

// CreateStockItemRequest starts tracking a product
type CreateStockItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	BranchID  *uuid.UUID `json:"branch_id"`
	Qty       int        `json:"qty" binding:"min=0"`
	MinQty    *int       `json:"min_qty" binding:"omitempty,min=0"`
}

// UpdateStockItemRequest changes the reorder threshold
type UpdateStockItemRequest struct {
	MinQty *int `json:"min_qty" binding:"required,min=0"`
}

// RecordMovementRequest represents a manual stock movement
type RecordMovementRequest struct {
	ProductID uuid.UUID         `json:"product_id" binding:"required"`
	BranchID  *uuid.UUID        `json:"branch_id"`
	Type      enum.MovementType `json:"type" binding:"required"`
	Qty       int               `json:"qty" binding:"required,min=1"`
	Reference string            `json:"reference" binding:"omitempty,max=255"`
}
