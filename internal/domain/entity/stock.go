package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/enum"
)

// StockItem is the on-hand quantity of one product, either tenant wide
// (BranchID nil) or for a single branch. NULLs never collide in
// idx_stock_items_scope, so idx_stock_items_tenant_wide keeps one tenant
// wide row per product.
type StockItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_items_scope,priority:1;uniqueIndex:idx_stock_items_tenant_wide,priority:1,where:branch_id IS NULL" json:"tenant_id"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_items_scope,priority:2;uniqueIndex:idx_stock_items_tenant_wide,priority:2,where:branch_id IS NULL" json:"product_id"`
	BranchID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_stock_items_scope,priority:3" json:"branch_id,omitempty"`
	Qty       int        `gorm:"not null;default:0;check:qty >= 0" json:"qty"`
	MinQty    int        `gorm:"not null;check:min_qty >= 0" json:"min_qty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// IsLow reports whether the item is below its reorder threshold.
func (s *StockItem) IsLow() bool {
	return s.Qty < s.MinQty
}

func (s *StockItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (StockItem) TableName() string {
	return "stock_items"
}

// StockMovement is an append-only record of a quantity change.
type StockMovement struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	StockItemID uuid.UUID         `gorm:"type:uuid;not null;index" json:"stock_item_id"`
	ProductID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"product_id"`
	BranchID    *uuid.UUID        `gorm:"type:uuid" json:"branch_id,omitempty"`
	Type        enum.MovementType `gorm:"size:20;not null;index" json:"type"`
	Qty         int               `gorm:"not null" json:"qty"`
	QtyAfter    int               `gorm:"not null" json:"qty_after"`
	Reference   string            `gorm:"size:255" json:"reference,omitempty"`
	CreatedBy   *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (StockMovement) TableName() string {
	return "stock_movements"
}
