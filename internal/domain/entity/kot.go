package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KOT is the kitchen order ticket of an order. There is at most one per order.
type KOT struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	BranchID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"branch_id"`
	Payload   KOTPayload `gorm:"type:jsonb;serializer:json" json:"payload"`
	Printed   bool       `gorm:"not null;default:false;index" json:"printed"`
	PrintedAt *time.Time `json:"printed_at,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// KOTPayload is the item snapshot sent to the kitchen printer
type KOTPayload struct {
	OrderID   uuid.UUID  `json:"order_id"`
	BranchID  uuid.UUID  `json:"branch_id"`
	TableID   *uuid.UUID `json:"table_id,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Items     []KOTLine  `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

// KOTLine is one ticket line
type KOTLine struct {
	ItemID    uuid.UUID `json:"item_id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Qty       int       `json:"qty"`
	Notes     string    `json:"notes,omitempty"`
}

// NewKOTPayload snapshots the active lines of an order.
func NewKOTPayload(order *Order, at time.Time) KOTPayload {
	items := order.ActiveItems()
	lines := make([]KOTLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, KOTLine{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       item.Qty,
			Notes:     item.Notes,
		})
	}
	return KOTPayload{
		OrderID:   order.ID,
		BranchID:  order.BranchID,
		TableID:   order.TableID,
		Notes:     order.Notes,
		Items:     lines,
		CreatedAt: at,
	}
}

func (k *KOT) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

func (KOT) TableName() string {
	return "kots"
}
