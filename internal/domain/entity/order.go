package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/pkg/money"
)

// Order represents a sale at a branch
type Order struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	TenantID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenant_id"`
	BranchID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"branch_id"`
	TableID      *uuid.UUID       `gorm:"type:uuid;index" json:"table_id,omitempty"`
	UserID       *uuid.UUID       `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Status       enum.OrderStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	Subtotal     money.Money      `gorm:"not null;default:0" json:"subtotal"`
	Tax          money.Money      `gorm:"not null;default:0" json:"tax"`
	Discount     money.Money      `gorm:"not null;default:0" json:"discount"`
	Total        money.Money      `gorm:"not null;default:0" json:"total"`
	Notes        string           `gorm:"type:text" json:"notes,omitempty"`
	CancelReason string           `gorm:"size:500" json:"cancel_reason,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	CancelledAt  *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// MaxItemQty bounds the quantity of a single order line.
const MaxItemQty = 10000

// RecalculateTotals derives Subtotal and Total from the persisted line prices.
// Cancelled lines do not count. It fails with money.ErrOutOfRange when a
// line or the order total does not fit in int64 cents.
func (o *Order) RecalculateTotals() error {
	var subtotal money.Money
	for i := range o.Items {
		item := &o.Items[i]
		lineTotal, err := item.Price.CheckedMul(item.Qty)
		if err != nil {
			return err
		}
		item.LineTotal = lineTotal
		if item.Status == enum.OrderItemStatusCancelled {
			continue
		}
		if subtotal, err = subtotal.CheckedAdd(lineTotal); err != nil {
			return err
		}
	}
	total, err := subtotal.CheckedAdd(o.Tax)
	if err != nil {
		return err
	}
	o.Subtotal = subtotal
	o.Total = total.Sub(o.Discount)
	return nil
}

// ActiveItems returns the lines that are not cancelled.
func (o *Order) ActiveItems() []OrderItem {
	active := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Status != enum.OrderItemStatusCancelled {
			active = append(active, item)
		}
	}
	return active
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line of an order. Price is a snapshot taken when the line
// was added and never changes afterwards.
type OrderItem struct {
	ID        uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID            `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID   uuid.UUID            `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID            `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string               `gorm:"size:255;not null" json:"name"`
	Qty       int                  `gorm:"not null" json:"qty"`
	Price     money.Money          `gorm:"not null" json:"price"`
	LineTotal money.Money          `gorm:"not null" json:"line_total"`
	Status    enum.OrderItemStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	Notes     string               `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new order item
func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
