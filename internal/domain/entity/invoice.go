package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/pkg/money"
)

// Invoice is the billable document issued for one order
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_tenant_number,priority:1" json:"tenant_id"`
	OrderID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"order_id"`
	InvoiceNumber string             `gorm:"size:32;not null;uniqueIndex:idx_invoices_tenant_number,priority:2" json:"invoice_number"`
	Subtotal      money.Money        `gorm:"not null" json:"subtotal"`
	Tax           money.Money        `gorm:"not null;default:0" json:"tax"`
	Discount      money.Money        `gorm:"not null;default:0" json:"discount"`
	Amount        money.Money        `gorm:"not null" json:"amount"`
	Status        enum.InvoiceStatus `gorm:"size:20;not null;default:DRAFT;index" json:"status"`
	DueDate       time.Time          `gorm:"not null" json:"due_date"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	Notes         string             `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	Payments []Payment `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceSequence is the per tenant, per day invoice counter. Day is YYYYMMDD.
type InvoiceSequence struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Day       string    `gorm:"size:8;primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
}

func (InvoiceSequence) TableName() string {
	return "invoice_sequences"
}
