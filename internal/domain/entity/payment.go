package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/pkg/money"
)

// Payment is one payment attempt against an invoice
type Payment struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"tenant_id"`
	InvoiceID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount      money.Money        `gorm:"not null" json:"amount"`
	Method      enum.PaymentMethod `gorm:"size:20;not null" json:"method"`
	Status      enum.PaymentStatus `gorm:"size:20;not null;index" json:"status"`
	Reference   string             `gorm:"size:255" json:"reference,omitempty"`
	ProcessedBy *uuid.UUID         `gorm:"type:uuid" json:"processed_by,omitempty"`
	CreatedAt   time.Time          `gorm:"index" json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Payment) TableName() string {
	return "payments"
}
