package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/tablepos-api/internal/domain/enum"
)

// CreateInvoiceRequest represents an invoice creation request
type CreateInvoiceRequest struct {
	OrderID  uuid.UUID       `json:"order_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	DueDate  *time.Time      `json:"due_date"`
	Notes    string          `json:"notes" binding:"omitempty,max=1000"`
}

// UpdateInvoiceStatusRequest moves an invoice to another status
type UpdateInvoiceStatusRequest struct {
	Status enum.InvoiceStatus `json:"status" binding:"required"`
}

// ProcessPaymentRequest represents a payment against an invoice
type ProcessPaymentRequest struct {
	Amount    decimal.Decimal    `json:"amount"`
	Method    enum.PaymentMethod `json:"method" binding:"required"`
	Reference string             `json:"reference" binding:"omitempty,max=255"`
}
