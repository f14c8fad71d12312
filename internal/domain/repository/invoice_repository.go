package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create fails with ErrDuplicate on an invoice number collision
	Create(ctx context.Context, scope tenancy.Scope, invoice *entity.Invoice) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Invoice, error)

	// GetForUpdate locks the invoice row until the enclosing transaction ends
	GetForUpdate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Invoice, error)

	// GetActiveByOrder returns the non-cancelled invoice of an order, if any
	GetActiveByOrder(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID) (*entity.Invoice, error)

	UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, status enum.InvoiceStatus, paidAt *time.Time) error
	List(ctx context.Context, scope tenancy.Scope, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)

	// NextNumber advances the per tenant counter for day (YYYYMMDD) and
	// returns the new value
	NextNumber(ctx context.Context, scope tenancy.Scope, day string) (int64, error)

	Summary(ctx context.Context, scope tenancy.Scope) (*BillingSummary, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination *pagination.PaginationParams
	Status     *enum.InvoiceStatus
}

// BillingSummary aggregates invoices and completed payments of a tenant
type BillingSummary struct {
	TotalInvoiced money.Money                  `json:"total_invoiced"`
	TotalPaid     money.Money                  `json:"total_paid"`
	TotalPending  money.Money                  `json:"total_pending"`
	InvoiceCount  int64                        `json:"invoice_count"`
	ByStatus      map[enum.InvoiceStatus]int64 `json:"by_status"`
}
