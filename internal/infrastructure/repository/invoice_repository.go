package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/money"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, scope tenancy.Scope, invoice *entity.Invoice) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	invoice.TenantID = scope.TenantID()
	return translateCreate(conn(ctx, r.db).Omit("Payments").Create(invoice).Error)
}

func (r *invoiceRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&invoice, "id = ?", id).Error
	return notFoundAsNil(&invoice, err)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "id = ?", id).Error
	return notFoundAsNil(&invoice, err)
}

func (r *invoiceRepository) GetActiveByOrder(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("order_id = ? AND status <> ?", orderID, enum.InvoiceStatusCancelled).
		First(&invoice).Error
	return notFoundAsNil(&invoice, err)
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, status enum.InvoiceStatus, paidAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	return conn(ctx, r.db).Model(&entity.Invoice{}).Scopes(TenantScope(scope)).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *invoiceRepository) List(ctx context.Context, scope tenancy.Scope, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := conn(ctx, r.db).Model(&entity.Invoice{}).Scopes(TenantScope(scope))
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Scopes(Paginate(params.Pagination.Page, params.Pagination.PerPage)).
		Order("created_at DESC").
		Find(&invoices).Error

	return invoices, total, err
}

const nextInvoiceNumberSQL = `
INSERT INTO invoice_sequences (tenant_id, day, last_value) VALUES (?, ?, 1)
ON CONFLICT (tenant_id, day) DO UPDATE SET last_value = invoice_sequences.last_value + 1
RETURNING last_value`

// NextNumber advances the counter row in place; the row lock it takes
// serialises concurrent numbering for the same tenant and day.
func (r *invoiceRepository) NextNumber(ctx context.Context, scope tenancy.Scope, day string) (int64, error) {
	if err := requireScope(scope); err != nil {
		return 0, err
	}
	var value int64
	err := conn(ctx, r.db).Raw(nextInvoiceNumberSQL, scope.TenantID(), day).Scan(&value).Error
	return value, err
}

func (r *invoiceRepository) Summary(ctx context.Context, scope tenancy.Scope) (*domainRepo.BillingSummary, error) {
	db := conn(ctx, r.db)

	var rows []struct {
		Status enum.InvoiceStatus
		Count  int64
		Amount money.Money
	}
	err := db.Model(&entity.Invoice{}).Scopes(TenantScope(scope)).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var paidCents int64
	err = db.Model(&entity.Payment{}).Scopes(TenantScope(scope)).
		Where("status = ?", enum.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paidCents).Error
	if err != nil {
		return nil, err
	}

	paid := money.FromCents(paidCents)
	summary := &domainRepo.BillingSummary{
		TotalPaid: paid,
		ByStatus:  make(map[enum.InvoiceStatus]int64),
	}
	for _, row := range rows {
		summary.ByStatus[row.Status] = row.Count
		summary.InvoiceCount += row.Count
		if row.Status != enum.InvoiceStatusCancelled {
			summary.TotalInvoiced = summary.TotalInvoiced.Add(row.Amount)
		}
	}
	summary.TotalPending = summary.TotalInvoiced.Sub(paid)
	return summary, nil
}
