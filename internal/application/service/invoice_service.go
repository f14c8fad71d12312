package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/pagination"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

// InvoiceOptions configures invoice generation
type InvoiceOptions struct {
	DueDays       int
	NumberRetries int
	Location      *time.Location
}

// InvoiceService issues invoices for orders and reports on billing
type InvoiceService struct {
	tx       repository.Transactor
	invoices repository.InvoiceRepository
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	tenants  repository.TenantRepository
	metrics  *metrics.Metrics
	opts     InvoiceOptions
	now      Clock
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	tx repository.Transactor,
	invoices repository.InvoiceRepository,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	tenants repository.TenantRepository,
	m *metrics.Metrics,
	opts InvoiceOptions,
) *InvoiceService {
	if opts.DueDays <= 0 {
		opts.DueDays = 30
	}
	if opts.NumberRetries <= 0 {
		opts.NumberRetries = 3
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &InvoiceService{
		tx:       tx,
		invoices: invoices,
		payments: payments,
		orders:   orders,
		tenants:  tenants,
		metrics:  m,
		opts:     opts,
		now:      systemClock,
	}
}

// CreateInvoiceInput represents the create invoice input
type CreateInvoiceInput struct {
	OrderID  uuid.UUID
	Amount   money.Money
	Tax      money.Money
	Discount money.Money
	DueDate  *time.Time
	Notes    string
}

func (in *CreateInvoiceInput) validate() error {
	var fieldErrors []apperror.FieldError
	if in.OrderID == uuid.Nil {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "order_id", Message: "is required"})
	}
	if in.Amount.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "amount", Message: "must not be negative"})
	}
	if in.Tax.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tax", Message: "must not be negative"})
	}
	if in.Discount.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "discount", Message: "must not be negative"})
	}
	if len(fieldErrors) == 0 {
		if _, err := in.Amount.CheckedAdd(in.Tax); err != nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "amount", Message: "amount plus tax is out of range"})
		} else if !in.final().IsPositive() {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "amount", Message: "amount plus tax minus discount must be greater than zero"})
		}
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// final is only meaningful once validate has passed
func (in *CreateInvoiceInput) final() money.Money {
	return in.Amount.Add(in.Tax).Sub(in.Discount)
}

// FormatInvoiceNumber renders INV-YYYYMMDD-NNNNN
func FormatInvoiceNumber(day string, seq int64) string {
	return fmt.Sprintf("INV-%s-%05d", day, seq)
}

// CreateInvoice issues the single active invoice of an order. The number
// comes from the per tenant daily counter; a collision on the unique
// number retries the whole unit.
func (s *InvoiceService) CreateInvoice(ctx context.Context, scope tenancy.Scope, input *CreateInvoiceInput) (*entity.Invoice, error) {
	ctx, span := tracing.Start(ctx, "InvoiceService.CreateInvoice")
	defer span.End()

	if err := input.validate(); err != nil {
		return nil, err
	}

	loc, err := s.location(ctx, scope)
	if err != nil {
		return nil, err
	}

	var invoice *entity.Invoice
	for attempt := 1; ; attempt++ {
		invoice, err = s.createInvoice(ctx, scope, input, loc)
		if err == nil {
			break
		}
		if !isDuplicate(err) || attempt >= s.opts.NumberRetries {
			return nil, err
		}
		logger.Warn(ctx).Err(err).
			Str("tenant_id", scope.String()).
			Int("attempt", attempt).
			Msg("invoice number collision, retrying")
	}

	s.metrics.InvoiceCreated()
	return invoice, nil
}

func (s *InvoiceService) createInvoice(ctx context.Context, scope tenancy.Scope, input *CreateInvoiceInput, loc *time.Location) (*entity.Invoice, error) {
	var invoice *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, scope, input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperror.NewNotFoundError("Order")
		}
		if order.Status == enum.OrderStatusCancelled {
			return apperror.NewFieldError("order_id", "cannot invoice a cancelled order")
		}

		existing, err := s.invoices.GetActiveByOrder(ctx, scope, order.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.ErrDuplicateInvoice
		}

		now := s.now()
		day := now.In(loc).Format("20060102")
		seq, err := s.invoices.NextNumber(ctx, scope, day)
		if err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}

		dueDate := now.AddDate(0, 0, s.opts.DueDays)
		if input.DueDate != nil {
			dueDate = *input.DueDate
		}

		invoice = &entity.Invoice{
			OrderID:       order.ID,
			InvoiceNumber: FormatInvoiceNumber(day, seq),
			Subtotal:      input.Amount,
			Tax:           input.Tax,
			Discount:      input.Discount,
			Amount:        input.final(),
			Status:        enum.InvoiceStatusDraft,
			DueDate:       dueDate,
			Notes:         input.Notes,
		}
		return s.invoices.Create(ctx, scope, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// location is the tenant's timezone, falling back to the configured one
func (s *InvoiceService) location(ctx context.Context, scope tenancy.Scope) (*time.Location, error) {
	tenant, err := s.tenants.GetByID(ctx, scope.TenantID())
	if err != nil {
		return nil, err
	}
	return tenant.Location(s.opts.Location), nil
}

// InvoiceView is an invoice with its payment progress
type InvoiceView struct {
	*entity.Invoice
	TotalPaid      money.Money     `json:"total_paid"`
	AmountDue      money.Money     `json:"amount_due"`
	PercentagePaid decimal.Decimal `json:"percentage_paid"`
}

func newInvoiceView(invoice *entity.Invoice, totalPaid money.Money) *InvoiceView {
	due := invoice.Amount.Sub(totalPaid)
	if due.IsNegative() {
		due = 0
	}
	return &InvoiceView{
		Invoice:        invoice,
		TotalPaid:      totalPaid,
		AmountDue:      due,
		PercentagePaid: money.Percent(totalPaid, invoice.Amount),
	}
}

// GetInvoice retrieves an invoice with its payments and payment progress
func (s *InvoiceService) GetInvoice(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*InvoiceView, error) {
	invoice, err := s.invoices.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	totalPaid, err := s.payments.SumCompleted(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return newInvoiceView(invoice, totalPaid), nil
}

// ListInvoices lists invoices newest first
func (s *InvoiceService) ListInvoices(ctx context.Context, scope tenancy.Scope, status *enum.InvoiceStatus, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Invoice], error) {
	if status != nil && !status.Valid() {
		return nil, apperror.NewFieldError("status", "unknown invoice status")
	}
	invoices, total, err := s.invoices.List(ctx, scope, &repository.InvoiceFilterParams{
		Pagination: params,
		Status:     status,
	})
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(invoices, params, total), nil
}

// UpdateInvoiceStatus applies a manual status change. PAID can only be
// reached by settling payments, and a paid-into invoice cannot be cancelled.
func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, status enum.InvoiceStatus) (*InvoiceView, error) {
	if !status.Valid() {
		return nil, apperror.NewFieldError("status", "unknown invoice status")
	}

	var view *InvoiceView
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.invoices.GetForUpdate(ctx, scope, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		if !invoice.Status.CanTransitionTo(status) {
			return apperror.NewInvalidTransitionError("invoice", invoice.Status.String(), status.String())
		}

		totalPaid, err := s.payments.SumCompleted(ctx, scope, id)
		if err != nil {
			return err
		}
		if status == enum.InvoiceStatusCancelled && totalPaid.IsPositive() {
			return apperror.NewConflictError("Invoice has completed payments and cannot be cancelled")
		}

		if err := s.invoices.UpdateStatus(ctx, scope, id, status, nil); err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}
		invoice.Status = status
		view = newInvoiceView(invoice, totalPaid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// BillingSummary aggregates the tenant's invoices in SQL
func (s *InvoiceService) BillingSummary(ctx context.Context, scope tenancy.Scope) (*repository.BillingSummary, error) {
	return s.invoices.Summary(ctx, scope)
}

// RevenueAnalytics is completed payment revenue per day and per method
type RevenueAnalytics struct {
	From     time.Time                 `json:"from"`
	To       time.Time                 `json:"to"`
	Total    money.Money               `json:"total"`
	Daily    []repository.DailyRevenue `json:"daily"`
	ByMethod []repository.MethodTotal  `json:"by_method"`
}

// RevenueAnalytics reports completed payments in [from, to)
func (s *InvoiceService) RevenueAnalytics(ctx context.Context, scope tenancy.Scope, from, to time.Time) (*RevenueAnalytics, error) {
	if !from.Before(to) {
		return nil, apperror.NewFieldError("from", "must be before to")
	}
	daily, err := s.payments.RevenueByDay(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.payments.TotalsByMethod(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}
	if daily == nil {
		daily = []repository.DailyRevenue{}
	}
	if byMethod == nil {
		byMethod = []repository.MethodTotal{}
	}

	var total money.Money
	for _, d := range daily {
		total = total.Add(d.Amount)
	}
	return &RevenueAnalytics{From: from, To: to, Total: total, Daily: daily, ByMethod: byMethod}, nil
}
