package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

// PaymentService applies payments to invoices
type PaymentService struct {
	tx       repository.Transactor
	invoices repository.InvoiceRepository
	payments repository.PaymentRepository
	events   EventPublisher
	metrics  *metrics.Metrics
	topic    string
	now      Clock
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	tx repository.Transactor,
	invoices repository.InvoiceRepository,
	payments repository.PaymentRepository,
	events EventPublisher,
	m *metrics.Metrics,
	topic string,
) *PaymentService {
	return &PaymentService{
		tx:       tx,
		invoices: invoices,
		payments: payments,
		events:   events,
		metrics:  m,
		topic:    topic,
		now:      systemClock,
	}
}

// ProcessPaymentInput represents a payment against an invoice
type ProcessPaymentInput struct {
	InvoiceID   uuid.UUID
	Amount      money.Money
	Method      enum.PaymentMethod
	Reference   string
	ProcessedBy *uuid.UUID
}

// PaymentResult is the written payment and the invoice after it
type PaymentResult struct {
	Payment *entity.Payment `json:"payment"`
	Invoice *InvoiceView    `json:"invoice"`
}

// ProcessPayment applies one payment under a row lock on the invoice, so
// completed payments never add up to more than the invoice amount.
func (s *PaymentService) ProcessPayment(ctx context.Context, scope tenancy.Scope, input *ProcessPaymentInput) (*PaymentResult, error) {
	ctx, span := tracing.Start(ctx, "PaymentService.ProcessPayment")
	defer span.End()

	if !input.Amount.IsPositive() {
		return nil, apperror.NewFieldError("amount", "must be greater than zero")
	}
	if !input.Method.Valid() {
		return nil, apperror.NewFieldError("method", "unknown payment method")
	}

	var result *PaymentResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.invoices.GetForUpdate(ctx, scope, input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		switch invoice.Status {
		case enum.InvoiceStatusPaid:
			return apperror.ErrAlreadyPaid
		case enum.InvoiceStatusCancelled:
			return apperror.NewFieldError("invoice_id", "invoice is cancelled")
		}

		totalPaid, err := s.payments.SumCompleted(ctx, scope, invoice.ID)
		if err != nil {
			return err
		}
		remaining := invoice.Amount.Sub(totalPaid)
		if input.Amount > remaining {
			return apperror.NewOverPaymentError(remaining.String())
		}

		payment := &entity.Payment{
			InvoiceID:   invoice.ID,
			Amount:      input.Amount,
			Method:      input.Method,
			Status:      enum.PaymentStatusCompleted,
			Reference:   input.Reference,
			ProcessedBy: input.ProcessedBy,
		}
		if err := s.payments.Create(ctx, scope, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		newTotal := totalPaid.Add(input.Amount)
		switch {
		case newTotal >= invoice.Amount:
			at := s.now()
			invoice.Status = enum.InvoiceStatusPaid
			invoice.PaidAt = &at
		case invoice.Status == enum.InvoiceStatusDraft || invoice.Status == enum.InvoiceStatusSent:
			invoice.Status = enum.InvoiceStatusViewed
		}
		if err := s.invoices.UpdateStatus(ctx, scope, invoice.ID, invoice.Status, invoice.PaidAt); err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}

		// includes the payment just created
		payments, err := s.payments.ListByInvoice(ctx, scope, invoice.ID)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		invoice.Payments = payments
		result = &PaymentResult{Payment: payment, Invoice: newInvoiceView(invoice, newTotal)}
		return nil
	})
	if err != nil {
		s.metrics.Payment(string(input.Method), string(apperror.ReasonOf(err)))
		return nil, err
	}

	s.metrics.Payment(string(input.Method), "completed")
	s.publish(ctx, scope, result)
	return result, nil
}

func (s *PaymentService) publish(ctx context.Context, scope tenancy.Scope, result *PaymentResult) {
	invoice := result.Invoice.Invoice
	at := s.now()
	publish(ctx, s.events, billingMessage(s.topic, BillingEvent{
		Type:          EventPaymentCompleted,
		TenantID:      scope.TenantID(),
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		PaymentID:     &result.Payment.ID,
		Amount:        result.Payment.Amount,
		Method:        result.Payment.Method,
		Status:        invoice.Status,
		OccurredAt:    at,
	}))
	if invoice.Status == enum.InvoiceStatusPaid {
		publish(ctx, s.events, billingMessage(s.topic, BillingEvent{
			Type:          EventInvoicePaid,
			TenantID:      scope.TenantID(),
			InvoiceID:     invoice.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			Amount:        invoice.Amount,
			Status:        invoice.Status,
			OccurredAt:    at,
		}))
	}
}

// ListPayments lists the payments of an invoice oldest first
func (s *PaymentService) ListPayments(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]entity.Payment, error) {
	invoice, err := s.invoices.GetByID(ctx, scope, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	payments, err := s.payments.ListByInvoice(ctx, scope, invoiceID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []entity.Payment{}
	}
	return payments, nil
}
