package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/money"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, payment *entity.Payment) error
	ListByInvoice(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]entity.Payment, error)

	// SumCompleted totals the COMPLETED payments of an invoice
	SumCompleted(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) (money.Money, error)

	// RevenueByDay sums completed payments per calendar day in [from, to)
	RevenueByDay(ctx context.Context, scope tenancy.Scope, from, to time.Time) ([]DailyRevenue, error)

	// TotalsByMethod sums completed payments per method in [from, to)
	TotalsByMethod(ctx context.Context, scope tenancy.Scope, from, to time.Time) ([]MethodTotal, error)
}

type DailyRevenue struct {
	Day    string      `json:"day"`
	Amount money.Money `json:"amount"`
	Count  int64       `json:"count"`
}

type MethodTotal struct {
	Method enum.PaymentMethod `json:"method"`
	Amount money.Money        `json:"amount"`
	Count  int64              `json:"count"`
}
