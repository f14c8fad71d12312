package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/money"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, scope tenancy.Scope, payment *entity.Payment) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	payment.TenantID = scope.TenantID()
	return conn(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) SumCompleted(ctx context.Context, scope tenancy.Scope, invoiceID uuid.UUID) (money.Money, error) {
	var cents int64
	err := conn(ctx, r.db).Model(&entity.Payment{}).Scopes(TenantScope(scope)).
		Where("invoice_id = ? AND status = ?", invoiceID, enum.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&cents).Error
	return money.FromCents(cents), err
}

func (r *paymentRepository) completedBetween(ctx context.Context, scope tenancy.Scope, from, to time.Time) *gorm.DB {
	return conn(ctx, r.db).Model(&entity.Payment{}).Scopes(TenantScope(scope)).
		Where("status = ?", enum.PaymentStatusCompleted).
		Where("created_at >= ? AND created_at < ?", from, to)
}

func (r *paymentRepository) RevenueByDay(ctx context.Context, scope tenancy.Scope, from, to time.Time) ([]domainRepo.DailyRevenue, error) {
	var rows []domainRepo.DailyRevenue
	err := r.completedBetween(ctx, scope, from, to).
		Select("CAST(DATE(created_at) AS TEXT) AS day, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Group("CAST(DATE(created_at) AS TEXT)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *paymentRepository) TotalsByMethod(ctx context.Context, scope tenancy.Scope, from, to time.Time) ([]domainRepo.MethodTotal, error) {
	var rows []domainRepo.MethodTotal
	err := r.completedBetween(ctx, scope, from, to).
		Select("method, COALESCE(SUM(amount), 0) AS amount, COUNT(*) AS count").
		Group("method").
		Order("method ASC").
		Scan(&rows).Error
	return rows, err
}
