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

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func (r *orderRepository) Create(ctx context.Context, scope tenancy.Scope, order *entity.Order) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	order.TenantID = scope.TenantID()
	for i := range order.Items {
		order.Items[i].TenantID = scope.TenantID()
	}
	return translateCreate(conn(ctx, r.db).Create(order).Error)
}

func (r *orderRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Preload("Items", orderedItems).
		First(&order, "id = ?", id).Error
	return notFoundAsNil(&order, err)
}

// GetForUpdate locks the order row, then loads the items separately so the
// lock clause stays on the single row.
func (r *orderRepository) GetForUpdate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Order, error) {
	db := conn(ctx, r.db)
	var order entity.Order
	err := db.Scopes(TenantScope(scope)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if o, err := notFoundAsNil(&order, err); o == nil || err != nil {
		return nil, err
	}
	err = db.Scopes(TenantScope(scope), orderedItems).
		Where("order_id = ?", order.ID).
		Find(&order.Items).Error
	return &order, err
}

func (r *orderRepository) Update(ctx context.Context, scope tenancy.Scope, order *entity.Order) error {
	return conn(ctx, r.db).Model(&entity.Order{}).Scopes(TenantScope(scope)).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":        order.Status,
			"subtotal":      order.Subtotal,
			"tax":           order.Tax,
			"discount":      order.Discount,
			"total":         order.Total,
			"notes":         order.Notes,
			"cancel_reason": order.CancelReason,
			"completed_at":  order.CompletedAt,
			"cancelled_at":  order.CancelledAt,
			"updated_at":    time.Now(),
		}).Error
}

func (r *orderRepository) List(ctx context.Context, scope tenancy.Scope, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := conn(ctx, r.db).Model(&entity.Order{}).Scopes(TenantScope(scope))
	if params.BranchID != nil {
		query = query.Where("branch_id = ?", *params.BranchID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Scopes(Paginate(params.Pagination.Page, params.Pagination.PerPage)).
		Preload("Items", orderedItems).
		Order("created_at DESC").
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) ListOpenByTable(ctx context.Context, scope tenancy.Scope, tableID uuid.UUID) ([]entity.Order, error) {
	var orders []entity.Order
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("table_id = ?", tableID).
		Where("status NOT IN ?", []enum.OrderStatus{enum.OrderStatusCompleted, enum.OrderStatusCancelled}).
		Preload("Items", orderedItems).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Stats(ctx context.Context, scope tenancy.Scope, branchID *uuid.UUID) (*domainRepo.OrderStats, error) {
	var rows []struct {
		Status  enum.OrderStatus
		Count   int64
		Revenue money.Money
	}
	query := conn(ctx, r.db).Model(&entity.Order{}).Scopes(TenantScope(scope))
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	err := query.Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &domainRepo.OrderStats{ByStatus: make(map[enum.OrderStatus]int64)}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
		if row.Status == enum.OrderStatusCompleted {
			stats.Revenue = row.Revenue
		}
	}
	return stats, nil
}

func (r *orderRepository) CreateItem(ctx context.Context, scope tenancy.Scope, item *entity.OrderItem) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	item.TenantID = scope.TenantID()
	return conn(ctx, r.db).Create(item).Error
}

func (r *orderRepository) UpdateItemStatus(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID, status enum.OrderItemStatus) error {
	return conn(ctx, r.db).Model(&entity.OrderItem{}).Scopes(TenantScope(scope)).
		Where("id = ?", itemID).
		Update("status", status).Error
}

func (r *orderRepository) DeleteItem(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID) error {
	return conn(ctx, r.db).Scopes(TenantScope(scope)).
		Delete(&entity.OrderItem{}, "id = ?", itemID).Error
}
