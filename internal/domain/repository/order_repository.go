package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// Create inserts the order together with its items
	Create(ctx context.Context, scope tenancy.Scope, order *entity.Order) error

	// GetByID loads the order with its items
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Order, error)

	// GetForUpdate is GetByID holding a row lock on the order until the
	// enclosing transaction ends
	GetForUpdate(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Order, error)

	// Update writes the order columns, never its items
	Update(ctx context.Context, scope tenancy.Scope, order *entity.Order) error

	List(ctx context.Context, scope tenancy.Scope, params *OrderFilterParams) ([]entity.Order, int64, error)
	ListOpenByTable(ctx context.Context, scope tenancy.Scope, tableID uuid.UUID) ([]entity.Order, error)
	Stats(ctx context.Context, scope tenancy.Scope, branchID *uuid.UUID) (*OrderStats, error)

	CreateItem(ctx context.Context, scope tenancy.Scope, item *entity.OrderItem) error
	UpdateItemStatus(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID, status enum.OrderItemStatus) error
	DeleteItem(ctx context.Context, scope tenancy.Scope, itemID uuid.UUID) error
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination *pagination.PaginationParams
	BranchID   *uuid.UUID
	Status     *enum.OrderStatus
}

// OrderStats aggregates order counts and completed revenue
type OrderStats struct {
	ByStatus map[enum.OrderStatus]int64 `json:"by_status"`
	Total    int64                      `json:"total"`
	Revenue  money.Money                `json:"revenue"`
}
