package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

// StockRepository defines the interface for stock items and their movements
type StockRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, item *entity.StockItem) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.StockItem, error)

	// GetExact matches the (product, branch) pair exactly; a nil branch
	// matches only the tenant wide row.
	GetExact(ctx context.Context, scope tenancy.Scope, productID uuid.UUID, branchID *uuid.UUID) (*entity.StockItem, error)

	// Resolve returns the branch row when one exists, otherwise the tenant
	// wide row.
	Resolve(ctx context.Context, scope tenancy.Scope, productID uuid.UUID, branchID *uuid.UUID) (*entity.StockItem, error)

	List(ctx context.Context, scope tenancy.Scope, params *StockFilterParams) ([]entity.StockItem, int64, error)

	// ListLow returns items with qty < min_qty, lowest qty first.
	ListLow(ctx context.Context, scope tenancy.Scope, branchID *uuid.UUID) ([]entity.StockItem, error)

	// Decrement subtracts qty only if enough is on hand. It reports whether
	// the row changed and the resulting quantity.
	Decrement(ctx context.Context, scope tenancy.Scope, id uuid.UUID, qty int) (bool, int, error)

	// Increment adds qty and returns the resulting quantity.
	Increment(ctx context.Context, scope tenancy.Scope, id uuid.UUID, qty int) (int, error)

	UpdateMinQty(ctx context.Context, scope tenancy.Scope, id uuid.UUID, minQty int) error

	// DeleteEmpty removes the item only when its qty is zero.
	DeleteEmpty(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (bool, error)

	CreateMovement(ctx context.Context, scope tenancy.Scope, movement *entity.StockMovement) error
	ListMovements(ctx context.Context, scope tenancy.Scope, params *MovementFilterParams) ([]entity.StockMovement, int64, error)

	Summary(ctx context.Context, scope tenancy.Scope) (*StockSummary, error)
}

// StockFilterParams contains filtering parameters for stock item queries
type StockFilterParams struct {
	Pagination *pagination.PaginationParams
	BranchID   *uuid.UUID
}

// MovementFilterParams contains filtering parameters for movement queries
type MovementFilterParams struct {
	Pagination *pagination.PaginationParams
	ProductID  *uuid.UUID
	Type       *enum.MovementType
}

// StockSummary aggregates the stock items of a tenant
type StockSummary struct {
	TotalItems    int64 `json:"total_items"`
	TotalUnits    int64 `json:"total_units"`
	LowStockItems int64 `json:"low_stock_items"`
}
