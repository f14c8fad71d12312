package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
)

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *gorm.DB) domainRepo.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, scope tenancy.Scope, item *entity.StockItem) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	item.TenantID = scope.TenantID()
	return translateCreate(conn(ctx, r.db).Omit("Product").Create(item).Error)
}

func (r *stockRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.StockItem, error) {
	var item entity.StockItem
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Preload("Product").
		First(&item, "id = ?", id).Error
	return notFoundAsNil(&item, err)
}

func (r *stockRepository) GetExact(ctx context.Context, scope tenancy.Scope, productID uuid.UUID, branchID *uuid.UUID) (*entity.StockItem, error) {
	var item entity.StockItem
	query := conn(ctx, r.db).Scopes(TenantScope(scope)).Where("product_id = ?", productID)
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	} else {
		query = query.Where("branch_id IS NULL")
	}
	err := query.First(&item).Error
	return notFoundAsNil(&item, err)
}

func (r *stockRepository) Resolve(ctx context.Context, scope tenancy.Scope, productID uuid.UUID, branchID *uuid.UUID) (*entity.StockItem, error) {
	if branchID == nil {
		return r.GetExact(ctx, scope, productID, nil)
	}
	var item entity.StockItem
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("product_id = ?", productID).
		Where("branch_id = ? OR branch_id IS NULL", *branchID).
		Order("CASE WHEN branch_id IS NULL THEN 1 ELSE 0 END").
		Take(&item).Error
	return notFoundAsNil(&item, err)
}

func (r *stockRepository) List(ctx context.Context, scope tenancy.Scope, params *domainRepo.StockFilterParams) ([]entity.StockItem, int64, error) {
	var items []entity.StockItem
	var total int64

	query := conn(ctx, r.db).Model(&entity.StockItem{}).Scopes(TenantScope(scope))
	if params.BranchID != nil {
		query = query.Where("branch_id = ?", *params.BranchID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Scopes(Paginate(params.Pagination.Page, params.Pagination.PerPage)).
		Preload("Product").
		Order("created_at DESC").
		Find(&items).Error

	return items, total, err
}

// ListLow compares qty with min_qty in the database
func (r *stockRepository) ListLow(ctx context.Context, scope tenancy.Scope, branchID *uuid.UUID) ([]entity.StockItem, error) {
	var items []entity.StockItem
	query := conn(ctx, r.db).Scopes(TenantScope(scope)).Where("qty < min_qty")
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	err := query.Preload("Product").Order("qty ASC").Find(&items).Error
	return items, err
}

// Decrement uses: UPDATE stock_items SET qty = qty - n WHERE id = ? AND qty >= n
func (r *stockRepository) Decrement(ctx context.Context, scope tenancy.Scope, id uuid.UUID, qty int) (bool, int, error) {
	db := conn(ctx, r.db)
	result := db.Model(&entity.StockItem{}).Scopes(TenantScope(scope)).
		Where("id = ? AND qty >= ?", id, qty).
		Update("qty", gorm.Expr("qty - ?", qty))
	if result.Error != nil {
		return false, 0, result.Error
	}
	if result.RowsAffected == 0 {
		return false, 0, nil
	}
	after, err := r.currentQty(db, scope, id)
	return true, after, err
}

func (r *stockRepository) Increment(ctx context.Context, scope tenancy.Scope, id uuid.UUID, qty int) (int, error) {
	db := conn(ctx, r.db)
	result := db.Model(&entity.StockItem{}).Scopes(TenantScope(scope)).
		Where("id = ?", id).
		Update("qty", gorm.Expr("qty + ?", qty))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.currentQty(db, scope, id)
}

func (r *stockRepository) currentQty(db *gorm.DB, scope tenancy.Scope, id uuid.UUID) (int, error) {
	var qty int
	err := db.Model(&entity.StockItem{}).Scopes(TenantScope(scope)).
		Where("id = ?", id).
		Select("qty").
		Scan(&qty).Error
	return qty, err
}

func (r *stockRepository) UpdateMinQty(ctx context.Context, scope tenancy.Scope, id uuid.UUID, minQty int) error {
	return conn(ctx, r.db).Model(&entity.StockItem{}).Scopes(TenantScope(scope)).
		Where("id = ?", id).
		Update("min_qty", minQty).Error
}

func (r *stockRepository) DeleteEmpty(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("id = ? AND qty = 0", id).
		Delete(&entity.StockItem{})
	return result.RowsAffected > 0, result.Error
}

func (r *stockRepository) CreateMovement(ctx context.Context, scope tenancy.Scope, movement *entity.StockMovement) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	movement.TenantID = scope.TenantID()
	return conn(ctx, r.db).Create(movement).Error
}

func (r *stockRepository) ListMovements(ctx context.Context, scope tenancy.Scope, params *domainRepo.MovementFilterParams) ([]entity.StockMovement, int64, error) {
	var movements []entity.StockMovement
	var total int64

	query := conn(ctx, r.db).Model(&entity.StockMovement{}).Scopes(TenantScope(scope))
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Scopes(Paginate(params.Pagination.Page, params.Pagination.PerPage)).
		Order("created_at DESC").
		Find(&movements).Error

	return movements, total, err
}

func (r *stockRepository) Summary(ctx context.Context, scope tenancy.Scope) (*domainRepo.StockSummary, error) {
	var summary domainRepo.StockSummary
	err := conn(ctx, r.db).Model(&entity.StockItem{}).Scopes(TenantScope(scope)).
		Select(`COUNT(*) AS total_items,
			COALESCE(SUM(qty), 0) AS total_units,
			COALESCE(SUM(CASE WHEN qty < min_qty THEN 1 ELSE 0 END), 0) AS low_stock_items`).
		Scan(&summary).Error
	return &summary, err
}
