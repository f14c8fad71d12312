package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

type kotRepository struct {
	db *gorm.DB
}

// NewKOTRepository creates a new kitchen ticket repository
func NewKOTRepository(db *gorm.DB) domainRepo.KOTRepository {
	return &kotRepository{db: db}
}

func (r *kotRepository) Create(ctx context.Context, scope tenancy.Scope, kot *entity.KOT) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	kot.TenantID = scope.TenantID()
	return translateCreate(conn(ctx, r.db).Create(kot).Error)
}

func (r *kotRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.KOT, error) {
	var kot entity.KOT
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).First(&kot, "id = ?", id).Error
	return notFoundAsNil(&kot, err)
}

func (r *kotRepository) GetByOrderID(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID) (*entity.KOT, error) {
	var kot entity.KOT
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).First(&kot, "order_id = ?", orderID).Error
	return notFoundAsNil(&kot, err)
}

// MarkPrinted uses: UPDATE kots SET printed = true WHERE id = ? AND printed = false
func (r *kotRepository) MarkPrinted(ctx context.Context, scope tenancy.Scope, id uuid.UUID, at time.Time) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.KOT{}).Scopes(TenantScope(scope)).
		Where("id = ? AND printed = ?", id, false).
		Updates(map[string]interface{}{
			"printed":    true,
			"printed_at": at,
			"updated_at": at,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *kotRepository) ListByBranch(ctx context.Context, scope tenancy.Scope, branchID uuid.UUID, params *pagination.PaginationParams) ([]entity.KOT, int64, error) {
	var kots []entity.KOT
	var total int64

	query := conn(ctx, r.db).Model(&entity.KOT{}).Scopes(TenantScope(scope)).
		Where("branch_id = ?", branchID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Scopes(Paginate(params.Page, params.PerPage)).
		Order("created_at DESC").
		Find(&kots).Error
	return kots, total, err
}

func (r *kotRepository) ListUnprinted(ctx context.Context, scope tenancy.Scope, branchID uuid.UUID) ([]entity.KOT, error) {
	var kots []entity.KOT
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("branch_id = ? AND printed = ?", branchID, false).
		Order("created_at ASC").
		Find(&kots).Error
	return kots, err
}

func (r *kotRepository) DeleteUnprinted(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("id = ? AND printed = ?", id, false).
		Delete(&entity.KOT{})
	return result.RowsAffected > 0, result.Error
}

func (r *kotRepository) DeleteUnprintedByOrder(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID) error {
	return conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("order_id = ? AND printed = ?", orderID, false).
		Delete(&entity.KOT{}).Error
}
