package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
)

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) domainRepo.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	return translateCreate(conn(ctx, r.db).Create(tenant).Error)
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	var tenant entity.Tenant
	err := conn(ctx, r.db).First(&tenant, "id = ?", id).Error
	return notFoundAsNil(&tenant, err)
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	var tenant entity.Tenant
	err := conn(ctx, r.db).First(&tenant, "slug = ?", slug).Error
	return notFoundAsNil(&tenant, err)
}

func (r *tenantRepository) CreateBranch(ctx context.Context, scope tenancy.Scope, branch *entity.Branch) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	branch.TenantID = scope.TenantID()
	return conn(ctx, r.db).Create(branch).Error
}

func (r *tenantRepository) GetBranch(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Branch, error) {
	var branch entity.Branch
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).First(&branch, "id = ?", id).Error
	return notFoundAsNil(&branch, err)
}
