package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, scope tenancy.Scope, product *entity.Product) error {
	if err := requireScope(scope); err != nil {
		return err
	}
	product.TenantID = scope.TenantID()
	return translateCreate(conn(ctx, r.db).Create(product).Error)
}

func (r *productRepository) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).First(&product, "id = ?", id).Error
	return notFoundAsNil(&product, err)
}

// GetByIDs fetches all requested products in one query
func (r *productRepository) GetByIDs(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []entity.Product
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).Where("id IN ?", ids).Find(&products).Error
	return products, err
}
