package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
)

// ProductRepository is the read side of the menu the pipeline depends on
type ProductRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, product *entity.Product) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Product, error)
	// GetByIDs returns the products of the tenant among ids. Missing or
	// foreign ids are simply absent from the result.
	GetByIDs(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) ([]entity.Product, error)
}
