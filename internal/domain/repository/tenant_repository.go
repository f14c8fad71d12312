package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
)

// TenantRepository defines the interface for tenant data operations
type TenantRepository interface {
	// Create creates a new tenant
	Create(ctx context.Context, tenant *entity.Tenant) error

	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)

	// GetBySlug retrieves a tenant by slug
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)

	// CreateBranch adds a branch to the scoped tenant
	CreateBranch(ctx context.Context, scope tenancy.Scope, branch *entity.Branch) error

	// GetBranch retrieves a branch owned by the scoped tenant
	GetBranch(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Branch, error)
}
