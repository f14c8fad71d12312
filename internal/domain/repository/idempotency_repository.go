package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an unexpired key for the tenant and user
	GetByKey(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, key string) (*entity.IdempotencyKey, error)
	// Reserve claims ikey as a pending row. When another row already holds
	// the key it returns that row and false. An expired holder is replaced.
	Reserve(ctx context.Context, scope tenancy.Scope, ikey *entity.IdempotencyKey) (*entity.IdempotencyKey, bool, error)
	// Complete stores the response of a reserved key
	Complete(ctx context.Context, scope tenancy.Scope, id uuid.UUID, code int, body string) error
	// Release deletes a reserved key so the request can be retried
	Release(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error
	// DeleteExpired removes expired idempotency keys (for cleanup)
	DeleteExpired(ctx context.Context) (int64, error)
}
