package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

// KOTRepository defines the interface for kitchen ticket data operations
type KOTRepository interface {
	// Create fails with ErrDuplicate when the order already has a ticket
	Create(ctx context.Context, scope tenancy.Scope, kot *entity.KOT) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.KOT, error)
	GetByOrderID(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID) (*entity.KOT, error)

	// MarkPrinted flips printed from false to true. It reports false when
	// the ticket was already printed.
	MarkPrinted(ctx context.Context, scope tenancy.Scope, id uuid.UUID, at time.Time) (bool, error)

	ListByBranch(ctx context.Context, scope tenancy.Scope, branchID uuid.UUID, params *pagination.PaginationParams) ([]entity.KOT, int64, error)
	ListUnprinted(ctx context.Context, scope tenancy.Scope, branchID uuid.UUID) ([]entity.KOT, error)

	// DeleteUnprinted removes the ticket unless it was printed
	DeleteUnprinted(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (bool, error)
	DeleteUnprintedByOrder(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID) error
}
