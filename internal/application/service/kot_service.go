package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/internal/infrastructure/queue"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/pagination"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

// KOTService tracks kitchen tickets and hands them to the print worker
type KOTService struct {
	kots    repository.KOTRepository
	orders  repository.OrderRepository
	queue   JobQueue
	metrics *metrics.Metrics
	now     Clock
}

// NewKOTService creates a new kitchen ticket service
func NewKOTService(
	kots repository.KOTRepository,
	orders repository.OrderRepository,
	q JobQueue,
	m *metrics.Metrics,
) *KOTService {
	return &KOTService{kots: kots, orders: orders, queue: q, metrics: m, now: systemClock}
}

// BatchPrintError is one ticket that could not be printed
type BatchPrintError struct {
	KOTID  uuid.UUID       `json:"kot_id"`
	Reason apperror.Reason `json:"reason"`
	Error  string          `json:"error"`
}

// BatchPrintResult splits a batch into printed tickets and failures
type BatchPrintResult struct {
	Results []entity.KOT      `json:"results"`
	Errors  []BatchPrintError `json:"errors"`
}

// CreateKOT creates the ticket of an order that has none
func (s *KOTService) CreateKOT(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID) (*entity.KOT, error) {
	order, err := s.orders.GetByID(ctx, scope, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	existing, err := s.kots.GetByOrderID(ctx, scope, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateKOT
	}

	kot := newKOT(order, s.now())
	if err := s.kots.Create(ctx, scope, kot); err != nil {
		if isDuplicate(err) {
			return nil, apperror.ErrDuplicateKOT
		}
		return nil, err
	}
	return kot, nil
}

func newKOT(order *entity.Order, at time.Time) *entity.KOT {
	return &entity.KOT{
		OrderID:  order.ID,
		BranchID: order.BranchID,
		Payload:  entity.NewKOTPayload(order, at),
	}
}

// GetKOT retrieves a ticket by ID
func (s *KOTService) GetKOT(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.KOT, error) {
	kot, err := s.kots.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if kot == nil {
		return nil, apperror.NewNotFoundError("KOT")
	}
	return kot, nil
}

// ListKOTsByBranch lists a branch's tickets newest first
func (s *KOTService) ListKOTsByBranch(ctx context.Context, scope tenancy.Scope, branchID uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.KOT], error) {
	kots, total, err := s.kots.ListByBranch(ctx, scope, branchID, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(kots, params, total), nil
}

// ListUnprinted lists a branch's pending tickets oldest first
func (s *KOTService) ListUnprinted(ctx context.Context, scope tenancy.Scope, branchID uuid.UUID) ([]entity.KOT, error) {
	kots, err := s.kots.ListUnprinted(ctx, scope, branchID)
	if err != nil {
		return nil, err
	}
	if kots == nil {
		kots = []entity.KOT{}
	}
	return kots, nil
}

// PrintKOT marks a ticket printed exactly once, then enqueues the print
// job. An enqueue failure is logged; the flag stays set.
func (s *KOTService) PrintKOT(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.KOT, error) {
	ctx, span := tracing.Start(ctx, "KOTService.PrintKOT")
	defer span.End()

	kot, err := s.GetKOT(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if kot.Printed {
		return nil, apperror.ErrAlreadyPrinted
	}

	at := s.now()
	flipped, err := s.kots.MarkPrinted(ctx, scope, id, at)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, apperror.ErrAlreadyPrinted
	}
	kot.Printed = true
	kot.PrintedAt = &at

	s.enqueue(ctx, scope, kot)
	return kot, nil
}

func (s *KOTService) enqueue(ctx context.Context, scope tenancy.Scope, kot *entity.KOT) {
	job, err := s.queue.Enqueue(ctx, queue.PrintKOTJob, queue.PrintKOTData{
		KOTID:    kot.ID,
		TenantID: scope.TenantID(),
		OrderID:  kot.OrderID,
		Payload:  kot.Payload,
	})
	if err != nil {
		s.metrics.KOTPrintJob("enqueue_failed")
		logger.Error(ctx).Err(err).
			Str("tenant_id", scope.String()).
			Str("kot_id", kot.ID.String()).
			Str("order_id", kot.OrderID.String()).
			Msg("print job enqueue failed")
		return
	}
	s.metrics.KOTPrintJob("enqueued")
	logger.Debug(ctx).Str("job_id", job.ID).Str("kot_id", kot.ID.String()).Msg("print job enqueued")
}

// PrintMultipleKOTs prints each ticket in turn. One failure does not stop
// the rest.
func (s *KOTService) PrintMultipleKOTs(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) *BatchPrintResult {
	result := &BatchPrintResult{
		Results: make([]entity.KOT, 0, len(ids)),
		Errors:  []BatchPrintError{},
	}
	for _, id := range ids {
		kot, err := s.PrintKOT(ctx, scope, id)
		if err != nil {
			appErr := apperror.GetAppError(err)
			if !apperror.IsAppError(err) {
				logger.Error(ctx).Err(err).Str("kot_id", id.String()).Msg("batch print failed")
			}
			result.Errors = append(result.Errors, BatchPrintError{
				KOTID:  id,
				Reason: appErr.Reason,
				Error:  appErr.Message,
			})
			continue
		}
		result.Results = append(result.Results, *kot)
	}
	return result
}

// DeleteKOT removes a ticket that has not been printed
func (s *KOTService) DeleteKOT(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	kot, err := s.GetKOT(ctx, scope, id)
	if err != nil {
		return err
	}
	if kot.Printed {
		return apperror.ErrAlreadyPrinted
	}
	deleted, err := s.kots.DeleteUnprinted(ctx, scope, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrAlreadyPrinted
	}
	return nil
}
