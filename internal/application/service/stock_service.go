package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/pagination"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

const (
	defaultMinQty           = 10
	openingBalanceReference = "opening-balance"
)

// StockService owns on-hand quantities and their movement history
type StockService struct {
	tx       repository.Transactor
	stock    repository.StockRepository
	products repository.ProductRepository
	metrics  *metrics.Metrics
}

// NewStockService creates a new stock service
func NewStockService(
	tx repository.Transactor,
	stock repository.StockRepository,
	products repository.ProductRepository,
	m *metrics.Metrics,
) *StockService {
	return &StockService{tx: tx, stock: stock, products: products, metrics: m}
}

// RecordMovementInput represents a manual stock movement
type RecordMovementInput struct {
	ProductID uuid.UUID
	BranchID  *uuid.UUID
	Type      enum.MovementType
	Qty       int
	Reference string
	UserID    *uuid.UUID
}

// MovementResult is the movement written and the quantity it left
type MovementResult struct {
	Movement *entity.StockMovement `json:"movement"`
	NewQty   int                   `json:"new_qty"`
}

// RecordMovement applies one movement and writes its audit row atomically.
// CONSUMPTION and WASTAGE never drive qty below zero.
func (s *StockService) RecordMovement(ctx context.Context, scope tenancy.Scope, input *RecordMovementInput) (*MovementResult, error) {
	ctx, span := tracing.Start(ctx, "StockService.RecordMovement")
	defer span.End()

	if input.Qty <= 0 {
		return nil, apperror.NewFieldError("qty", "must be greater than zero")
	}
	if !input.Type.Valid() {
		return nil, apperror.NewFieldError("type", "must be one of PURCHASE, CONSUMPTION, WASTAGE, ADJUSTMENT")
	}

	var result *MovementResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.stock.Resolve(ctx, scope, input.ProductID, input.BranchID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NewNotFoundError("Stock item")
		}

		movement, newQty, err := s.apply(ctx, scope, item, input.Type, input.Qty, input.Reference, input.UserID, "")
		if err != nil {
			return err
		}
		result = &MovementResult{Movement: movement, NewQty: newQty}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockMovement(input.Type.String())
	return result, nil
}

// DecrementForOrder consumes stock for an order line. It must run inside
// the order's transaction.
func (s *StockService) DecrementForOrder(ctx context.Context, scope tenancy.Scope, product *entity.Product, branchID uuid.UUID, qty int, orderID uuid.UUID) error {
	item, err := s.stock.Resolve(ctx, scope, product.ID, &branchID)
	if err != nil {
		return err
	}
	if item == nil {
		return apperror.NewNotFoundError(fmt.Sprintf("Stock item for %s", product.Name))
	}
	_, _, err = s.apply(ctx, scope, item, enum.MovementConsumption, qty, "order:"+orderID.String(), nil, product.Name)
	return err
}

// RestoreForOrder puts stock back for a voided order or a removed line.
// A stock row that no longer exists is skipped.
func (s *StockService) RestoreForOrder(ctx context.Context, scope tenancy.Scope, productID, branchID uuid.UUID, qty int, reference string) error {
	item, err := s.stock.Resolve(ctx, scope, productID, &branchID)
	if err != nil {
		return err
	}
	if item == nil {
		logger.Warn(ctx).
			Str("product_id", productID.String()).
			Str("reference", reference).
			Msg("no stock item to restore")
		return nil
	}
	_, _, err = s.apply(ctx, scope, item, enum.MovementAdjustment, qty, reference, nil, "")
	return err
}

func (s *StockService) apply(
	ctx context.Context,
	scope tenancy.Scope,
	item *entity.StockItem,
	movementType enum.MovementType,
	qty int,
	reference string,
	userID *uuid.UUID,
	productName string,
) (*entity.StockMovement, int, error) {
	var newQty int
	if movementType.Decrements() {
		ok, after, err := s.stock.Decrement(ctx, scope, item.ID, qty)
		if err != nil {
			return nil, 0, fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return nil, 0, s.insufficient(ctx, scope, item, qty, productName)
		}
		newQty = after
	} else {
		after, err := s.stock.Increment(ctx, scope, item.ID, qty)
		if err != nil {
			return nil, 0, fmt.Errorf("increment stock: %w", err)
		}
		newQty = after
	}

	movement := &entity.StockMovement{
		StockItemID: item.ID,
		ProductID:   item.ProductID,
		BranchID:    item.BranchID,
		Type:        movementType,
		Qty:         qty,
		QtyAfter:    newQty,
		Reference:   reference,
		CreatedBy:   userID,
	}
	if err := s.stock.CreateMovement(ctx, scope, movement); err != nil {
		return nil, 0, fmt.Errorf("record movement: %w", err)
	}
	return movement, newQty, nil
}

func (s *StockService) insufficient(ctx context.Context, scope tenancy.Scope, item *entity.StockItem, requested int, productName string) error {
	current, err := s.stock.GetByID(ctx, scope, item.ID)
	if err != nil {
		return err
	}
	available := 0
	if current != nil {
		available = current.Qty
		if productName == "" && current.Product != nil {
			productName = current.Product.Name
		}
	}
	if productName == "" {
		productName = item.ProductID.String()
	}
	return apperror.NewInsufficientStockError(productName, available, requested)
}

// GetLowStock returns items below their reorder threshold, lowest first
func (s *StockService) GetLowStock(ctx context.Context, scope tenancy.Scope, branchID *uuid.UUID) ([]entity.StockItem, error) {
	items, err := s.stock.ListLow(ctx, scope, branchID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.StockItem{}
	}
	return items, nil
}

// CreateStockItemInput represents the input for tracking a product's stock
type CreateStockItemInput struct {
	ProductID uuid.UUID
	BranchID  *uuid.UUID
	Qty       int
	MinQty    *int
	UserID    *uuid.UUID
}

// CreateStockItem starts tracking a product. An opening quantity is
// recorded as a PURCHASE movement.
func (s *StockService) CreateStockItem(ctx context.Context, scope tenancy.Scope, input *CreateStockItemInput) (*entity.StockItem, error) {
	minQty := defaultMinQty
	if input.MinQty != nil {
		minQty = *input.MinQty
	}

	var fieldErrors []apperror.FieldError
	if input.Qty < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "qty", Message: "must not be negative"})
	}
	if minQty < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "min_qty", Message: "must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	product, err := s.products.GetByID(ctx, scope, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	if !product.IsInventoryTracked {
		return nil, apperror.NewFieldError("product_id", "product is not inventory tracked")
	}

	item := &entity.StockItem{
		ProductID: input.ProductID,
		BranchID:  input.BranchID,
		MinQty:    minQty,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.stock.GetExact(ctx, scope, input.ProductID, input.BranchID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflictError("Stock item already exists for this product")
		}
		if err := s.stock.Create(ctx, scope, item); err != nil {
			if isDuplicate(err) {
				return apperror.NewConflictError("Stock item already exists for this product")
			}
			return err
		}
		if input.Qty == 0 {
			return nil
		}
		_, newQty, err := s.apply(ctx, scope, item, enum.MovementPurchase, input.Qty, openingBalanceReference, input.UserID, product.Name)
		item.Qty = newQty
		return err
	})
	if err != nil {
		return nil, err
	}

	if input.Qty > 0 {
		s.metrics.StockMovement(enum.MovementPurchase.String())
	}
	item.Product = product
	return item, nil
}

// GetStockItem retrieves a stock item by ID
func (s *StockService) GetStockItem(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.StockItem, error) {
	item, err := s.stock.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Stock item")
	}
	return item, nil
}

// ListStockItems lists stock items with pagination
func (s *StockService) ListStockItems(ctx context.Context, scope tenancy.Scope, branchID *uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.StockItem], error) {
	items, total, err := s.stock.List(ctx, scope, &repository.StockFilterParams{
		Pagination: params,
		BranchID:   branchID,
	})
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(items, params, total), nil
}

// UpdateMinQty changes the reorder threshold
func (s *StockService) UpdateMinQty(ctx context.Context, scope tenancy.Scope, id uuid.UUID, minQty int) (*entity.StockItem, error) {
	if minQty < 0 {
		return nil, apperror.NewFieldError("min_qty", "must not be negative")
	}
	item, err := s.GetStockItem(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.stock.UpdateMinQty(ctx, scope, id, minQty); err != nil {
		return nil, err
	}
	item.MinQty = minQty
	return item, nil
}

// DeleteStockItem removes an item that holds no stock
func (s *StockService) DeleteStockItem(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	item, err := s.GetStockItem(ctx, scope, id)
	if err != nil {
		return err
	}
	if item.Qty > 0 {
		return apperror.NewConflictError("Stock item still holds stock")
	}
	deleted, err := s.stock.DeleteEmpty(ctx, scope, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NewConflictError("Stock item still holds stock")
	}
	return nil
}

// ListMovements lists movements newest first
func (s *StockService) ListMovements(ctx context.Context, scope tenancy.Scope, productID *uuid.UUID, movementType *enum.MovementType, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.StockMovement], error) {
	if movementType != nil && !movementType.Valid() {
		return nil, apperror.NewFieldError("type", "unknown movement type")
	}
	movements, total, err := s.stock.ListMovements(ctx, scope, &repository.MovementFilterParams{
		Pagination: params,
		ProductID:  productID,
		Type:       movementType,
	})
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(movements, params, total), nil
}

// StockSummary aggregates the tenant's stock
func (s *StockService) StockSummary(ctx context.Context, scope tenancy.Scope) (*repository.StockSummary, error) {
	return s.stock.Summary(ctx, scope)
}
