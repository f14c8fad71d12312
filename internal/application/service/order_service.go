package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/pagination"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

// OrderService is the single entry point that turns a cart into an order,
// its kitchen ticket and the matching stock decrements
type OrderService struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	products repository.ProductRepository
	tenants  repository.TenantRepository
	kots     repository.KOTRepository
	invoices repository.InvoiceRepository
	stock    *StockService
	kot      *KOTService
	events   EventPublisher
	metrics  *metrics.Metrics
	opts     OrderOptions
	now      Clock
}

// OrderOptions configures the order engine
type OrderOptions struct {
	AutoPrintKOT bool
	Topic        string
}

// OrderDeps groups the collaborators of OrderService
type OrderDeps struct {
	Tx       repository.Transactor
	Orders   repository.OrderRepository
	Products repository.ProductRepository
	Tenants  repository.TenantRepository
	KOTs     repository.KOTRepository
	Invoices repository.InvoiceRepository
	Stock    *StockService
	KOT      *KOTService
	Events   EventPublisher
	Metrics  *metrics.Metrics
}

// NewOrderService creates a new order service
func NewOrderService(deps OrderDeps, opts OrderOptions) *OrderService {
	return &OrderService{
		tx:       deps.Tx,
		orders:   deps.Orders,
		products: deps.Products,
		tenants:  deps.Tenants,
		kots:     deps.KOTs,
		invoices: deps.Invoices,
		stock:    deps.Stock,
		kot:      deps.KOT,
		events:   deps.Events,
		metrics:  deps.Metrics,
		opts:     opts,
		now:      systemClock,
	}
}

// OrderItemInput represents an item in an order
type OrderItemInput struct {
	ProductID uuid.UUID
	Qty       int
	Notes     string
}

// CreateOrderInput represents the create order input
type CreateOrderInput struct {
	BranchID uuid.UUID
	TableID  *uuid.UUID
	UserID   *uuid.UUID
	Items    []OrderItemInput
	Tax      money.Money
	Discount money.Money
	Notes    string
}

func qtyError(qty int) string {
	switch {
	case qty <= 0:
		return "must be greater than zero"
	case qty > entity.MaxItemQty:
		return fmt.Sprintf("must be at most %d", entity.MaxItemQty)
	}
	return ""
}

// totalsError re-derives the totals of order and maps failures to field errors
func totalsError(order *entity.Order) error {
	if err := order.RecalculateTotals(); err != nil {
		if errors.Is(err, money.ErrOutOfRange) {
			return apperror.NewFieldError("items", "order total is out of range")
		}
		return err
	}
	if order.Total.IsNegative() {
		return apperror.NewFieldError("discount", "must not exceed subtotal plus tax")
	}
	return nil
}

func (in *CreateOrderInput) validate() error {
	var fieldErrors []apperror.FieldError
	if in.BranchID == uuid.Nil {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "branch_id", Message: "is required"})
	}
	if len(in.Items) == 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items", Message: "must contain at least one item"})
	}
	for i, item := range in.Items {
		if msg := qtyError(item.Qty); msg != "" {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].qty", i),
				Message: msg,
			})
		}
	}
	if in.Tax.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tax", Message: "must not be negative"})
	}
	if in.Discount.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "discount", Message: "must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// CreateOrder persists the order, its items and its KOT and decrements
// tracked stock, all in one transaction. Printing is started after commit.
func (s *OrderService) CreateOrder(ctx context.Context, scope tenancy.Scope, input *CreateOrderInput) (*entity.Order, error) {
	ctx, span := tracing.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	order, kot, err := s.createOrder(ctx, scope, input)
	if err != nil {
		s.metrics.OrderFailed(string(apperror.ReasonOf(err)))
		return nil, err
	}

	s.metrics.OrderCreated()
	publish(ctx, s.events, orderMessage(s.opts.Topic, EventOrderCreated, order, s.now()))

	if s.opts.AutoPrintKOT {
		if _, err := s.kot.PrintKOT(ctx, scope, kot.ID); err != nil {
			logger.Warn(ctx).Err(err).
				Str("tenant_id", scope.String()).
				Str("order_id", order.ID.String()).
				Str("kot_id", kot.ID.String()).
				Msg("auto print failed")
		}
	}
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, scope tenancy.Scope, input *CreateOrderInput) (*entity.Order, *entity.KOT, error) {
	if err := input.validate(); err != nil {
		return nil, nil, err
	}

	branch, err := s.tenants.GetBranch(ctx, scope, input.BranchID)
	if err != nil {
		return nil, nil, err
	}
	if branch == nil {
		return nil, nil, apperror.NewNotFoundError("Branch")
	}

	// Batch fetch all products in one query (prevents N+1)
	productIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	productMap, err := s.loadProducts(ctx, scope, productIDs)
	if err != nil {
		return nil, nil, err
	}

	order := &entity.Order{
		BranchID: input.BranchID,
		TableID:  input.TableID,
		UserID:   input.UserID,
		Status:   enum.OrderStatusPending,
		Tax:      input.Tax,
		Discount: input.Discount,
		Notes:    input.Notes,
		Items:    make([]entity.OrderItem, 0, len(input.Items)),
	}

	// Lines of the same product are decremented once, in first-seen order
	decrements := make(map[uuid.UUID]int)
	var decrementOrder []uuid.UUID
	for _, item := range input.Items {
		product := productMap[item.ProductID]
		order.Items = append(order.Items, entity.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       item.Qty,
			Price:     product.Price,
			Status:    enum.OrderItemStatusPending,
			Notes:     item.Notes,
		})
		if !product.IsInventoryTracked {
			continue
		}
		if _, seen := decrements[product.ID]; !seen {
			decrementOrder = append(decrementOrder, product.ID)
		}
		decrements[product.ID] += item.Qty
	}
	if err := totalsError(order); err != nil {
		return nil, nil, err
	}

	var kot *entity.KOT
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, scope, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		kot = newKOT(order, s.now())
		if err := s.kots.Create(ctx, scope, kot); err != nil {
			if isDuplicate(err) {
				return apperror.ErrDuplicateKOT
			}
			return fmt.Errorf("create kot: %w", err)
		}

		for _, productID := range decrementOrder {
			if err := s.stock.DecrementForOrder(ctx, scope, productMap[productID], order.BranchID, decrements[productID], order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for range decrementOrder {
		s.metrics.StockMovement(enum.MovementConsumption.String())
	}
	return order, kot, nil
}

// loadProducts fails with NotFound when any id is not a product of the tenant
func (s *OrderService) loadProducts(ctx context.Context, scope tenancy.Scope, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error) {
	products, err := s.products.GetByIDs(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}
	for _, id := range ids {
		product, ok := productMap[id]
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", id))
		}
		if !product.IsAvailable {
			return nil, apperror.NewFieldError("product_id", fmt.Sprintf("%s is not available", product.Name))
		}
	}
	return productMap, nil
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrdersInput represents order list filters
type ListOrdersInput struct {
	BranchID   *uuid.UUID
	Status     *enum.OrderStatus
	Pagination *pagination.PaginationParams
}

// ListOrders lists orders with pagination
func (s *OrderService) ListOrders(ctx context.Context, scope tenancy.Scope, input *ListOrdersInput) (*pagination.PaginatedResult[entity.Order], error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperror.NewFieldError("status", "unknown order status")
	}
	orders, total, err := s.orders.List(ctx, scope, &repository.OrderFilterParams{
		Pagination: input.Pagination,
		BranchID:   input.BranchID,
		Status:     input.Status,
	})
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(orders, input.Pagination, total), nil
}

// ListOpenOrdersByTable returns the orders of a table that are neither
// completed nor cancelled
func (s *OrderService) ListOpenOrdersByTable(ctx context.Context, scope tenancy.Scope, tableID uuid.UUID) ([]entity.Order, error) {
	orders, err := s.orders.ListOpenByTable(ctx, scope, tableID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return orders, nil
}

// OrderStats counts orders by status with completed revenue
func (s *OrderService) OrderStats(ctx context.Context, scope tenancy.Scope, branchID *uuid.UUID) (*repository.OrderStats, error) {
	return s.orders.Stats(ctx, scope, branchID)
}

// UpdateOrderStatus moves an order along its status graph. Cancelling goes
// through VoidOrder so that stock is restored.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, status enum.OrderStatus) (*entity.Order, error) {
	if !status.Valid() {
		return nil, apperror.NewFieldError("status", "unknown order status")
	}
	if status == enum.OrderStatusCancelled {
		return s.VoidOrder(ctx, scope, id, "")
	}

	order, err := s.mutate(ctx, scope, id, func(ctx context.Context, order *entity.Order) error {
		if !order.Status.CanTransitionTo(status) {
			return apperror.NewInvalidTransitionError("order", order.Status.String(), status.String())
		}
		order.Status = status
		if status == enum.OrderStatusCompleted {
			at := s.now()
			order.CompletedAt = &at
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, orderMessage(s.opts.Topic, EventOrderUpdated, order, s.now()))
	return order, nil
}

// AddOrderItem appends a line to an open order at the current menu price
func (s *OrderService) AddOrderItem(ctx context.Context, scope tenancy.Scope, orderID uuid.UUID, input *OrderItemInput) (*entity.Order, error) {
	if msg := qtyError(input.Qty); msg != "" {
		return nil, apperror.NewFieldError("qty", msg)
	}

	order, err := s.mutate(ctx, scope, orderID, func(ctx context.Context, order *entity.Order) error {
		if !order.Status.IsOpen() {
			return apperror.NewConflictError("Order is no longer open")
		}
		productMap, err := s.loadProducts(ctx, scope, []uuid.UUID{input.ProductID})
		if err != nil {
			return err
		}
		product := productMap[input.ProductID]
		lineTotal, err := product.Price.CheckedMul(input.Qty)
		if err != nil {
			return apperror.NewFieldError("qty", "line total is out of range")
		}

		item := entity.OrderItem{
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       input.Qty,
			Price:     product.Price,
			LineTotal: lineTotal,
			Status:    enum.OrderItemStatusPending,
			Notes:     input.Notes,
		}
		if err := s.orders.CreateItem(ctx, scope, &item); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
		order.Items = append(order.Items, item)

		if product.IsInventoryTracked {
			return s.stock.DecrementForOrder(ctx, scope, product, order.BranchID, input.Qty, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, orderMessage(s.opts.Topic, EventOrderUpdated, order, s.now()))
	return order, nil
}

// RemoveOrderItem deletes a line from an open order and restores its stock.
// The last remaining line cannot be removed.
func (s *OrderService) RemoveOrderItem(ctx context.Context, scope tenancy.Scope, orderID, itemID uuid.UUID) (*entity.Order, error) {
	order, err := s.mutate(ctx, scope, orderID, func(ctx context.Context, order *entity.Order) error {
		if !order.Status.IsOpen() {
			return apperror.NewConflictError("Order is no longer open")
		}
		idx := findItem(order, itemID)
		if idx < 0 {
			return apperror.NewNotFoundError("Order item")
		}
		item := order.Items[idx]
		if item.Status != enum.OrderItemStatusCancelled && len(order.ActiveItems()) == 1 {
			return apperror.NewFieldError("item_id", "cannot remove the last item, void the order instead")
		}

		if err := s.orders.DeleteItem(ctx, scope, itemID); err != nil {
			return fmt.Errorf("delete order item: %w", err)
		}
		order.Items = append(order.Items[:idx], order.Items[idx+1:]...)

		if item.Status == enum.OrderItemStatusCancelled {
			return nil
		}
		return s.restoreItems(ctx, scope, order.BranchID, []entity.OrderItem{item}, "item-removed:"+itemID.String())
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, orderMessage(s.opts.Topic, EventOrderUpdated, order, s.now()))
	return order, nil
}

// UpdateOrderItemStatus moves a line along the kitchen status graph.
// Cancelling a line restores its stock and drops it from the totals.
func (s *OrderService) UpdateOrderItemStatus(ctx context.Context, scope tenancy.Scope, orderID, itemID uuid.UUID, status enum.OrderItemStatus) (*entity.Order, error) {
	if !status.Valid() {
		return nil, apperror.NewFieldError("status", "unknown order item status")
	}

	order, err := s.mutate(ctx, scope, orderID, func(ctx context.Context, order *entity.Order) error {
		if order.Status == enum.OrderStatusCancelled {
			return apperror.NewConflictError("Order is cancelled")
		}
		idx := findItem(order, itemID)
		if idx < 0 {
			return apperror.NewNotFoundError("Order item")
		}
		item := &order.Items[idx]
		if !item.Status.CanTransitionTo(status) {
			return apperror.NewInvalidTransitionError("order item", item.Status.String(), status.String())
		}

		if status == enum.OrderItemStatusCancelled {
			if !order.Status.IsOpen() {
				return apperror.NewConflictError("Order is no longer open")
			}
			if len(order.ActiveItems()) == 1 {
				return apperror.NewFieldError("status", "cannot cancel the last item, void the order instead")
			}
			if err := s.restoreItems(ctx, scope, order.BranchID, []entity.OrderItem{*item}, "item-removed:"+itemID.String()); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateItemStatus(ctx, scope, itemID, status); err != nil {
			return fmt.Errorf("update order item: %w", err)
		}
		item.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, orderMessage(s.opts.Topic, EventOrderUpdated, order, s.now()))
	return order, nil
}

// VoidOrder cancels an order, restores the stock of its active lines and
// drops its unprinted ticket. Orders with an active invoice cannot be voided.
func (s *OrderService) VoidOrder(ctx context.Context, scope tenancy.Scope, id uuid.UUID, reason string) (*entity.Order, error) {
	ctx, span := tracing.Start(ctx, "OrderService.VoidOrder")
	defer span.End()

	order, err := s.mutate(ctx, scope, id, func(ctx context.Context, order *entity.Order) error {
		if !order.Status.CanTransitionTo(enum.OrderStatusCancelled) {
			return apperror.NewInvalidTransitionError("order", order.Status.String(), enum.OrderStatusCancelled.String())
		}
		invoice, err := s.invoices.GetActiveByOrder(ctx, scope, order.ID)
		if err != nil {
			return err
		}
		if invoice != nil {
			return apperror.NewConflictError(fmt.Sprintf("Order has active invoice %s, cancel it first", invoice.InvoiceNumber))
		}

		if err := s.restoreItems(ctx, scope, order.BranchID, order.ActiveItems(), "void:"+order.ID.String()); err != nil {
			return err
		}
		if err := s.kots.DeleteUnprintedByOrder(ctx, scope, order.ID); err != nil {
			return fmt.Errorf("delete kot: %w", err)
		}

		at := s.now()
		order.Status = enum.OrderStatusCancelled
		order.CancelledAt = &at
		order.CancelReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, orderMessage(s.opts.Topic, EventOrderVoided, order, s.now()))
	return order, nil
}

// mutate locks the order, applies fn, re-derives totals from the current
// lines and writes the order back, all in one transaction.
func (s *OrderService) mutate(ctx context.Context, scope tenancy.Scope, id uuid.UUID, fn func(ctx context.Context, order *entity.Order) error) (*entity.Order, error) {
	var order *entity.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetForUpdate(ctx, scope, id)
		if err != nil {
			return err
		}
		if order == nil {
			return apperror.NewNotFoundError("Order")
		}
		if err := fn(ctx, order); err != nil {
			return err
		}
		if err := totalsError(order); err != nil {
			return err
		}
		return s.orders.Update(ctx, scope, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// restoreItems puts back the stock of tracked products among items
func (s *OrderService) restoreItems(ctx context.Context, scope tenancy.Scope, branchID uuid.UUID, items []entity.OrderItem, reference string) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, scope, ids)
	if err != nil {
		return err
	}
	tracked := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		tracked[p.ID] = p.IsInventoryTracked
	}

	restores := make(map[uuid.UUID]int)
	var restoreOrder []uuid.UUID
	for _, item := range items {
		if !tracked[item.ProductID] {
			continue
		}
		if _, seen := restores[item.ProductID]; !seen {
			restoreOrder = append(restoreOrder, item.ProductID)
		}
		restores[item.ProductID] += item.Qty
	}
	for _, productID := range restoreOrder {
		if err := s.stock.RestoreForOrder(ctx, scope, productID, branchID, restores[productID], reference); err != nil {
			return err
		}
	}
	return nil
}

func findItem(order *entity.Order, itemID uuid.UUID) int {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
