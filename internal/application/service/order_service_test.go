package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/infrastructure/queue"
	"github.com/sangkips/tablepos-api/internal/testutil"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenantID := env.tenant.Tenant.ID

	croissant := testutil.CreateProduct(t, env.db, tenantID, "Croissant", "5.00", true)
	coffee := testutil.CreateProduct(t, env.db, tenantID, "Flat White", "3.50", false)
	stock := testutil.CreateStock(t, env.db, croissant, 10, 2)

	order, err := env.orders.CreateOrder(ctx, env.tenant.Scope, &CreateOrderInput{
		BranchID: env.tenant.Branch.ID,
		Items: []OrderItemInput{
			{ProductID: croissant.ID, Qty: 2},
			{ProductID: coffee.ID, Qty: 1, Notes: "oat milk"},
		},
		Tax: money.MustParse("0.85"),
	})
	require.NoError(t, err)

	assert.Equal(t, enum.OrderStatusPending, order.Status)
	assert.Equal(t, "13.50", order.Subtotal.String())
	assert.Equal(t, "14.35", order.Total.String())
	assert.Len(t, order.Items, 2)

	t.Run("total survives a reload", func(t *testing.T) {
		reloaded, err := env.orders.GetOrder(ctx, env.tenant.Scope, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "14.35", reloaded.Total.String())
		assert.Equal(t, "10.00", itemByName(t, reloaded, "Croissant").LineTotal.String())
	})

	t.Run("tracked stock is consumed", func(t *testing.T) {
		assert.Equal(t, 8, testutil.StockQty(t, env.db, stock.ID))
		assert.Equal(t, int64(1), testutil.Count(t, env.db, &entity.StockMovement{},
			"type = ? AND reference = ?", enum.MovementConsumption, "order:"+order.ID.String()))
	})

	t.Run("ticket is created and printed once", func(t *testing.T) {
		kot, err := repositoryKOT(env, order.ID)
		require.NoError(t, err)
		assert.True(t, kot.Printed)
		assert.Len(t, kot.Payload.Items, 2)

		require.Equal(t, 1, env.queue.Len())
		var data queue.PrintKOTData
		require.NoError(t, env.queue.Jobs[0].Decode(&data))
		assert.Equal(t, kot.ID, data.KOTID)
		assert.Equal(t, tenantID, data.TenantID)
	})

	t.Run("created event is published", func(t *testing.T) {
		require.Equal(t, []string{EventOrderCreated}, env.publisher.Types())
		msg := env.publisher.Messages[0]
		assert.Equal(t, "pos.orders", msg.Topic)
		assert.Equal(t, tenantID.String(), msg.Key)
	})
}

func repositoryKOT(env *testEnv, orderID uuid.UUID) (*entity.KOT, error) {
	var kot entity.KOT
	err := env.db.First(&kot, "order_id = ?", orderID).Error
	return &kot, err
}

func TestCreateOrderIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	tenantID := env.tenant.Tenant.ID

	a := testutil.CreateProduct(t, env.db, tenantID, "Muffin", "2.00", true)
	b := testutil.CreateProduct(t, env.db, tenantID, "Juice", "4.00", true)
	stockA := testutil.CreateStock(t, env.db, a, 10, 0)
	testutil.CreateStock(t, env.db, b, 0, 0)

	_, err := env.orders.CreateOrder(context.Background(), env.tenant.Scope, &CreateOrderInput{
		BranchID: env.tenant.Branch.ID,
		Items: []OrderItemInput{
			{ProductID: a.ID, Qty: 3},
			{ProductID: b.ID, Qty: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "Juice")

	assert.Equal(t, 10, testutil.StockQty(t, env.db, stockA.ID))
	assert.Zero(t, testutil.Count(t, env.db, &entity.Order{}, ""))
	assert.Zero(t, testutil.Count(t, env.db, &entity.OrderItem{}, ""))
	assert.Zero(t, testutil.Count(t, env.db, &entity.KOT{}, ""))
	assert.Zero(t, testutil.Count(t, env.db, &entity.StockMovement{}, ""))
	assert.Zero(t, env.queue.Len())
	assert.Empty(t, env.publisher.Messages)
}

func TestCreateOrderSumsLinesOfOneProduct(t *testing.T) {
	env := newTestEnv(t)
	product := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Scone", "1.50", true)
	stock := testutil.CreateStock(t, env.db, product, 6, 0)

	input := &CreateOrderInput{
		BranchID: env.tenant.Branch.ID,
		Items: []OrderItemInput{
			{ProductID: product.ID, Qty: 3},
			{ProductID: product.ID, Qty: 4},
		},
	}
	_, err := env.orders.CreateOrder(context.Background(), env.tenant.Scope, input)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))
	assert.Equal(t, 6, testutil.StockQty(t, env.db, stock.ID))

	input.Items[1].Qty = 2
	order, err := env.orders.CreateOrder(context.Background(), env.tenant.Scope, input)
	require.NoError(t, err)
	assert.Equal(t, "7.50", order.Total.String())
	assert.Equal(t, 1, testutil.StockQty(t, env.db, stock.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)

	other := testutil.CreateTenant(t, env.db, "other")
	foreign := testutil.CreateProduct(t, env.db, other.Tenant.ID, "Foreign", "1.00", false)
	gold := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Gold", "92233720368547758.00", false)

	tests := []struct {
		name   string
		input  *CreateOrderInput
		reason apperror.Reason
	}{
		{
			name:   "no items",
			input:  &CreateOrderInput{BranchID: env.tenant.Branch.ID},
			reason: apperror.ReasonValidation,
		},
		{
			name: "zero qty",
			input: &CreateOrderInput{
				BranchID: env.tenant.Branch.ID,
				Items:    []OrderItemInput{{ProductID: product.ID, Qty: 0}},
			},
			reason: apperror.ReasonValidation,
		},
		{
			name: "qty above line limit",
			input: &CreateOrderInput{
				BranchID: env.tenant.Branch.ID,
				Items:    []OrderItemInput{{ProductID: product.ID, Qty: 3689348814741910324}},
			},
			reason: apperror.ReasonValidation,
		},
		{
			name: "total beyond int64 cents",
			input: &CreateOrderInput{
				BranchID: env.tenant.Branch.ID,
				Items: []OrderItemInput{
					{ProductID: gold.ID, Qty: 1},
					{ProductID: gold.ID, Qty: 1},
				},
			},
			reason: apperror.ReasonValidation,
		},
		{
			name: "product of another tenant",
			input: &CreateOrderInput{
				BranchID: env.tenant.Branch.ID,
				Items: []OrderItemInput{
					{ProductID: product.ID, Qty: 1},
					{ProductID: foreign.ID, Qty: 1},
				},
			},
			reason: apperror.ReasonNotFound,
		},
		{
			name: "branch of another tenant",
			input: &CreateOrderInput{
				BranchID: other.Branch.ID,
				Items:    []OrderItemInput{{ProductID: product.ID, Qty: 1}},
			},
			reason: apperror.ReasonNotFound,
		},
		{
			name: "discount above total",
			input: &CreateOrderInput{
				BranchID: env.tenant.Branch.ID,
				Items:    []OrderItemInput{{ProductID: product.ID, Qty: 1}},
				Discount: money.MustParse("2.01"),
			},
			reason: apperror.ReasonValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.CreateOrder(ctx, env.tenant.Scope, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.reason, apperror.ReasonOf(err))
		})
	}
	assert.Zero(t, testutil.Count(t, env.db, &entity.Order{}, ""))
}

func TestCreateOrderSurvivesEnqueueFailure(t *testing.T) {
	env := newTestEnv(t)
	env.queue.Err = errors.New("redis down")
	product := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)

	order := env.order(t, product, 1)

	kot, err := repositoryKOT(env, order.ID)
	require.NoError(t, err)
	assert.True(t, kot.Printed)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &entity.Order{}, ""))
}

func TestCreateOrderWithoutAutoPrint(t *testing.T) {
	env := newTestEnv(t, withAutoPrint(false))
	product := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)

	order := env.order(t, product, 1)

	kot, err := repositoryKOT(env, order.ID)
	require.NoError(t, err)
	assert.False(t, kot.Printed)
	assert.Zero(t, env.queue.Len())
}

func TestOrdersAreTenantScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)
	order := env.order(t, product, 1)

	other := testutil.CreateTenant(t, env.db, "other")
	_, err := env.orders.GetOrder(ctx, other.Scope, order.ID)
	assert.Equal(t, apperror.ReasonNotFound, apperror.ReasonOf(err))

	res, err := env.orders.ListOrders(ctx, other.Scope, &ListOrdersInput{Pagination: &pagination.PaginationParams{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestListOrdersAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	product := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)

	tableID := uuid.New()
	open, err := env.orders.CreateOrder(ctx, scope, &CreateOrderInput{
		BranchID: env.tenant.Branch.ID,
		TableID:  &tableID,
		Items:    []OrderItemInput{{ProductID: product.ID, Qty: 1}},
	})
	require.NoError(t, err)
	done := env.order(t, product, 3)
	_, err = env.orders.UpdateOrderStatus(ctx, scope, done.ID, enum.OrderStatusCompleted)
	require.NoError(t, err)

	status := enum.OrderStatusPending
	res, err := env.orders.ListOrders(ctx, scope, &ListOrdersInput{
		Status:     &status,
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 10},
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, open.ID, res.Items[0].ID)
	assert.Equal(t, int64(1), res.Pagination.Total)

	byTable, err := env.orders.ListOpenOrdersByTable(ctx, scope, tableID)
	require.NoError(t, err)
	require.Len(t, byTable, 1)
	assert.Equal(t, open.ID, byTable[0].ID)

	stats, err := env.orders.OrderStats(ctx, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[enum.OrderStatusCompleted])
	assert.Equal(t, "6.00", stats.Revenue.String())
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	product := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)
	order := env.order(t, product, 1)

	_, err := env.orders.UpdateOrderStatus(ctx, scope, order.ID, enum.OrderStatusPending)
	assert.Equal(t, apperror.ReasonInvalidTransition, apperror.ReasonOf(err))

	updated, err := env.orders.UpdateOrderStatus(ctx, scope, order.ID, enum.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	updated, err = env.orders.UpdateOrderStatus(ctx, scope, order.ID, enum.OrderStatusCompleted)
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, "2.00", updated.Total.String())

	_, err = env.orders.UpdateOrderStatus(ctx, scope, order.ID, enum.OrderStatusInProgress)
	assert.Equal(t, apperror.ReasonInvalidTransition, apperror.ReasonOf(err))

	_, err = env.orders.UpdateOrderStatus(ctx, scope, order.ID, enum.OrderStatus("SERVED"))
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	assert.Equal(t, []string{EventOrderCreated, EventOrderUpdated, EventOrderUpdated}, env.publisher.Types())
}

func TestAddAndRemoveOrderItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	tenantID := env.tenant.Tenant.ID

	tea := testutil.CreateProduct(t, env.db, tenantID, "Tea", "2.00", false)
	cake := testutil.CreateProduct(t, env.db, tenantID, "Cake", "4.25", true)
	stock := testutil.CreateStock(t, env.db, cake, 5, 1)
	order := env.order(t, tea, 1)

	order, err := env.orders.AddOrderItem(ctx, scope, order.ID, &OrderItemInput{ProductID: cake.ID, Qty: 2})
	require.NoError(t, err)
	assert.Equal(t, "10.50", order.Total.String())
	assert.Equal(t, 3, testutil.StockQty(t, env.db, stock.ID))

	_, err = env.orders.AddOrderItem(ctx, scope, order.ID, &OrderItemInput{ProductID: cake.ID, Qty: 4})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))
	assert.Equal(t, int64(2), testutil.Count(t, env.db, &entity.OrderItem{}, "order_id = ?", order.ID))

	other := testutil.CreateTenant(t, env.db, "other")
	foreign := testutil.CreateProduct(t, env.db, other.Tenant.ID, "Foreign", "1.00", false)
	_, err = env.orders.AddOrderItem(ctx, scope, order.ID, &OrderItemInput{ProductID: foreign.ID, Qty: 1})
	assert.Equal(t, apperror.ReasonNotFound, apperror.ReasonOf(err))

	cakeLine := itemByName(t, order, "Cake")
	order, err = env.orders.RemoveOrderItem(ctx, scope, order.ID, cakeLine.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.00", order.Total.String())
	assert.Equal(t, 5, testutil.StockQty(t, env.db, stock.ID))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &entity.StockMovement{},
		"reference = ?", "item-removed:"+cakeLine.ID.String()))

	reloaded, err := env.orders.GetOrder(ctx, scope, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.00", reloaded.Total.String())

	_, err = env.orders.RemoveOrderItem(ctx, scope, order.ID, order.Items[0].ID)
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	_, err = env.orders.RemoveOrderItem(ctx, scope, order.ID, uuid.New())
	assert.Equal(t, apperror.ReasonNotFound, apperror.ReasonOf(err))
}

func TestAddOrderItemRejectsOverflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	tenantID := env.tenant.Tenant.ID

	tea := testutil.CreateProduct(t, env.db, tenantID, "Tea", "2.00", false)
	gold := testutil.CreateProduct(t, env.db, tenantID, "Gold", "92233720368547758.00", false)
	order := env.order(t, tea, 1)

	_, err := env.orders.AddOrderItem(ctx, scope, order.ID, &OrderItemInput{ProductID: tea.ID, Qty: entity.MaxItemQty + 1})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	_, err = env.orders.AddOrderItem(ctx, scope, order.ID, &OrderItemInput{ProductID: gold.ID, Qty: 2})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	_, err = env.orders.AddOrderItem(ctx, scope, order.ID, &OrderItemInput{ProductID: gold.ID, Qty: 1})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err), "subtotal does not fit")

	reloaded, err := env.orders.GetOrder(ctx, scope, order.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Items, 1)
	assert.Equal(t, "2.00", reloaded.Total.String())
}

func TestClosedOrderRejectsItemChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	tea := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)
	order := env.order(t, tea, 1)

	_, err := env.orders.UpdateOrderStatus(ctx, scope, order.ID, enum.OrderStatusCompleted)
	require.NoError(t, err)

	_, err = env.orders.AddOrderItem(ctx, scope, order.ID, &OrderItemInput{ProductID: tea.ID, Qty: 1})
	assert.Equal(t, apperror.ReasonConflict, apperror.ReasonOf(err))
}

func TestUpdateOrderItemStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	tenantID := env.tenant.Tenant.ID

	tea := testutil.CreateProduct(t, env.db, tenantID, "Tea", "2.00", false)
	cake := testutil.CreateProduct(t, env.db, tenantID, "Cake", "4.00", true)
	stock := testutil.CreateStock(t, env.db, cake, 5, 1)

	order, err := env.orders.CreateOrder(ctx, scope, &CreateOrderInput{
		BranchID: env.tenant.Branch.ID,
		Items: []OrderItemInput{
			{ProductID: tea.ID, Qty: 1},
			{ProductID: cake.ID, Qty: 2},
		},
	})
	require.NoError(t, err)
	cakeLine := itemByName(t, order, "Cake")
	teaLine := itemByName(t, order, "Tea")

	order, err = env.orders.UpdateOrderItemStatus(ctx, scope, order.ID, teaLine.ID, enum.OrderItemStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderItemStatusPreparing, itemByName(t, order, "Tea").Status)

	_, err = env.orders.UpdateOrderItemStatus(ctx, scope, order.ID, teaLine.ID, enum.OrderItemStatusPending)
	assert.Equal(t, apperror.ReasonInvalidTransition, apperror.ReasonOf(err))

	order, err = env.orders.UpdateOrderItemStatus(ctx, scope, order.ID, cakeLine.ID, enum.OrderItemStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, "2.00", order.Total.String())
	assert.Equal(t, 5, testutil.StockQty(t, env.db, stock.ID))

	_, err = env.orders.UpdateOrderItemStatus(ctx, scope, order.ID, teaLine.ID, enum.OrderItemStatusCancelled)
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	reloaded, err := env.orders.GetOrder(ctx, scope, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.00", reloaded.Total.String())
	assert.Len(t, reloaded.ActiveItems(), 1)
}

func TestVoidOrder(t *testing.T) {
	env := newTestEnv(t, withAutoPrint(false))
	ctx := context.Background()
	scope := env.tenant.Scope
	cake := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Cake", "4.00", true)
	stock := testutil.CreateStock(t, env.db, cake, 5, 1)

	order := env.order(t, cake, 3)
	require.Equal(t, 2, testutil.StockQty(t, env.db, stock.ID))

	voided, err := env.orders.VoidOrder(ctx, scope, order.ID, "customer left")
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusCancelled, voided.Status)
	assert.Equal(t, "customer left", voided.CancelReason)
	assert.NotNil(t, voided.CancelledAt)

	assert.Equal(t, 5, testutil.StockQty(t, env.db, stock.ID))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &entity.StockMovement{}, "reference = ?", "void:"+order.ID.String()))
	assert.Zero(t, testutil.Count(t, env.db, &entity.KOT{}, "order_id = ?", order.ID))

	_, err = env.orders.VoidOrder(ctx, scope, order.ID, "")
	assert.Equal(t, apperror.ReasonInvalidTransition, apperror.ReasonOf(err))
	assert.Equal(t, 5, testutil.StockQty(t, env.db, stock.ID))

	assert.Equal(t, EventOrderVoided, env.publisher.Types()[len(env.publisher.Messages)-1])
}

func TestVoidOrderKeepsPrintedTicket(t *testing.T) {
	env := newTestEnv(t)
	tea := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)
	order := env.order(t, tea, 1)

	_, err := env.orders.UpdateOrderStatus(context.Background(), env.tenant.Scope, order.ID, enum.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &entity.KOT{}, "order_id = ?", order.ID))
}

func TestVoidOrderWithActiveInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	tea := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)
	order := env.order(t, tea, 1)

	invoice, err := env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: order.Total})
	require.NoError(t, err)

	_, err = env.orders.VoidOrder(ctx, scope, order.ID, "")
	assert.Equal(t, apperror.ReasonConflict, apperror.ReasonOf(err))

	_, err = env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, enum.InvoiceStatusCancelled)
	require.NoError(t, err)

	_, err = env.orders.VoidOrder(ctx, scope, order.ID, "")
	require.NoError(t, err)
}
