package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/infrastructure/repository"
	"github.com/sangkips/tablepos-api/internal/testutil"
	"github.com/sangkips/tablepos-api/pkg/money"
)

type testEnv struct {
	db        *gorm.DB
	tenant    *testutil.Tenant
	queue     *testutil.Queue
	publisher *testutil.Publisher

	stock    *StockService
	kots     *KOTService
	orders   *OrderService
	invoices *InvoiceService
	payments *PaymentService
}

type envOption func(*OrderOptions)

func withAutoPrint(on bool) envOption {
	return func(o *OrderOptions) { o.AutoPrintKOT = on }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	tx := repository.NewTransactor(db)
	tenantRepo := repository.NewTenantRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	kotRepo := repository.NewKOTRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	q := &testutil.Queue{}
	pub := &testutil.Publisher{}

	orderOpts := OrderOptions{AutoPrintKOT: true, Topic: "pos.orders"}
	for _, opt := range opts {
		opt(&orderOpts)
	}

	stock := NewStockService(tx, stockRepo, productRepo, nil)
	kots := NewKOTService(kotRepo, orderRepo, q, nil)
	orders := NewOrderService(OrderDeps{
		Tx:       tx,
		Orders:   orderRepo,
		Products: productRepo,
		Tenants:  tenantRepo,
		KOTs:     kotRepo,
		Invoices: invoiceRepo,
		Stock:    stock,
		KOT:      kots,
		Events:   pub,
	}, orderOpts)
	invoices := NewInvoiceService(tx, invoiceRepo, paymentRepo, orderRepo, tenantRepo, nil, InvoiceOptions{DueDays: 30, NumberRetries: 3})
	payments := NewPaymentService(tx, invoiceRepo, paymentRepo, pub, nil, "pos.billing")

	return &testEnv{
		db:        db,
		tenant:    testutil.CreateTenant(t, db, "cafe"),
		queue:     q,
		publisher: pub,
		stock:     stock,
		kots:      kots,
		orders:    orders,
		invoices:  invoices,
		payments:  payments,
	}
}

// order places a single line order for product
func (e *testEnv) order(t *testing.T, product *entity.Product, qty int) *entity.Order {
	t.Helper()

	order, err := e.orders.CreateOrder(context.Background(), e.tenant.Scope, &CreateOrderInput{
		BranchID: e.tenant.Branch.ID,
		Items:    []OrderItemInput{{ProductID: product.ID, Qty: qty}},
	})
	require.NoError(t, err)
	return order
}

// invoice issues an invoice for a fresh order with the given final amount
func (e *testEnv) invoice(t *testing.T, amount string) *entity.Invoice {
	t.Helper()

	product := testutil.CreateProduct(t, e.db, e.tenant.Tenant.ID, "Bagel-"+uuid.NewString()[:4], amount, false)
	order := e.order(t, product, 1)
	invoice, err := e.invoices.CreateInvoice(context.Background(), e.tenant.Scope, &CreateInvoiceInput{
		OrderID: order.ID,
		Amount:  money.MustParse(amount),
	})
	require.NoError(t, err)
	return invoice
}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func itemByName(t *testing.T, order *entity.Order, name string) entity.OrderItem {
	t.Helper()
	for _, item := range order.Items {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("order %s has no item %q", order.ID, name)
	return entity.OrderItem{}
}
