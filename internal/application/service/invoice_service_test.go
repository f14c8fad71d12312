package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/testutil"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/money"
	"github.com/sangkips/tablepos-api/pkg/pagination"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-20240315-00001", FormatInvoiceNumber("20240315", 1))
	assert.Equal(t, "INV-20240315-12345", FormatInvoiceNumber("20240315", 12345))
}

func TestInvoiceNumberingIsPerTenantAndDay(t *testing.T) {
	env := newTestEnv(t)
	day := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	env.invoices.now = fixedClock(day)

	first := env.invoice(t, "10.00")
	second := env.invoice(t, "12.00")
	assert.Equal(t, "INV-20240315-00001", first.InvoiceNumber)
	assert.Equal(t, "INV-20240315-00002", second.InvoiceNumber)

	env.invoices.now = fixedClock(day.AddDate(0, 0, 1))
	assert.Equal(t, "INV-20240316-00001", env.invoice(t, "3.00").InvoiceNumber)

	other := testutil.CreateTenant(t, env.db, "other")
	tea := testutil.CreateProduct(t, env.db, other.Tenant.ID, "Tea", "2.00", false)
	order, err := env.orders.CreateOrder(context.Background(), other.Scope, &CreateOrderInput{
		BranchID: other.Branch.ID,
		Items:    []OrderItemInput{{ProductID: tea.ID, Qty: 1}},
	})
	require.NoError(t, err)
	invoice, err := env.invoices.CreateInvoice(context.Background(), other.Scope, &CreateInvoiceInput{OrderID: order.ID, Amount: order.Total})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240316-00001", invoice.InvoiceNumber)
}

func TestInvoiceDayFollowsTenantTimezone(t *testing.T) {
	env := newTestEnv(t)
	env.tenant.Tenant.Settings.Timezone = "Africa/Nairobi"
	require.NoError(t, env.db.Model(env.tenant.Tenant).Select("settings").Updates(env.tenant.Tenant).Error)

	// 22:30 UTC is already the next day in Nairobi (UTC+3)
	env.invoices.now = fixedClock(time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC))
	assert.Equal(t, "INV-20240316-00001", env.invoice(t, "5.00").InvoiceNumber)
}

func TestCreateInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	env.invoices.now = fixedClock(now)

	tea := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)
	order := env.order(t, tea, 5)

	invoice, err := env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{
		OrderID:  order.ID,
		Amount:   money.MustParse("10.00"),
		Tax:      money.MustParse("1.60"),
		Discount: money.MustParse("0.60"),
		Notes:    "table 4",
	})
	require.NoError(t, err)
	assert.Equal(t, "11.00", invoice.Amount.String())
	assert.Equal(t, "10.00", invoice.Subtotal.String())
	assert.Equal(t, enum.InvoiceStatusDraft, invoice.Status)
	assert.True(t, invoice.DueDate.Equal(now.AddDate(0, 0, 30)))

	_, err = env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: money.MustParse("10.00")})
	assert.True(t, errors.Is(err, apperror.ErrDuplicateInvoice))

	t.Run("cancelled invoice frees the order", func(t *testing.T) {
		_, err := env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, enum.InvoiceStatusCancelled)
		require.NoError(t, err)

		due := now.AddDate(0, 0, 7)
		again, err := env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: money.MustParse("10.00"), DueDate: &due})
		require.NoError(t, err)
		assert.Equal(t, "INV-20240315-00002", again.InvoiceNumber)
		assert.True(t, again.DueDate.Equal(due))
	})
}

func TestCreateInvoiceValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	tea := testutil.CreateProduct(t, env.db, env.tenant.Tenant.ID, "Tea", "2.00", false)
	order := env.order(t, tea, 1)

	_, err := env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: money.MustParse("2.00"), Discount: money.MustParse("2.00")})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	_, err = env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: money.MustParse("-1.00"), Tax: money.MustParse("5.00")})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	huge := money.FromCents(math.MaxInt64)
	_, err = env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: huge, Tax: huge, Discount: huge})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err), "amount plus tax wraps")

	other := testutil.CreateTenant(t, env.db, "other")
	_, err = env.invoices.CreateInvoice(ctx, other.Scope, &CreateInvoiceInput{OrderID: order.ID, Amount: money.MustParse("2.00")})
	assert.Equal(t, apperror.ReasonNotFound, apperror.ReasonOf(err))

	_, err = env.orders.VoidOrder(ctx, scope, order.ID, "")
	require.NoError(t, err)
	_, err = env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: money.MustParse("2.00")})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	assert.Zero(t, testutil.Count(t, env.db, &entity.Invoice{}, ""))
}

func TestUpdateInvoiceStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	invoice := env.invoice(t, "10.00")

	view, err := env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, enum.InvoiceStatusSent)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, view.Status)

	tests := []struct {
		name   string
		status enum.InvoiceStatus
		reason apperror.Reason
	}{
		{"paid only through payments", enum.InvoiceStatusPaid, apperror.ReasonInvalidTransition},
		{"no way back to draft", enum.InvoiceStatusDraft, apperror.ReasonInvalidTransition},
		{"same status", enum.InvoiceStatusSent, apperror.ReasonInvalidTransition},
		{"unknown status", enum.InvoiceStatus("REFUNDED"), apperror.ReasonValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, tt.status)
			assert.Equal(t, tt.reason, apperror.ReasonOf(err))
		})
	}

	_, err = env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: invoice.ID, Amount: money.MustParse("1.00"), Method: enum.PaymentMethodCard})
	require.NoError(t, err)
	_, err = env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, enum.InvoiceStatusCancelled)
	assert.Equal(t, apperror.ReasonConflict, apperror.ReasonOf(err))

	view, err = env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, enum.InvoiceStatusOverdue)
	require.NoError(t, err)
	assert.Equal(t, "9.00", view.AmountDue.String())
}

func TestGetAndListInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	invoice := env.invoice(t, "8.00")
	env.invoice(t, "4.00")

	_, err := env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: invoice.ID, Amount: money.MustParse("2.00"), Method: enum.PaymentMethodCash})
	require.NoError(t, err)

	view, err := env.invoices.GetInvoice(ctx, scope, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.00", view.TotalPaid.String())
	assert.Equal(t, "6.00", view.AmountDue.String())
	assert.Equal(t, "25", view.PercentagePaid.String())
	assert.Len(t, view.Payments, 1)

	status := enum.InvoiceStatusViewed
	page, err := env.invoices.ListInvoices(ctx, scope, &status, &pagination.PaginationParams{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, invoice.ID, page.Items[0].ID)

	page, err = env.invoices.ListInvoices(ctx, scope, nil, &pagination.PaginationParams{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.Total)

	other := testutil.CreateTenant(t, env.db, "other")
	_, err = env.invoices.GetInvoice(ctx, other.Scope, invoice.ID)
	assert.Equal(t, apperror.ReasonNotFound, apperror.ReasonOf(err))
}

func TestBillingSummaryAndAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	paid := env.invoice(t, "10.00")
	partial := env.invoice(t, "6.00")
	env.invoice(t, "4.00")

	_, err := env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: paid.ID, Amount: money.MustParse("10.00"), Method: enum.PaymentMethodCash})
	require.NoError(t, err)
	_, err = env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: partial.ID, Amount: money.MustParse("1.50"), Method: enum.PaymentMethodCard})
	require.NoError(t, err)

	summary, err := env.invoices.BillingSummary(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "20.00", summary.TotalInvoiced.String())
	assert.Equal(t, "11.50", summary.TotalPaid.String())
	assert.Equal(t, "8.50", summary.TotalPending.String())
	assert.Equal(t, int64(3), summary.InvoiceCount)
	assert.Equal(t, int64(1), summary.ByStatus[enum.InvoiceStatusPaid])

	from := time.Now().UTC().Add(-time.Hour)
	analytics, err := env.invoices.RevenueAnalytics(ctx, scope, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "11.50", analytics.Total.String())
	assert.Len(t, analytics.ByMethod, 2)

	_, err = env.invoices.RevenueAnalytics(ctx, scope, from, from)
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))
}
