package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/testutil"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/money"
)

func TestOrderToPaidInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	tenantID := env.tenant.Tenant.ID

	p1 := testutil.CreateProduct(t, env.db, tenantID, "P1", "5.00", false)
	p2 := testutil.CreateProduct(t, env.db, tenantID, "P2", "3.50", false)
	order, err := env.orders.CreateOrder(ctx, scope, &CreateOrderInput{
		BranchID: env.tenant.Branch.ID,
		Items: []OrderItemInput{
			{ProductID: p1.ID, Qty: 2},
			{ProductID: p2.ID, Qty: 1},
		},
		Tax: money.MustParse("0.85"),
	})
	require.NoError(t, err)
	require.Equal(t, "14.35", order.Total.String())

	invoice, err := env.invoices.CreateInvoice(ctx, scope, &CreateInvoiceInput{OrderID: order.ID, Amount: order.Total})
	require.NoError(t, err)
	assert.Regexp(t, `^INV-\d{8}-00001$`, invoice.InvoiceNumber)

	result, err := env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{
		InvoiceID: invoice.ID,
		Amount:    money.MustParse("14.35"),
		Method:    enum.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(t, enum.InvoiceStatusPaid, result.Invoice.Status)
	assert.NotNil(t, result.Invoice.PaidAt)
	assert.True(t, result.Invoice.AmountDue.IsZero())

	_, err = env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{
		InvoiceID: invoice.ID,
		Amount:    money.MustParse("0.01"),
		Method:    enum.PaymentMethodCash,
	})
	assert.True(t, errors.Is(err, apperror.ErrAlreadyPaid))
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &entity.Payment{}, ""))

	types := env.publisher.Types()
	assert.Equal(t, []string{EventOrderCreated, EventPaymentCompleted, EventInvoicePaid}, types)
	assert.Equal(t, "pos.billing", env.publisher.Messages[1].Topic)
}

func TestPartialPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	invoice := env.invoice(t, "10.00")

	pay := func(amount string) (*PaymentResult, error) {
		return env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{
			InvoiceID: invoice.ID,
			Amount:    money.MustParse(amount),
			Method:    enum.PaymentMethodCard,
		})
	}

	result, err := pay("4.00")
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusViewed, result.Invoice.Status)
	assert.Equal(t, "6.00", result.Invoice.AmountDue.String())
	assert.Len(t, result.Invoice.Payments, 1)

	_, err = pay("6.01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrOverPayment))
	assert.Contains(t, err.Error(), "6.00")
	assert.Equal(t, int64(1), testutil.Count(t, env.db, &entity.Payment{}, ""))

	result, err = pay("6.00")
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, result.Invoice.Status)
	assert.Equal(t, "100", result.Invoice.PercentagePaid.String())
	require.Len(t, result.Invoice.Payments, 2, "the invoice carries every payment, not only the latest")
	var sum money.Money
	for _, p := range result.Invoice.Payments {
		sum = sum.Add(p.Amount)
	}
	assert.Equal(t, "10.00", sum.String())

	payments, err := env.payments.ListPayments(ctx, scope, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestOverdueInvoiceKeepsStatusOnPartialPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	invoice := env.invoice(t, "10.00")

	_, err := env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, enum.InvoiceStatusOverdue)
	require.NoError(t, err)

	result, err := env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: invoice.ID, Amount: money.MustParse("1.00"), Method: enum.PaymentMethodUPI})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusOverdue, result.Invoice.Status)
}

func TestProcessPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	invoice := env.invoice(t, "10.00")

	_, err := env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: invoice.ID, Amount: 0, Method: enum.PaymentMethodCash})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	_, err = env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: invoice.ID, Amount: money.MustParse("1.00"), Method: "BARTER"})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	other := testutil.CreateTenant(t, env.db, "other")
	_, err = env.payments.ProcessPayment(ctx, other.Scope, &ProcessPaymentInput{InvoiceID: invoice.ID, Amount: money.MustParse("1.00"), Method: enum.PaymentMethodCash})
	assert.Equal(t, apperror.ReasonNotFound, apperror.ReasonOf(err))

	_, err = env.invoices.UpdateInvoiceStatus(ctx, scope, invoice.ID, enum.InvoiceStatusCancelled)
	require.NoError(t, err)
	_, err = env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{InvoiceID: invoice.ID, Amount: money.MustParse("1.00"), Method: enum.PaymentMethodCash})
	assert.Equal(t, apperror.ReasonValidation, apperror.ReasonOf(err))

	assert.Zero(t, testutil.Count(t, env.db, &entity.Payment{}, ""))
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.tenant.Scope
	invoice := env.invoice(t, "10.00")

	// each is remainingDue/2 + 0.01, together they overshoot
	amount := money.MustParse("5.01")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.payments.ProcessPayment(ctx, scope, &ProcessPaymentInput{
				InvoiceID: invoice.ID,
				Amount:    amount,
				Method:    enum.PaymentMethodCash,
			})
		}(i)
	}
	wg.Wait()

	var ok, over int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrOverPayment):
			over++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, over)

	view, err := env.invoices.GetInvoice(ctx, scope, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.01", view.TotalPaid.String())
	assert.LessOrEqual(t, view.TotalPaid.Cents(), view.Amount.Cents())
}

func TestPaymentSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.invoice(t, "3.00")
	env.publisher.Err = errors.New("broker unavailable")

	result, err := env.payments.ProcessPayment(context.Background(), env.tenant.Scope, &ProcessPaymentInput{
		InvoiceID: invoice.ID,
		Amount:    money.MustParse("3.00"),
		Method:    enum.PaymentMethodWallet,
	})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, result.Invoice.Status)
}
