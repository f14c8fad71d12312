package enum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusInProgress))
	assert.True(t, OrderStatusInProgress.CanTransitionTo(OrderStatusCompleted))
	assert.True(t, OrderStatusCompleted.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatusCompleted.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatusInProgress.CanTransitionTo(OrderStatusPending))
	assert.True(t, OrderStatusPending.IsOpen())
	assert.False(t, OrderStatusCompleted.IsOpen())
}

func TestInvoiceStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to InvoiceStatus
		ok       bool
	}{
		{InvoiceStatusDraft, InvoiceStatusSent, true},
		{InvoiceStatusSent, InvoiceStatusViewed, true},
		{InvoiceStatusOverdue, InvoiceStatusViewed, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, false},
		{InvoiceStatusPaid, InvoiceStatusDraft, false},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusCancelled, InvoiceStatusDraft, false},
		{InvoiceStatusViewed, InvoiceStatusSent, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to))
		})
	}
	assert.True(t, InvoiceStatusPaid.IsTerminal())
	assert.False(t, InvoiceStatusCancelled.AcceptsPayments())
	assert.True(t, InvoiceStatusOverdue.AcceptsPayments())
}

func TestOrderItemStatusTransitions(t *testing.T) {
	assert.True(t, OrderItemStatusPending.CanTransitionTo(OrderItemStatusReady))
	assert.False(t, OrderItemStatusServed.CanTransitionTo(OrderItemStatusCancelled))
	assert.False(t, OrderItemStatusReady.CanTransitionTo(OrderItemStatusPreparing))
}

func TestMovementType(t *testing.T) {
	assert.True(t, MovementWastage.Decrements())
	assert.True(t, MovementConsumption.Decrements())
	assert.False(t, MovementPurchase.Decrements())
	assert.False(t, MovementType("GIFT").Valid())
}

func TestUnmarshalRejectsUnknownValues(t *testing.T) {
	var body struct {
		Method PaymentMethod `json:"method"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"method":"UPI"}`), &body))
	assert.Equal(t, PaymentMethodUPI, body.Method)
	assert.Error(t, json.Unmarshal([]byte(`{"method":"BITCOIN"}`), &body))

	var status InvoiceStatus
	assert.Error(t, json.Unmarshal([]byte(`"ARCHIVED"`), &status))
	var orderStatus OrderStatus
	assert.Error(t, json.Unmarshal([]byte(`"DONE"`), &orderStatus))
}
