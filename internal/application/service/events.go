package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/enum"
	"github.com/sangkips/tablepos-api/internal/infrastructure/messaging"
	"github.com/sangkips/tablepos-api/pkg/money"
)

// Event types
const (
	EventOrderCreated     = "order.created"
	EventOrderUpdated     = "order.updated"
	EventOrderVoided      = "order.voided"
	EventPaymentCompleted = "payment.completed"
	EventInvoicePaid      = "invoice.paid"
)

// OrderEvent is published on the order topic, keyed by tenant
type OrderEvent struct {
	EventID    string           `json:"eventId"`
	Type       string           `json:"type"`
	TenantID   uuid.UUID        `json:"tenantId"`
	OrderID    uuid.UUID        `json:"orderId"`
	BranchID   uuid.UUID        `json:"branchId"`
	Status     enum.OrderStatus `json:"status"`
	Total      money.Money      `json:"total"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// BillingEvent is published on the billing topic, keyed by tenant
type BillingEvent struct {
	EventID       string             `json:"eventId"`
	Type          string             `json:"type"`
	TenantID      uuid.UUID          `json:"tenantId"`
	InvoiceID     uuid.UUID          `json:"invoiceId"`
	InvoiceNumber string             `json:"invoiceNumber"`
	PaymentID     *uuid.UUID         `json:"paymentId,omitempty"`
	Amount        money.Money        `json:"amount"`
	Method        enum.PaymentMethod `json:"method,omitempty"`
	Status        enum.InvoiceStatus `json:"status"`
	OccurredAt    time.Time          `json:"occurredAt"`
}

func orderMessage(topic, eventType string, order *entity.Order, at time.Time) messaging.Message {
	event := OrderEvent{
		EventID:    newEventID(),
		Type:       eventType,
		TenantID:   order.TenantID,
		OrderID:    order.ID,
		BranchID:   order.BranchID,
		Status:     order.Status,
		Total:      order.Total,
		OccurredAt: at,
	}
	return messaging.Message{
		Topic: topic,
		Key:   order.TenantID.String(),
		Type:  eventType,
		ID:    event.EventID,
		Value: event,
	}
}

func billingMessage(topic string, event BillingEvent) messaging.Message {
	event.EventID = newEventID()
	return messaging.Message{
		Topic: topic,
		Key:   event.TenantID.String(),
		Type:  event.Type,
		ID:    event.EventID,
		Value: event,
	}
}
