package enum

import (
	"encoding/json"
	"fmt"
)

// OrderItemStatus tracks a line item through the kitchen.
type OrderItemStatus string

const (
	OrderItemStatusPending       OrderItemStatus = "PENDING"
	OrderItemStatusSentToKitchen OrderItemStatus = "SENT_TO_KITCHEN"
	OrderItemStatusPreparing     OrderItemStatus = "PREPARING"
	OrderItemStatusReady         OrderItemStatus = "READY"
	OrderItemStatusServed        OrderItemStatus = "SERVED"
	OrderItemStatusCancelled     OrderItemStatus = "CANCELLED"
)

var orderItemTransitions = map[OrderItemStatus][]OrderItemStatus{
	OrderItemStatusPending:       {OrderItemStatusSentToKitchen, OrderItemStatusPreparing, OrderItemStatusReady, OrderItemStatusServed, OrderItemStatusCancelled},
	OrderItemStatusSentToKitchen: {OrderItemStatusPreparing, OrderItemStatusReady, OrderItemStatusServed, OrderItemStatusCancelled},
	OrderItemStatusPreparing:     {OrderItemStatusReady, OrderItemStatusServed, OrderItemStatusCancelled},
	OrderItemStatusReady:         {OrderItemStatusServed, OrderItemStatusCancelled},
	OrderItemStatusServed:        nil,
	OrderItemStatusCancelled:     nil,
}

func (s OrderItemStatus) String() string { return string(s) }

func (s OrderItemStatus) Valid() bool {
	_, ok := orderItemTransitions[s]
	return ok
}

func (s OrderItemStatus) CanTransitionTo(next OrderItemStatus) bool {
	return contains(orderItemTransitions[s], next)
}

func (s *OrderItemStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v := OrderItemStatus(str)
	if !v.Valid() {
		return fmt.Errorf("invalid order item status %q", str)
	}
	*s = v
	return nil
}
