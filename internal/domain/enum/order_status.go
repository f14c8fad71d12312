package enum

import (
	"encoding/json"
	"fmt"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {OrderStatusCancelled},
	OrderStatusCancelled:  nil,
}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsOpen reports whether items may still be added or removed.
func (s OrderStatus) IsOpen() bool {
	return s == OrderStatusPending || s == OrderStatusInProgress
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return contains(orderTransitions[s], next)
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v := OrderStatus(str)
	if !v.Valid() {
		return fmt.Errorf("invalid order status %q", str)
	}
	*s = v
	return nil
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
