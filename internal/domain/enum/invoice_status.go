package enum

import (
	"encoding/json"
	"fmt"
)

// InvoiceStatus represents the billing state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusViewed    InvoiceStatus = "VIEWED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Manual transitions. PAID is entered only by settling payments and is terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:     {InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusSent:      {InvoiceStatusViewed, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusViewed:    {InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue:   {InvoiceStatusViewed, InvoiceStatusCancelled},
	InvoiceStatusPaid:      nil,
	InvoiceStatusCancelled: nil,
}

func (s InvoiceStatus) String() string { return string(s) }

func (s InvoiceStatus) Valid() bool {
	_, ok := invoiceTransitions[s]
	return ok
}

func (s InvoiceStatus) IsTerminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// CanTransitionTo validates a manual status change.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return contains(invoiceTransitions[s], next)
}

// AcceptsPayments reports whether a payment may be applied in this state.
func (s InvoiceStatus) AcceptsPayments() bool {
	return s != InvoiceStatusPaid && s != InvoiceStatusCancelled
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v := InvoiceStatus(str)
	if !v.Valid() {
		return fmt.Errorf("invalid invoice status %q", str)
	}
	*s = v
	return nil
}
