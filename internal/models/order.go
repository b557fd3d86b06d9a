package models

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderType identifies what kind of purchase an order represents.
type OrderType string

const (
	OrderTypeMembership OrderType = "membership"
)

// Order is a purchase intent, settled by one or more payments and fulfilled
// through its line items. Amounts are integer minor currency units.
type Order struct {
	ID          string      `json:"id"`
	BuyerID     string      `json:"buyer_id"`
	Type        OrderType   `json:"type"`
	Status      OrderStatus `json:"status"`
	Amount      int64       `json:"amount"`
	Currency    string      `json:"currency"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// CanCancel reports whether the order may still be cancelled manually.
// Only pending orders can be cancelled; everything else has already been
// paid against or is terminal.
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending
}

// IsTerminal reports whether the order has reached a final state.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidOrderStatusTransition reports whether an order may move between the
// two given states. Status is derived, never set directly by a user action,
// so this guards the ledger's own writes.
func ValidOrderStatusTransition(from, to OrderStatus) bool {
	validTransitions := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusFailed},
		OrderStatusCompleted:  {},
		OrderStatusFailed:     {},
		OrderStatusCancelled:  {},
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

// OrderListFilter describes criteria for listing orders.
type OrderListFilter struct {
	BuyerID string
	Status  *OrderStatus
	Limit   int
	Offset  int
}
