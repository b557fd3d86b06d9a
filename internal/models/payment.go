package models

import "time"

// PaymentStatus represents the state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// PaymentType distinguishes how evidence of payment arrived.
type PaymentType string

const (
	// PaymentTypeManual is a proof-of-payment upload reviewed by an admin.
	PaymentTypeManual PaymentType = "manual"
	// PaymentTypeGateway is a card-gateway confirmed payment.
	PaymentTypeGateway PaymentType = "gateway"
)

// Payment is evidence of funds applied toward an order. An order may have
// zero, one, or many payments; payments are never deleted, only
// status-transitioned.
type Payment struct {
	ID         string        `json:"id"`
	OrderID    string        `json:"order_id"`
	Amount     int64         `json:"amount"`
	Currency   string        `json:"currency"`
	Status     PaymentStatus `json:"status"`
	Type       PaymentType   `json:"type"`
	Notes      string        `json:"notes,omitempty"`
	ApprovedBy string        `json:"approved_by,omitempty"`
	ApprovedAt *time.Time    `json:"approved_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// IsPending reports whether the payment is still awaiting review.
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}
