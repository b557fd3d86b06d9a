package service

import (
	"context"
	"time"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/metrics"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/repository"
)

// StatusRecomputer re-derives an order's status after a payment change.
// Satisfied by OrderLedger.
type StatusRecomputer interface {
	ComputeStatus(ctx context.Context, orderID string) (models.OrderStatus, error)
}

// PaymentLedger owns payments. It is the only writer of Payment.status and
// pushes an order-status recomputation after every status change. Payments
// are never deleted.
type PaymentLedger struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	ledger   StatusRecomputer
	audit    AuditPublisher
	config   *config.Config
	logger   *logging.Logger
}

// NewPaymentLedger creates a new payment ledger.
func NewPaymentLedger(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	ledger StatusRecomputer,
	audit AuditPublisher,
	cfg *config.Config,
) *PaymentLedger {
	return &PaymentLedger{
		payments: payments,
		orders:   orders,
		ledger:   ledger,
		audit:    audit,
		config:   cfg,
		logger:   logging.NewLogger("payment-ledger"),
	}
}

// RecordPayment records evidence of funds toward an order, pending review.
// Partial and retry payments are supported: an order may accumulate any
// number of payment records.
func (l *PaymentLedger) RecordPayment(ctx context.Context, orderID string, amount int64, currency string, paymentType models.PaymentType) (*models.Payment, error) {
	if err := ValidateRecordPayment(orderID, amount, currency, paymentType); err != nil {
		return nil, err
	}

	order, err := l.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, apperrors.NewValidationError("order_id", "cannot record payment against a cancelled order")
	}

	now := time.Now()
	payment := &models.Payment{
		ID:        repository.NewPaymentID(),
		OrderID:   orderID,
		Amount:    amount,
		Currency:  currency,
		Status:    models.PaymentStatusPending,
		Type:      paymentType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues(string(paymentType)).Inc()
	l.publish(ctx, func(ctx context.Context) error { return l.audit.PaymentRecorded(ctx, payment) }, payment.ID)

	// A new pending payment can move the order from pending to processing.
	l.recompute(ctx, orderID)

	return payment, nil
}

// ApprovePayment marks a pending payment as paid and pushes a status
// recomputation, which may finalize the order.
func (l *PaymentLedger) ApprovePayment(ctx context.Context, paymentID, approverID, notes string) (*models.Payment, error) {
	if approverID == "" {
		return nil, apperrors.NewValidationError("approver_id", "approver ID is required")
	}

	payment, err := l.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		return nil, apperrors.NewValidationError("status", "only pending payments can be approved")
	}

	now := time.Now()
	payment.Status = models.PaymentStatusPaid
	payment.ApprovedBy = approverID
	payment.ApprovedAt = &now
	payment.UpdatedAt = now
	if notes != "" {
		payment.Notes = notes
	}

	if err := l.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	metrics.PaymentsApproved.Inc()
	l.logger.Info("Payment approved", logging.Fields{
		"payment_id":  paymentID,
		"order_id":    payment.OrderID,
		"approved_by": approverID,
	})
	l.publish(ctx, func(ctx context.Context) error { return l.audit.PaymentApproved(ctx, payment) }, payment.ID)

	l.recompute(ctx, payment.OrderID)

	return payment, nil
}

// RejectPayment marks a pending payment as rejected. Notes are mandatory:
// the buyer must be able to see why their proof of payment was refused.
func (l *PaymentLedger) RejectPayment(ctx context.Context, paymentID, approverID, notes string) (*models.Payment, error) {
	if approverID == "" {
		return nil, apperrors.NewValidationError("approver_id", "approver ID is required")
	}
	if err := ValidateRejectionNotes(notes); err != nil {
		return nil, err
	}

	payment, err := l.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		return nil, apperrors.NewValidationError("status", "only pending payments can be rejected")
	}

	now := time.Now()
	payment.Status = models.PaymentStatusRejected
	payment.ApprovedBy = approverID
	payment.Notes = notes
	payment.UpdatedAt = now

	if err := l.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	metrics.PaymentsRejected.Inc()
	l.logger.Info("Payment rejected", logging.Fields{
		"payment_id": paymentID,
		"order_id":   payment.OrderID,
		"notes":      notes,
	})
	l.publish(ctx, func(ctx context.Context) error { return l.audit.PaymentRejected(ctx, payment) }, payment.ID)

	// A rejection can move the order back toward pending.
	l.recompute(ctx, payment.OrderID)

	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (l *PaymentLedger) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	return l.payments.GetByID(ctx, paymentID)
}

// ListPaymentsByOrder retrieves all payments recorded against an order.
func (l *PaymentLedger) ListPaymentsByOrder(ctx context.Context, orderID string) ([]*models.Payment, error) {
	if _, err := l.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return l.payments.GetByOrderID(ctx, orderID)
}

// recompute pushes the order-status derivation. The payment write has
// already been committed; a recompute failure is logged and surfaces later
// through the stalled-order path, it does not unwind the payment.
func (l *PaymentLedger) recompute(ctx context.Context, orderID string) {
	if _, err := l.ledger.ComputeStatus(ctx, orderID); err != nil {
		l.logger.Error("Failed to recompute order status", logging.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		})
	}
}

func (l *PaymentLedger) publish(ctx context.Context, fn func(ctx context.Context) error, paymentID string) {
	if !l.config.Features.EnableAuditEvents {
		return
	}
	if err := fn(ctx); err != nil {
		// Log but don't fail
		l.logger.Error("Failed to publish payment event", logging.Fields{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
	}
}
