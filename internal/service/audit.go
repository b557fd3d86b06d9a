package service

import (
	"context"

	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// AuditPublisher is the audit/log sink consumed by the ledgers. Publishing
// is fire-and-forget: callers log publish errors but never fail the
// operation that produced the event.
type AuditPublisher interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderCompleted(ctx context.Context, order *models.Order) error
	OrderCancelled(ctx context.Context, order *models.Order, reason string) error
	OrderStalled(ctx context.Context, order *models.Order) error
	PaymentRecorded(ctx context.Context, payment *models.Payment) error
	PaymentApproved(ctx context.Context, payment *models.Payment) error
	PaymentRejected(ctx context.Context, payment *models.Payment) error
	LineItemFailed(ctx context.Context, item *models.LineItem, errMsg string) error
}
