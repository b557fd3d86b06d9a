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

// OrderLedger owns orders. It is the only writer of Order.status, which is
// always derived from the order's payments and line items, never set by a
// user action.
type OrderLedger struct {
	orders    repository.OrderRepository
	lineItems repository.LineItemRepository
	payments  repository.PaymentRepository
	processor *LineItemProcessor
	cache     repository.OrderCache
	tx        repository.Transactor
	audit     AuditPublisher
	config    *config.Config
	logger    *logging.Logger
}

// NewOrderLedger creates a new order ledger.
func NewOrderLedger(
	orders repository.OrderRepository,
	lineItems repository.LineItemRepository,
	payments repository.PaymentRepository,
	processor *LineItemProcessor,
	cache repository.OrderCache,
	tx repository.Transactor,
	audit AuditPublisher,
	cfg *config.Config,
) *OrderLedger {
	return &OrderLedger{
		orders:    orders,
		lineItems: lineItems,
		payments:  payments,
		processor: processor,
		cache:     cache,
		tx:        tx,
		audit:     audit,
		config:    cfg,
		logger:    logging.NewLogger("order-ledger"),
	}
}

// CreateOrder inserts a new pending order.
func (l *OrderLedger) CreateOrder(ctx context.Context, buyerID string, orderType models.OrderType, amount int64, currency string) (*models.Order, error) {
	if buyerID == "" {
		return nil, apperrors.NewValidationError("buyer_id", "buyer ID is required")
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := ValidateCurrency(currency); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:        repository.NewOrderID(),
		BuyerID:   buyerID,
		Type:      orderType,
		Status:    models.OrderStatusPending,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: time.Now(),
	}

	if err := l.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	l.logger.Info("Order created", logging.Fields{
		"order_id": order.ID,
		"buyer_id": buyerID,
		"amount":   amount,
		"currency": currency,
	})
	return order, nil
}

// GetOrder retrieves an order by ID, cache-assisted.
func (l *OrderLedger) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if l.config.Features.EnableOrderCaching {
		if order, err := l.cache.Get(ctx, id); err == nil && order != nil {
			return order, nil
		}
	}

	order, err := l.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.config.Features.EnableOrderCaching {
		if err := l.cache.Set(ctx, order); err != nil {
			// Log but don't fail
			l.logger.Error("Failed to cache order", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
	return order, nil
}

// ListOrders retrieves orders based on filter criteria.
func (l *OrderLedger) ListOrders(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return l.orders.List(ctx, filter)
}

// GetLineItems retrieves the line items owned by an order.
func (l *OrderLedger) GetLineItems(ctx context.Context, orderID string) ([]*models.LineItem, error) {
	return l.lineItems.GetByOrderID(ctx, orderID)
}

// ComputeStatus re-derives an order's status from the aggregate of its
// payments and, when fully paid, the completion state of its line items.
// It is invoked by the payment ledger after every payment-status change.
//
// The result depends only on the multiset of (status, amount) pairs across
// the order's payments, never on their insertion order.
func (l *OrderLedger) ComputeStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	order, err := l.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	if order.IsTerminal() {
		return order.Status, nil
	}

	totalPaid, err := l.payments.SumByStatus(ctx, orderID, models.PaymentStatusPaid)
	if err != nil {
		return "", err
	}
	totalPending, err := l.payments.SumByStatus(ctx, orderID, models.PaymentStatusPending)
	if err != nil {
		return "", err
	}

	l.logger.Debug("Recomputing order status", logging.Fields{
		"order_id":      orderID,
		"amount":        order.Amount,
		"total_paid":    totalPaid,
		"total_pending": totalPending,
	})

	var status models.OrderStatus
	switch {
	case totalPaid >= order.Amount:
		return l.finalize(ctx, order)
	case totalPending > 0:
		status = models.OrderStatusProcessing
	default:
		status = models.OrderStatusPending
	}

	if status != order.Status {
		if err := l.setStatus(ctx, order, status, nil); err != nil {
			return "", err
		}
	}
	return status, nil
}

// Finalize re-runs the finalize branch for an order stalled in the
// processing partial-failure state. There is no automatic retry; this is
// the operator's explicit re-trigger.
func (l *OrderLedger) Finalize(ctx context.Context, orderID string) (models.OrderStatus, error) {
	order, err := l.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.IsTerminal() {
		return order.Status, nil
	}

	totalPaid, err := l.payments.SumByStatus(ctx, orderID, models.PaymentStatusPaid)
	if err != nil {
		return "", err
	}
	if totalPaid < order.Amount {
		return "", apperrors.NewValidationError("order_id", "order is not fully paid")
	}
	return l.finalize(ctx, order)
}

// finalize processes every non-terminal line item and settles the order.
// Processing is continue-on-error: one item's failure does not stop the
// others. A per-order advisory lock serializes concurrent finalize
// attempts, which otherwise race between reading payments and processing.
func (l *OrderLedger) finalize(ctx context.Context, order *models.Order) (models.OrderStatus, error) {
	unlock, err := l.tx.LockOrder(ctx, order.ID)
	if err != nil {
		return "", err
	}
	defer unlock()

	// Re-read under the lock: a concurrent finalize may have settled the
	// order while this call was waiting.
	order, err = l.orders.GetByID(ctx, order.ID)
	if err != nil {
		return "", err
	}
	if order.IsTerminal() {
		return order.Status, nil
	}

	items, err := l.lineItems.GetByOrderID(ctx, order.ID)
	if err != nil {
		return "", err
	}

	allCompleted := true
	for _, item := range items {
		if item.IsTerminal() {
			if item.Status != models.LineItemStatusCompleted {
				allCompleted = false
			}
			continue
		}

		processed, err := l.processor.Process(ctx, item)
		if err != nil {
			allCompleted = false
			l.logger.Error("Line item processing failed", logging.Fields{
				"order_id":     order.ID,
				"line_item_id": item.ID,
				"error":        err.Error(),
			})
			if l.config.Features.EnableAuditEvents {
				if pubErr := l.audit.LineItemFailed(ctx, item, err.Error()); pubErr != nil {
					l.logger.Error("Failed to publish line item event", logging.Fields{
						"line_item_id": item.ID,
						"error":        pubErr.Error(),
					})
				}
			}
			continue
		}
		if processed.Status != models.LineItemStatusCompleted {
			allCompleted = false
		}
	}

	if allCompleted {
		now := time.Now()
		if err := l.setStatus(ctx, order, models.OrderStatusCompleted, &now); err != nil {
			return "", err
		}
		metrics.OrdersCompleted.Inc()
		if l.config.Features.EnableAuditEvents {
			if err := l.audit.OrderCompleted(ctx, order); err != nil {
				l.logger.Error("Failed to publish order completed event", logging.Fields{
					"order_id": order.ID,
					"error":    err.Error(),
				})
			}
		}
		l.logger.Info("Order completed", logging.Fields{"order_id": order.ID})
		return models.OrderStatusCompleted, nil
	}

	// Partial failure: the order stalls in processing until a new payment
	// or an explicit Finalize re-triggers this branch.
	if err := l.setStatus(ctx, order, models.OrderStatusProcessing, nil); err != nil {
		return "", err
	}
	metrics.OrdersStalled.Inc()
	if l.config.Features.EnableAuditEvents {
		if err := l.audit.OrderStalled(ctx, order); err != nil {
			l.logger.Error("Failed to publish order stalled event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
	l.logger.Warn("Order stalled with failed line items", logging.Fields{"order_id": order.ID})
	return models.OrderStatusProcessing, nil
}

// CancelOrder manually cancels a pending order and its open line items.
func (l *OrderLedger) CancelOrder(ctx context.Context, orderID, reason string) (*models.Order, error) {
	if err := ValidateCancellationReason(reason); err != nil {
		return nil, err
	}

	order, err := l.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanCancel() {
		return nil, apperrors.NewValidationError("status", "order cannot be cancelled in current state")
	}

	items, err := l.lineItems.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, item := range items {
		if item.IsTerminal() {
			continue
		}
		item.Status = models.LineItemStatusCancelled
		item.CancelledAt = &now
		item.UpdatedAt = now
		if err := l.lineItems.Update(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := l.setStatus(ctx, order, models.OrderStatusCancelled, nil); err != nil {
		return nil, err
	}

	if l.config.Features.EnableAuditEvents {
		if err := l.audit.OrderCancelled(ctx, order, reason); err != nil {
			l.logger.Error("Failed to publish order cancelled event", logging.Fields{
				"order_id": orderID,
				"error":    err.Error(),
			})
		}
	}

	l.logger.Info("Order cancelled", logging.Fields{
		"order_id": orderID,
		"reason":   reason,
	})
	return order, nil
}

// setStatus is the single write path for Order.status.
func (l *OrderLedger) setStatus(ctx context.Context, order *models.Order, status models.OrderStatus, completedAt *time.Time) error {
	if err := l.orders.UpdateStatus(ctx, order.ID, status, completedAt); err != nil {
		return err
	}
	order.Status = status
	if completedAt != nil {
		order.CompletedAt = completedAt
	}

	if l.config.Features.EnableOrderCaching {
		if err := l.cache.Delete(ctx, order.ID); err != nil {
			// Log but don't fail
			l.logger.Error("Failed to invalidate order cache", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
	return nil
}
