package repository

import (
	"context"
	"time"

	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// OrderRepository persists orders. The order ledger is the only component
// allowed to write Order.status through UpdateStatus.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, completedAt *time.Time) error

	// Delete removes the order row entirely. It exists solely for the
	// orchestrator's compensating delete; settled orders are never removed.
	Delete(ctx context.Context, id string) error
}

// LineItemRepository persists line items. Only the line-item processor
// mutates line-item status.
type LineItemRepository interface {
	Create(ctx context.Context, item *models.LineItem) error
	GetByID(ctx context.Context, id string) (*models.LineItem, error)
	GetByOrderID(ctx context.Context, orderID string) ([]*models.LineItem, error)
	Update(ctx context.Context, item *models.LineItem) error
}

// PaymentRepository persists payments. Payments are never deleted.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) ([]*models.Payment, error)
	SumByStatus(ctx context.Context, orderID string, status models.PaymentStatus) (int64, error)
	Update(ctx context.Context, payment *models.Payment) error
}

// Transactor scopes a unit of work. WithinTransaction makes the repository
// writes issued through fn's context atomic; LockOrder serializes competing
// finalize attempts for one order.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	LockOrder(ctx context.Context, orderID string) (unlock func(), err error)
}

// OrderCache defines caching operations for orders.
type OrderCache interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error
}
