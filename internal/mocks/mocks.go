package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, completedAt *time.Time) error {
	args := m.Called(ctx, id, status, completedAt)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLineItemRepository struct {
	mock.Mock
}

func (m *MockLineItemRepository) Create(ctx context.Context, item *models.LineItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockLineItemRepository) GetByID(ctx context.Context, id string) (*models.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.LineItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) Update(ctx context.Context, item *models.LineItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumByStatus(ctx context.Context, orderID string, status models.PaymentStatus) (int64, error) {
	args := m.Called(ctx, orderID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

type MockOrderCache struct {
	mock.Mock
}

func (m *MockOrderCache) Get(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderCache) Set(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderCache) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAuditPublisher struct {
	mock.Mock
}

func (m *MockAuditPublisher) OrderCreated(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockAuditPublisher) OrderCompleted(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockAuditPublisher) OrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	args := m.Called(ctx, order, reason)
	return args.Error(0)
}

func (m *MockAuditPublisher) OrderStalled(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockAuditPublisher) PaymentRecorded(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockAuditPublisher) PaymentApproved(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockAuditPublisher) PaymentRejected(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockAuditPublisher) LineItemFailed(ctx context.Context, item *models.LineItem, errMsg string) error {
	args := m.Called(ctx, item, errMsg)
	return args.Error(0)
}

// InMemoryLineItemRepository keeps line items in a map. Tests that care
// about the state a pipeline leaves behind use it instead of expectation
// mocks.
type InMemoryLineItemRepository struct {
	Items     map[string]*models.LineItem
	CreateErr error
	UpdateErr error
	UpdateLog []models.LineItemStatus
}

func NewInMemoryLineItemRepository() *InMemoryLineItemRepository {
	return &InMemoryLineItemRepository{Items: make(map[string]*models.LineItem)}
}

func (r *InMemoryLineItemRepository) Create(ctx context.Context, item *models.LineItem) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	cp := *item
	r.Items[item.ID] = &cp
	return nil
}

func (r *InMemoryLineItemRepository) GetByID(ctx context.Context, id string) (*models.LineItem, error) {
	item, ok := r.Items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("line item", id)
	}
	cp := *item
	return &cp, nil
}

func (r *InMemoryLineItemRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.LineItem, error) {
	var out []*models.LineItem
	for _, item := range r.Items {
		if item.OrderID == orderID {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *InMemoryLineItemRepository) Update(ctx context.Context, item *models.LineItem) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	cp := *item
	r.Items[item.ID] = &cp
	r.UpdateLog = append(r.UpdateLog, item.Status)
	return nil
}

// PassthroughTransactor runs the transactional function directly against
// the caller's context and hands out no-op locks. It stands in for the SQL
// transactor in service tests.
type PassthroughTransactor struct{}

func (t *PassthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (t *PassthroughTransactor) LockOrder(ctx context.Context, orderID string) (func(), error) {
	return func() {}, nil
}

// NoopAuditPublisher discards every event. Tests that do not assert on
// auditing use it to keep setup small.
type NoopAuditPublisher struct{}

func (p *NoopAuditPublisher) OrderCreated(ctx context.Context, order *models.Order) error {
	return nil
}

func (p *NoopAuditPublisher) OrderCompleted(ctx context.Context, order *models.Order) error {
	return nil
}

func (p *NoopAuditPublisher) OrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	return nil
}

func (p *NoopAuditPublisher) OrderStalled(ctx context.Context, order *models.Order) error {
	return nil
}

func (p *NoopAuditPublisher) PaymentRecorded(ctx context.Context, payment *models.Payment) error {
	return nil
}

func (p *NoopAuditPublisher) PaymentApproved(ctx context.Context, payment *models.Payment) error {
	return nil
}

func (p *NoopAuditPublisher) PaymentRejected(ctx context.Context, payment *models.Payment) error {
	return nil
}

func (p *NoopAuditPublisher) LineItemFailed(ctx context.Context, item *models.LineItem, errMsg string) error {
	return nil
}
