package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/mocks"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/service"
)

// staticRecomputer satisfies the recompute hook without an order ledger.
type staticRecomputer struct{}

func (staticRecomputer) ComputeStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	return models.OrderStatusProcessing, nil
}

func newConsumerFixture() (*GatewayConsumer, *mocks.MockPaymentRepository, *mocks.MockOrderRepository) {
	payments := new(mocks.MockPaymentRepository)
	orders := new(mocks.MockOrderRepository)

	ledger := service.NewPaymentLedger(payments, orders, staticRecomputer{}, &mocks.NoopAuditPublisher{}, &config.Config{})

	consumer := &GatewayConsumer{
		payments: ledger,
		logger:   logging.NewLogger("gateway-consumer-test"),
		stopCh:   make(chan struct{}),
	}
	return consumer, payments, orders
}

func pendingGatewayPayment() *models.Payment {
	now := time.Now()
	return &models.Payment{
		ID:        "pay_1",
		OrderID:   "ord_1",
		Amount:    5000,
		Currency:  "USD",
		Status:    models.PaymentStatusPending,
		Type:      models.PaymentTypeGateway,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHandleConfirmedEvent(t *testing.T) {
	consumer, payments, _ := newConsumerFixture()

	payments.On("GetByID", mock.Anything, "pay_1").Return(pendingGatewayPayment(), nil)
	payments.On("Update", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.Status == models.PaymentStatusPaid && p.ApprovedBy == "gateway"
	})).Return(nil)

	err := consumer.Handle(context.Background(), &GatewayEvent{
		ID:        "evt_1",
		Type:      GatewayEventConfirmed,
		OrderID:   "ord_1",
		PaymentID: "pay_1",
	})
	require.NoError(t, err)
	payments.AssertExpectations(t)
}

func TestHandleConfirmedEventRecordsMissingPayment(t *testing.T) {
	consumer, payments, orders := newConsumerFixture()

	orders.On("GetByID", mock.Anything, "ord_1").Return(&models.Order{
		ID:     "ord_1",
		Status: models.OrderStatusPending,
		Amount: 5000,
	}, nil)

	var recordedID string
	payments.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.Type == models.PaymentTypeGateway && p.Status == models.PaymentStatusPending
	})).Run(func(args mock.Arguments) {
		recordedID = args.Get(1).(*models.Payment).ID
	}).Return(nil)
	payments.On("GetByID", mock.Anything, mock.MatchedBy(func(id string) bool {
		return id == recordedID
	})).Return(pendingGatewayPayment(), nil)
	payments.On("Update", mock.Anything, mock.Anything).Return(nil)

	err := consumer.Handle(context.Background(), &GatewayEvent{
		ID:       "evt_2",
		Type:     GatewayEventConfirmed,
		OrderID:  "ord_1",
		Amount:   5000,
		Currency: "USD",
	})
	require.NoError(t, err)
	payments.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleRejectedEventFallbackNotes(t *testing.T) {
	consumer, payments, _ := newConsumerFixture()

	payments.On("GetByID", mock.Anything, "pay_1").Return(pendingGatewayPayment(), nil)
	payments.On("Update", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.Status == models.PaymentStatusRejected && p.Notes == "Rejected by gateway, event evt_3"
	})).Return(nil)

	err := consumer.Handle(context.Background(), &GatewayEvent{
		ID:        "evt_3",
		Type:      GatewayEventRejected,
		OrderID:   "ord_1",
		PaymentID: "pay_1",
	})
	require.NoError(t, err)
	payments.AssertExpectations(t)
}

func TestHandleUnknownEventType(t *testing.T) {
	consumer, payments, _ := newConsumerFixture()

	err := consumer.Handle(context.Background(), &GatewayEvent{
		ID:        "evt_4",
		Type:      "gateway.payment.refunded",
		OrderID:   "ord_1",
		PaymentID: "pay_1",
	})
	assert.NoError(t, err)
	payments.AssertNotCalled(t, "GetByID")
}
