package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/service"
)

// GatewayEventType identifies a card-gateway settlement event.
type GatewayEventType string

const (
	GatewayEventConfirmed GatewayEventType = "gateway.payment.confirmed"
	GatewayEventRejected  GatewayEventType = "gateway.payment.rejected"
)

// GatewayEvent is a settlement notification from the card gateway. How the
// card network settled funds is out of scope; only the resulting
// paid/rejected trigger is consumed here.
type GatewayEvent struct {
	ID        string           `json:"id"`
	Type      GatewayEventType `json:"type"`
	OrderID   string           `json:"order_id"`
	PaymentID string           `json:"payment_id,omitempty"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// GatewayConsumer consumes gateway settlement events and applies them to
// the payment ledger, which pushes order status recomputation.
type GatewayConsumer struct {
	reader   *kafka.Reader
	payments *service.PaymentLedger
	logger   *logging.Logger
	stopCh   chan struct{}
}

// NewGatewayConsumer creates a new gateway settlement consumer.
func NewGatewayConsumer(cfg config.KafkaConfig, payments *service.PaymentLedger, logger *logging.Logger) *GatewayConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.GatewayTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &GatewayConsumer{
		reader:   reader,
		payments: payments,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start consumes events until Stop is called or the context ends.
func (c *GatewayConsumer) Start(ctx context.Context) error {
	c.logger.Info("Gateway consumer started")

	for {
		select {
		case <-c.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Failed to read gateway message", logging.Fields{"error": err.Error()})
			continue
		}

		var event GatewayEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to decode gateway event", logging.Fields{
				"offset": msg.Offset,
				"error":  err.Error(),
			})
			continue
		}

		if err := c.Handle(ctx, &event); err != nil {
			// The payment ledger has already persisted whatever state it
			// reached; the event is not retried here.
			c.logger.Error("Failed to apply gateway event", logging.Fields{
				"event_id": event.ID,
				"order_id": event.OrderID,
				"error":    err.Error(),
			})
		}
	}
}

// Handle applies one gateway settlement event. A confirmation without a
// known payment first records a gateway payment, then approves it.
func (c *GatewayConsumer) Handle(ctx context.Context, event *GatewayEvent) error {
	c.logger.Info("Handling gateway event", logging.Fields{
		"event_id": event.ID,
		"type":     event.Type,
		"order_id": event.OrderID,
	})

	paymentID := event.PaymentID
	if paymentID == "" {
		payment, err := c.payments.RecordPayment(ctx, event.OrderID, event.Amount, event.Currency, models.PaymentTypeGateway)
		if err != nil {
			return err
		}
		paymentID = payment.ID
	}

	switch event.Type {
	case GatewayEventConfirmed:
		_, err := c.payments.ApprovePayment(ctx, paymentID, gatewayApprover, "Gateway confirmation "+event.ID)
		return err
	case GatewayEventRejected:
		notes := event.Reason
		if notes == "" {
			notes = "Rejected by gateway, event " + event.ID
		}
		_, err := c.payments.RejectPayment(ctx, paymentID, gatewayApprover, notes)
		return err
	default:
		c.logger.Warn("Ignoring unknown gateway event type", logging.Fields{
			"event_id": event.ID,
			"type":     event.Type,
		})
		return nil
	}
}

// Stop terminates the consume loop and closes the reader.
func (c *GatewayConsumer) Stop() {
	close(c.stopCh)
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close gateway reader", logging.Fields{"error": err.Error()})
	}
}

// gatewayApprover is the synthetic approver identity recorded on
// gateway-settled payments.
const gatewayApprover = "gateway"
