package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/service"
)

// EventType identifies an audit event.
type EventType string

const (
	EventTypeOrderCreated    EventType = "order.created"
	EventTypeOrderCompleted  EventType = "order.completed"
	EventTypeOrderCancelled  EventType = "order.cancelled"
	EventTypeOrderStalled    EventType = "order.stalled"
	EventTypePaymentRecorded EventType = "payment.recorded"
	EventTypePaymentApproved EventType = "payment.approved"
	EventTypePaymentRejected EventType = "payment.rejected"
	EventTypeLineItemFailed  EventType = "lineitem.failed"
)

// AuditEvent is the envelope written to the audit topic. The sink is
// fire-and-forget; no consumer response is modeled.
type AuditEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	OrderID   string          `json:"order_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Ensure KafkaAuditPublisher satisfies the ledgers' publisher contract.
var _ service.AuditPublisher = (*KafkaAuditPublisher)(nil)

// KafkaAuditPublisher publishes audit events to Kafka.
type KafkaAuditPublisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

// NewKafkaAuditPublisher creates a new Kafka-based audit publisher.
func NewKafkaAuditPublisher(cfg config.KafkaConfig, logger *logging.Logger) *KafkaAuditPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaAuditPublisher{
		writer: writer,
		logger: logger,
	}
}

// OrderCreated publishes an order created event.
func (p *KafkaAuditPublisher) OrderCreated(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderCreated, order)
}

// OrderCompleted publishes an order completed event.
func (p *KafkaAuditPublisher) OrderCompleted(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderCompleted, order)
}

// OrderCancelled publishes an order cancellation event.
func (p *KafkaAuditPublisher) OrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	payload := struct {
		Order  *models.Order `json:"order"`
		Reason string        `json:"reason"`
	}{order, reason}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(EventTypeOrderCancelled, order.ID, data))
}

// OrderStalled publishes an event for a finalize attempt that left the
// order in the processing partial-failure state.
func (p *KafkaAuditPublisher) OrderStalled(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderStalled, order)
}

// PaymentRecorded publishes a payment recorded event.
func (p *KafkaAuditPublisher) PaymentRecorded(ctx context.Context, payment *models.Payment) error {
	return p.publishPayment(ctx, EventTypePaymentRecorded, payment)
}

// PaymentApproved publishes a payment approved event.
func (p *KafkaAuditPublisher) PaymentApproved(ctx context.Context, payment *models.Payment) error {
	return p.publishPayment(ctx, EventTypePaymentApproved, payment)
}

// PaymentRejected publishes a payment rejected event.
func (p *KafkaAuditPublisher) PaymentRejected(ctx context.Context, payment *models.Payment) error {
	return p.publishPayment(ctx, EventTypePaymentRejected, payment)
}

// LineItemFailed publishes a line item failure event.
func (p *KafkaAuditPublisher) LineItemFailed(ctx context.Context, item *models.LineItem, errMsg string) error {
	payload := struct {
		LineItem *models.LineItem `json:"line_item"`
		Error    string           `json:"error"`
	}{item, errMsg}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(EventTypeLineItemFailed, item.OrderID, data))
}

// Close closes the Kafka writer.
func (p *KafkaAuditPublisher) Close() error {
	p.logger.Info("Closing audit publisher")
	return p.writer.Close()
}

func (p *KafkaAuditPublisher) publishOrder(ctx context.Context, eventType EventType, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(eventType, order.ID, data))
}

func (p *KafkaAuditPublisher) publishPayment(ctx context.Context, eventType EventType, payment *models.Payment) error {
	data, err := json.Marshal(payment)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.newEvent(eventType, payment.OrderID, data))
}

func (p *KafkaAuditPublisher) newEvent(eventType EventType, orderID string, data []byte) *AuditEvent {
	return &AuditEvent{
		ID:        "evt_" + uuid.NewString(),
		Type:      eventType,
		OrderID:   orderID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func (p *KafkaAuditPublisher) publish(ctx context.Context, event *AuditEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish audit event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Debug("Audit event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
	})
	return nil
}
