package service

import (
	"context"
	"time"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/clients"
	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/metrics"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/repository"
)

// FulfillmentOrchestrator is the entry point for creating an order together
// with its line items.
//
// The two inserts are not one transaction: when the line-item insert fails
// the freshly created order is deleted again as a compensating step. A
// crash between the insert and the compensation leaves an orphaned pending
// order with zero line items, which only manual cleanup removes.
type FulfillmentOrchestrator struct {
	catalog   clients.CatalogClient
	ledger    *OrderLedger
	orders    repository.OrderRepository
	lineItems repository.LineItemRepository
	audit     AuditPublisher
	config    *config.Config
	logger    *logging.Logger
}

// NewFulfillmentOrchestrator creates a new fulfillment orchestrator.
func NewFulfillmentOrchestrator(
	catalog clients.CatalogClient,
	ledger *OrderLedger,
	orders repository.OrderRepository,
	lineItems repository.LineItemRepository,
	audit AuditPublisher,
	cfg *config.Config,
) *FulfillmentOrchestrator {
	return &FulfillmentOrchestrator{
		catalog:   catalog,
		ledger:    ledger,
		orders:    orders,
		lineItems: lineItems,
		audit:     audit,
		config:    cfg,
		logger:    logging.NewLogger("fulfillment-orchestrator"),
	}
}

// CreateEntitlementOrder creates a membership order with a single
// entitlement line item, priced by the catalog.
func (o *FulfillmentOrchestrator) CreateEntitlementOrder(ctx context.Context, buyerID, productID, membershipRef, applicationRef string) (*models.Order, error) {
	if err := ValidateCreateEntitlementOrder(buyerID, productID, membershipRef, applicationRef); err != nil {
		return nil, err
	}

	o.logger.Info("Creating entitlement order", logging.Fields{
		"buyer_id":        buyerID,
		"product_id":      productID,
		"application_ref": applicationRef,
	})

	pricing, err := o.catalog.GetPricing(ctx, productID)
	if err != nil {
		o.logger.Error("Failed to fetch pricing", logging.Fields{
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, err
	}
	if pricing == nil {
		return nil, apperrors.NewNotFoundError("product", productID)
	}

	order, err := o.ledger.CreateOrder(ctx, buyerID, models.OrderTypeMembership, pricing.Price, pricing.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item := &models.LineItem{
		ID:        repository.NewLineItemID(),
		OrderID:   order.ID,
		Type:      models.LineItemTypeEntitlement,
		ProductID: productID,
		Amount:    pricing.Price,
		Currency:  pricing.Currency,
		Status:    models.LineItemStatusPending,
		Metadata: models.Metadata{
			models.MetadataKeyMembershipRef:  membershipRef,
			models.MetadataKeyApplicationRef: applicationRef,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.lineItems.Create(ctx, item); err != nil {
		// Compensating delete: without its line item the order is
		// unfulfillable and must not linger as payable.
		if delErr := o.orders.Delete(ctx, order.ID); delErr != nil {
			o.logger.Error("Compensating delete failed, order orphaned", logging.Fields{
				"order_id": order.ID,
				"error":    delErr.Error(),
			})
		} else {
			o.logger.Warn("Order rolled back after line item failure", logging.Fields{
				"order_id": order.ID,
			})
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	if o.config.Features.EnableAuditEvents {
		if err := o.audit.OrderCreated(ctx, order); err != nil {
			// Log but don't fail
			o.logger.Error("Failed to publish order created event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	o.logger.Info("Entitlement order created", logging.Fields{
		"order_id":     order.ID,
		"line_item_id": item.ID,
		"amount":       order.Amount,
	})
	return order, nil
}
