package service

import (
	"context"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// LineItemHandler finalizes a single line item of one type. Process returns
// the line item in its post-processing state; on failure the handler has
// already persisted the failed state before returning the error.
type LineItemHandler interface {
	Process(ctx context.Context, item *models.LineItem) (*models.LineItem, error)
}

// LineItemProcessor dispatches line items to per-type handlers. New item
// types register a handler without touching the dispatcher.
type LineItemProcessor struct {
	handlers map[models.LineItemType]LineItemHandler
	logger   *logging.Logger
}

// NewLineItemProcessor creates an empty processor registry.
func NewLineItemProcessor() *LineItemProcessor {
	return &LineItemProcessor{
		handlers: make(map[models.LineItemType]LineItemHandler),
		logger:   logging.NewLogger("lineitem-processor"),
	}
}

// Register wires a handler for a line item type, replacing any previous one.
func (p *LineItemProcessor) Register(itemType models.LineItemType, handler LineItemHandler) {
	p.handlers[itemType] = handler
}

// Process dispatches a line item to its handler by type.
func (p *LineItemProcessor) Process(ctx context.Context, item *models.LineItem) (*models.LineItem, error) {
	handler, ok := p.handlers[item.Type]
	if !ok {
		p.logger.Error("No handler registered", logging.Fields{
			"line_item_id": item.ID,
			"type":         item.Type,
		})
		return nil, apperrors.NewValidationError("type", "Unknown line item type")
	}

	p.logger.Debug("Dispatching line item", logging.Fields{
		"line_item_id": item.ID,
		"type":         item.Type,
	})
	return handler.Process(ctx, item)
}
