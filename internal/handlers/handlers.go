package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/service"
)

// Handlers holds all HTTP handlers for the orders service.
type Handlers struct {
	orchestrator  *service.FulfillmentOrchestrator
	orderLedger   *service.OrderLedger
	paymentLedger *service.PaymentLedger
	config        *config.Config
	logger        *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	orchestrator *service.FulfillmentOrchestrator,
	orderLedger *service.OrderLedger,
	paymentLedger *service.PaymentLedger,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		orchestrator:  orchestrator,
		orderLedger:   orderLedger,
		paymentLedger: paymentLedger,
		config:        cfg,
		logger:        logging.NewLogger("handlers"),
	}
}

// respond wraps a successful payload in the result envelope.
func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// handleError maps the service error taxonomy onto HTTP statuses. Raw
// errors never cross into the presentation layer unwrapped.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   ve.Message,
			"field":   ve.Field,
		})
		return
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	var pe *apperrors.ProcessingError
	if errors.As(err, &pe) {
		// The failure has already been persisted on the affected entity;
		// the response and the durable record agree.
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   pe.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "internal error",
	})
}
