package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// RecordPaymentRequest is the body for POST /api/v1/orders/:id/payments.
type RecordPaymentRequest struct {
	Amount   int64              `json:"amount"`
	Currency string             `json:"currency"`
	Type     models.PaymentType `json:"type"`
}

// RecordPayment handles POST /api/v1/orders/:id/payments
func (h *Handlers) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind payment request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	if req.Type == "" {
		req.Type = models.PaymentTypeManual
	}

	payment, err := h.paymentLedger.RecordPayment(
		c.Request.Context(),
		c.Param("id"),
		req.Amount,
		req.Currency,
		req.Type,
	)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusCreated, payment)
}

// ListOrderPayments handles GET /api/v1/orders/:id/payments
func (h *Handlers) ListOrderPayments(c *gin.Context) {
	payments, err := h.paymentLedger.ListPaymentsByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, payments)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *Handlers) GetPayment(c *gin.Context) {
	payment, err := h.paymentLedger.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, payment)
}

// PaymentReviewRequest is the body for payment approval and rejection.
type PaymentReviewRequest struct {
	ApproverID string `json:"approver_id"`
	Notes      string `json:"notes"`
}

// ApprovePayment handles POST /api/v1/payments/:id/approve
func (h *Handlers) ApprovePayment(c *gin.Context) {
	var req PaymentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	payment, err := h.paymentLedger.ApprovePayment(c.Request.Context(), c.Param("id"), req.ApproverID, req.Notes)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, payment)
}

// RejectPayment handles POST /api/v1/payments/:id/reject
func (h *Handlers) RejectPayment(c *gin.Context) {
	var req PaymentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	payment, err := h.paymentLedger.RejectPayment(c.Request.Context(), c.Param("id"), req.ApproverID, req.Notes)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, payment)
}

// GatewayWebhook handles POST /api/v1/webhooks/gateway
//
// HTTP fallback for environments where the gateway cannot publish to Kafka
// directly; the payload is the same settlement event the consumer reads.
func (h *Handlers) GatewayWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read request body"})
		return
	}

	var event struct {
		ID        string `json:"id"`
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid webhook payload"})
		return
	}

	paymentID := event.PaymentID
	if paymentID == "" {
		payment, err := h.paymentLedger.RecordPayment(c.Request.Context(), event.OrderID, event.Amount, event.Currency, models.PaymentTypeGateway)
		if err != nil {
			handleError(c, err)
			return
		}
		paymentID = payment.ID
	}

	if _, err := h.paymentLedger.ApprovePayment(c.Request.Context(), paymentID, "gateway", "Gateway confirmation "+event.ID); err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"status": "received"})
}
