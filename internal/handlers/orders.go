package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// CreateMembershipOrderRequest is the body for POST /api/v1/orders.
type CreateMembershipOrderRequest struct {
	BuyerID        string `json:"buyer_id"`
	ProductID      string `json:"product_id"`
	MembershipRef  string `json:"membership_ref"`
	ApplicationRef string `json:"application_ref"`
}

// CreateMembershipOrder handles POST /api/v1/orders
func (h *Handlers) CreateMembershipOrder(c *gin.Context) {
	var req CreateMembershipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind request", logging.Fields{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	order, err := h.orchestrator.CreateEntitlementOrder(
		c.Request.Context(),
		req.BuyerID,
		req.ProductID,
		req.MembershipRef,
		req.ApplicationRef,
	)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orderLedger.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, order)
}

// GetOrderLineItems handles GET /api/v1/orders/:id/line-items
func (h *Handlers) GetOrderLineItems(c *gin.Context) {
	items, err := h.orderLedger.GetLineItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, items)
}

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	filter := &models.OrderListFilter{
		BuyerID: c.Query("buyer_id"),
	}

	if status := c.Query("status"); status != "" {
		s := models.OrderStatus(status)
		filter.Status = &s
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	orders, total, err := h.orderLedger.ListOrders(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	order, err := h.orderLedger.CancelOrder(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, order)
}

// FinalizeOrder handles POST /api/v1/orders/:id/finalize
//
// Re-triggers the finalize branch for an order stalled in processing after
// a partial line-item failure. Safe to call repeatedly.
func (h *Handlers) FinalizeOrder(c *gin.Context) {
	status, err := h.orderLedger.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"order_id": c.Param("id"),
		"status":   status,
	})
}
