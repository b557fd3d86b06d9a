package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/clients"
	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/mocks"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/service"
)

type handlerFixture struct {
	router   *gin.Engine
	catalog  *clients.MockCatalogClient
	orders   *mocks.MockOrderRepository
	payments *mocks.MockPaymentRepository
}

func newHandlerFixture() *handlerFixture {
	gin.SetMode(gin.TestMode)

	catalog := clients.NewMockCatalogClient()
	orders := new(mocks.MockOrderRepository)
	payments := new(mocks.MockPaymentRepository)
	lineItems := mocks.NewInMemoryLineItemRepository()
	cfg := &config.Config{}

	orderLedger := service.NewOrderLedger(
		orders,
		lineItems,
		payments,
		service.NewLineItemProcessor(),
		new(mocks.MockOrderCache),
		&mocks.PassthroughTransactor{},
		&mocks.NoopAuditPublisher{},
		cfg,
	)
	paymentLedger := service.NewPaymentLedger(payments, orders, orderLedger, &mocks.NoopAuditPublisher{}, cfg)
	orchestrator := service.NewFulfillmentOrchestrator(catalog, orderLedger, orders, lineItems, &mocks.NoopAuditPublisher{}, cfg)

	h := NewHandlers(orchestrator, orderLedger, paymentLedger, cfg)

	router := gin.New()
	router.POST("/api/v1/orders", h.CreateMembershipOrder)
	router.GET("/api/v1/orders/:id", h.GetOrder)
	router.POST("/api/v1/orders/:id/payments", h.RecordPayment)
	router.POST("/api/v1/payments/:id/reject", h.RejectPayment)

	return &handlerFixture{router: router, catalog: catalog, orders: orders, payments: payments}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "cohorts-orders-service", resp["service"])
}

func TestCreateMembershipOrder(t *testing.T) {
	f := newHandlerFixture()
	f.catalog.Pricings["prod_gold"] = &clients.Pricing{Price: 12000, Currency: "USD"}

	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := doJSON(t, f.router, http.MethodPost, "/api/v1/orders", CreateMembershipOrderRequest{
		BuyerID:        "buyer_1",
		ProductID:      "prod_gold",
		MembershipRef:  "mem_1",
		ApplicationRef: "app_1",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(12000), resp.Data.Amount)
	assert.Equal(t, models.OrderStatusPending, resp.Data.Status)
}

func TestCreateMembershipOrderValidationError(t *testing.T) {
	f := newHandlerFixture()

	w := doJSON(t, f.router, http.MethodPost, "/api/v1/orders", CreateMembershipOrderRequest{
		ProductID:      "prod_gold",
		MembershipRef:  "mem_1",
		ApplicationRef: "app_1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "buyer_id", resp["field"])
}

func TestCreateMembershipOrderUnknownProduct(t *testing.T) {
	f := newHandlerFixture()

	w := doJSON(t, f.router, http.MethodPost, "/api/v1/orders", CreateMembershipOrderRequest{
		BuyerID:        "buyer_1",
		ProductID:      "prod_missing",
		MembershipRef:  "mem_1",
		ApplicationRef: "app_1",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newHandlerFixture()

	f.orders.On("GetByID", mock.Anything, "ord_missing").Return(nil, apperrors.NewNotFoundError("order", "ord_missing"))

	w := doJSON(t, f.router, http.MethodGet, "/api/v1/orders/ord_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRejectPaymentWithoutNotes(t *testing.T) {
	f := newHandlerFixture()

	w := doJSON(t, f.router, http.MethodPost, "/api/v1/payments/pay_1/reject", PaymentReviewRequest{
		ApproverID: "staff_1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Notes are required", resp["error"])
	f.payments.AssertNotCalled(t, "Update")
}

func TestHandleErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"validation", apperrors.NewValidationError("amount", "amount must be positive"), http.StatusBadRequest},
		{"not found", apperrors.NewNotFoundError("order", "ord_1"), http.StatusNotFound},
		{"processing", apperrors.NewProcessingError("activate membership", errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleError(c, tt.err)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandleErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handleError(c, errors.New("pq: connection refused"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal error", resp["error"])
}
