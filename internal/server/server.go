package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/handlers"
	"github.com/Synerlabs/cohorts-orders-service/internal/metrics"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	httpSrv  *http.Server
}

func New(h *handlers.Handlers, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(metrics.Middleware())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
	}

	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/version", s.handlers.Version)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/orders", s.handlers.CreateMembershipOrder)
		v1.GET("/orders", s.handlers.ListOrders)
		v1.GET("/orders/:id", s.handlers.GetOrder)
		v1.GET("/orders/:id/line-items", s.handlers.GetOrderLineItems)
		v1.POST("/orders/:id/cancel", s.handlers.CancelOrder)
		v1.POST("/orders/:id/finalize", s.handlers.FinalizeOrder)

		v1.POST("/orders/:id/payments", s.handlers.RecordPayment)
		v1.GET("/orders/:id/payments", s.handlers.ListOrderPayments)
		v1.GET("/payments/:id", s.handlers.GetPayment)
		v1.POST("/payments/:id/approve", s.handlers.ApprovePayment)
		v1.POST("/payments/:id/reject", s.handlers.RejectPayment)

		v1.POST("/webhooks/gateway", s.handlers.GatewayWebhook)
	}
}

// requestID tags every request with an ID, honoring one supplied by an
// upstream proxy.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) Start() error {
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
