package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Synerlabs/cohorts-orders-service/internal/clients"
	"github.com/Synerlabs/cohorts-orders-service/internal/config"
	"github.com/Synerlabs/cohorts-orders-service/internal/events"
	"github.com/Synerlabs/cohorts-orders-service/internal/handlers"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
	"github.com/Synerlabs/cohorts-orders-service/internal/repository"
	"github.com/Synerlabs/cohorts-orders-service/internal/server"
	"github.com/Synerlabs/cohorts-orders-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger("orders-service")

	db, err := initDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	orderRepo := repository.NewPostgresOrderRepository(db, logger)
	lineItemRepo := repository.NewPostgresLineItemRepository(db, logger)
	paymentRepo := repository.NewPostgresPaymentRepository(db, logger)
	transactor := repository.NewSQLTransactor(db)
	orderCache := repository.NewRedisOrderCache(cfg.Redis)

	catalogClient := clients.NewHTTPCatalogClient(cfg.CatalogService, logger)
	applicantClient := clients.NewHTTPApplicantClient(cfg.ApplicantService, logger)
	membershipClient := clients.NewHTTPMembershipClient(cfg.MembershipService, logger)

	auditPublisher := events.NewKafkaAuditPublisher(cfg.Kafka, logger)
	defer auditPublisher.Close()

	processor := service.NewLineItemProcessor()
	processor.Register(
		models.LineItemTypeEntitlement,
		service.NewEntitlementHandler(lineItemRepo, applicantClient, membershipClient, transactor),
	)

	orderLedger := service.NewOrderLedger(
		orderRepo,
		lineItemRepo,
		paymentRepo,
		processor,
		orderCache,
		transactor,
		auditPublisher,
		cfg,
	)

	paymentLedger := service.NewPaymentLedger(
		paymentRepo,
		orderRepo,
		orderLedger,
		auditPublisher,
		cfg,
	)

	orchestrator := service.NewFulfillmentOrchestrator(
		catalogClient,
		orderLedger,
		orderRepo,
		lineItemRepo,
		auditPublisher,
		cfg,
	)

	h := handlers.NewHandlers(orchestrator, orderLedger, paymentLedger, cfg)

	srv := server.New(h, cfg)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                    cfg.Server.Port,
			"enable_order_caching":    cfg.Features.EnableOrderCaching,
			"enable_audit_events":     cfg.Features.EnableAuditEvents,
			"enable_gateway_consumer": cfg.Features.EnableGatewayConsumer,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var gatewayConsumer *events.GatewayConsumer
	if cfg.Features.EnableGatewayConsumer {
		gatewayConsumer = events.NewGatewayConsumer(cfg.Kafka, paymentLedger, logger)
		go func() {
			if err := gatewayConsumer.Start(context.Background()); err != nil {
				logger.Error("Gateway consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if gatewayConsumer != nil {
		gatewayConsumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config, logger *logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}
