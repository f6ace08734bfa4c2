package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamesup-server/config"
	"gamesup-server/internal/api"
	"gamesup-server/internal/broker"
	"gamesup-server/internal/payment"
	"gamesup-server/internal/redisclient"
	"gamesup-server/internal/service"
	"gamesup-server/internal/shipping"
	"gamesup-server/internal/store"
	"gamesup-server/internal/util"
	"gamesup-server/internal/worker"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting gamesup server")

	tp, err := util.InitTracer("gamesup-server", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	if err := store.Migrate(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied")

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	gateway := payment.NewGateway(cfg.Payment)
	carrier := shipping.NewClient(cfg.Shipping)
	if gateway.Mocked() {
		logger.Warn("Payment gateway running in mock mode")
	}
	if carrier.Mocked() {
		logger.Warn("Shipping carrier running in mock mode")
	}

	orderService := service.NewOrderService(db, eventPublisher)
	paymentService := service.NewPaymentService(db, redisClient, gateway, eventPublisher)
	catalogService := service.NewCatalogService(db)
	accountService := service.NewAccountService(db, cfg)
	settingsService := service.NewSettingsService(db, redisClient)

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		log.Fatalf("Failed to create uploads dir: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	group, workerCtx := errgroup.WithContext(workerCtx)

	shipmentConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	shipmentWorker := worker.NewShipmentWorker(shipmentConsumer, db, carrier, eventPublisher)
	group.Go(func() error {
		if err := shipmentWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			return fmt.Errorf("shipment worker: %w", err)
		}
		return nil
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, paymentService, catalogService, accountService, settingsService, carrier, cfg.Uploads)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	shipmentWorker.Stop()
	if err := group.Wait(); err != nil {
		log.Printf("Worker error: %v", err)
	}

	log.Println("Server exited")
}
