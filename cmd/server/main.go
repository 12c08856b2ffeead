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

	"couture-commerce/config"
	"couture-commerce/internal/api"
	"couture-commerce/internal/broker"
	"couture-commerce/internal/gateway"
	"couture-commerce/internal/ratelimit"
	"couture-commerce/internal/redisclient"
	"couture-commerce/internal/service"
	"couture-commerce/internal/store"
	"couture-commerce/internal/util"
	"couture-commerce/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting couture commerce service")

	tp, err := util.InitTracer("couture-commerce", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	orderProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer orderProducer.Close()
	alertProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlert)
	defer alertProducer.Close()

	eventPublisher := broker.NewEventPublisher(orderProducer, alertProducer)
	alerter := service.NewAlerter(eventPublisher)

	gatewayClient := gateway.NewClient(cfg.Razorpay)

	orderService := service.NewOrderService(db, eventPublisher, alerter)
	paymentService := service.NewPaymentService(db, gatewayClient, redisClient,
		eventPublisher, alerter, cfg.Razorpay.Currency)
	reconcileService := service.NewReconcileService(db, gatewayClient,
		eventPublisher, alerter, cfg.Reconcile.Lookback)

	limiter := ratelimit.NewLimiter(redisClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	mailer := worker.NewMailer(cfg.Mail)
	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notifier := worker.NewNotifier(notifyConsumer, mailer, db, alerter)
	go func() {
		if err := notifier.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Notification worker error", zap.Error(err))
		}
	}()

	// internal sweep schedule; the HTTP trigger shares the same service
	go func() {
		ticker := time.NewTicker(cfg.Reconcile.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if _, err := reconcileService.Run(workerCtx); err != nil {
					logger.Error("Scheduled reconcile sweep failed", zap.Error(err))
				}
			}
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, paymentService, reconcileService,
		limiter, cfg.Auth.Secret, cfg.Reconcile.Secret)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	notifier.Stop()

	logger.Info("Server exited")
}
