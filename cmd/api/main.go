package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-checkout/config"
	"storefront-checkout/internal/adapter/forex"
	"storefront-checkout/internal/adapter/gateway"
	httpHandler "storefront-checkout/internal/adapter/http/handler"
	"storefront-checkout/internal/adapter/notify"
	pgStorage "storefront-checkout/internal/adapter/storage/postgres"
	redisStorage "storefront-checkout/internal/adapter/storage/redis"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/internal/service"
	"storefront-checkout/pkg/logger"
)

// notifier is a ports.Notifier that owns a connection.
type notifier interface {
	ports.Notifier
	Close() error
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("base_currency", cfg.Forex.BaseCurrency).
		Msg("Starting storefront checkout")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.AutoMigrate {
		if err := pgStorage.RunMigrations(cfg.Database.DSN(), log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories and stores
	orderRepo := pgStorage.NewOrderRepo(pool)
	rateRepo := pgStorage.NewRateRepo(pool)
	rateCache := redisStorage.NewRateCache(rdb)
	basketStore := redisStorage.NewBasketStore(rdb)
	eventDedup := redisStorage.NewEventDedup(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize external clients
	forexClient := forex.NewClient(cfg.Forex, &http.Client{Timeout: cfg.Forex.Timeout}, log)
	stripeClient := gateway.NewStripeClient(cfg.Gateway, &http.Client{Timeout: cfg.Gateway.Timeout}, log)

	var confirmations notifier
	if cfg.Kafka.Enabled() {
		producer, err := notify.NewKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Kafka")
		}
		confirmations = notify.NewKafkaNotifier(producer, cfg.Kafka.ConfirmationTopic, log)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka producer ready")
	} else {
		confirmations = notify.NewLogNotifier(log)
		log.Warn().Msg("No Kafka brokers configured, order confirmations are only logged")
	}

	// Initialize core services
	forexSvc := service.NewForexService(rateRepo, rateCache, forexClient, cfg.Forex.BaseCurrency, cfg.Forex.RequestInterval, log)
	converterSvc := service.NewConverterService(forexSvc)
	basketSvc := service.NewBasketService(basketStore, forexSvc, cfg.Basket.DefaultCurrency, cfg.Basket.InternalPrecision, cfg.Session.TTL, log)
	checkoutSvc := service.NewCheckoutService(basketSvc, orderRepo, stripeClient, cfg.Forex.BaseCurrency, log)
	orderSvc := service.NewOrderService(orderRepo, log)
	sigSvc := service.NewWebhookSignatureService(cfg.Gateway.WebhookSecret, cfg.Gateway.SignatureTolerance)
	if !sigSvc.Enabled() {
		log.Warn().Msg("No webhook secret configured, webhook signatures are not verified")
	}

	// Webhook queue and its single consumer
	queue := service.NewEventQueue(cfg.Webhook.QueueCapacity)
	paymentHandlers := service.NewPaymentEventHandlers(orderSvc, confirmations, log)
	consumer := service.NewWebhookConsumer(queue, paymentHandlers.Handlers(), eventDedup, cfg.Webhook.DedupTTL, cfg.Webhook.HandlerTimeout, log)
	consumer.Start(ctx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		BasketSvc:      basketSvc,
		CheckoutSvc:    checkoutSvc,
		OrderSvc:       orderSvc,
		RateSvc:        forexSvc,
		Converter:      converterSvc,
		Verifier:       sigSvc,
		Events:         queue,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		TrustedProxies: cfg.Server.TrustedProxies,
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting webhooks before draining the queue.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := consumer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Int("pending", queue.Len()).Msg("Webhook consumer did not drain in time")
	}
	stop()

	if err := confirmations.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close notifier")
	}

	log.Info().Msg("Server exited")
}
