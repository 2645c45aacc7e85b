package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/techshop/checkout/internal/checkout/adapters"
	httpadapter "github.com/techshop/checkout/internal/checkout/adapters/http"
	checkoutpostgres "github.com/techshop/checkout/internal/checkout/adapters/postgres"
	redisadapter "github.com/techshop/checkout/internal/checkout/adapters/redis"
	"github.com/techshop/checkout/internal/checkout/app"
	"github.com/techshop/checkout/internal/checkout/domain"
	checkoutmetrics "github.com/techshop/checkout/internal/checkout/metrics"
	"github.com/techshop/checkout/internal/checkout/ports"
	"github.com/techshop/checkout/internal/config"
	"github.com/techshop/checkout/internal/database"
	idempostgres "github.com/techshop/checkout/internal/idempotency/postgres"
	"github.com/techshop/checkout/internal/kafka"
	"github.com/techshop/checkout/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed successfully")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
		}
	}()

	meter := otel.Meter("github.com/techshop/checkout")

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create kafka metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}
	appMetrics, err := checkoutmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}

	var eventBus ports.EventBus
	if len(cfg.Kafka.Brokers) > 0 {
		writer := kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publisher := kafka.NewPublisher(writer)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka writer close failed", "error", err)
			}
		}()
		eventBus = publisher
		logger.Info("kafka event bus enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		eventBus = kafka.NewNoopEventBus()
		logger.Info("kafka brokers not configured, events will be logged only")
	}
	eventBus = adapters.NewObservableEventBus(eventBus, kafkaMetrics)

	shipping, err := shippingPolicy(cfg.Checkout)
	if err != nil {
		logger.Error("invalid shipping configuration", "error", err)
		os.Exit(1)
	}
	cancellation := cancellationPolicy(cfg.Checkout)

	orderStore := adapters.NewObservableStore(checkoutpostgres.NewStore(pool), dbMetrics)
	catalog := checkoutpostgres.NewCatalog(pool)
	coupons := checkoutpostgres.NewCouponRepository(pool)
	carts := redisadapter.NewCartStore(redisClient)
	idemStore := idempostgres.NewStore(pool)
	identity := adapters.NewContextIdentity()

	service := app.NewService(
		orderStore,
		carts,
		catalog,
		coupons,
		identity,
		eventBus,
		idemStore,
		shipping,
		cancellation,
		logger,
		appMetrics,
	)
	checkoutHandler := httpadapter.NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	checkoutHandler.Register(mux)

	handler := withRecovery(withLogging(httpadapter.WithMetrics(mux, httpMetrics)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func shippingPolicy(cfg config.CheckoutConfig) (domain.ShippingPolicy, error) {
	threshold, err := decimal.NewFromString(cfg.ShippingFreeThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse SHIPPING_FREE_THRESHOLD: %w", err)
	}
	fee, err := decimal.NewFromString(cfg.ShippingFlatFee)
	if err != nil {
		return nil, fmt.Errorf("parse SHIPPING_FLAT_FEE: %w", err)
	}
	return domain.ThresholdShippingPolicy{FreeThreshold: threshold, FlatFee: fee}, nil
}

func cancellationPolicy(cfg config.CheckoutConfig) domain.CancellationPolicy {
	statuses := make([]domain.OrderStatus, 0, len(cfg.CancellableStatuses))
	for _, id := range cfg.CancellableStatuses {
		statuses = append(statuses, domain.OrderStatus(id))
	}
	return domain.CancellationPolicy{AllowedStatuses: statuses}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Info("http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
