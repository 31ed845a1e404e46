package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/billing"
	"github.com/shehrozeikram/ERP-sub003/internal/config"
	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/handler"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/cache"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/observability"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/resilience"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/tajapi"
	"github.com/shehrozeikram/ERP-sub003/internal/service"
	"github.com/shehrozeikram/ERP-sub003/internal/statement"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const serviceName = "taj-billing"

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, serviceName)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	loc, _ := cfg.Location()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("taj_api_url", cfg.TajAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Float64("late_surcharge_rate", cfg.LateSurchargeRate),
		zap.Int("grace_period_days", cfg.GracePeriodDays),
		zap.String("billing_timezone", loc.String()),
		zap.Bool("auth_enabled", cfg.JWTSecret != ""),
	)

	// --- Tracing ---
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, serviceName)
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	} else {
		logger.Info("tracing export disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	invoiceCache := cache.New[*domain.Invoice](cfg.CacheTTL)
	defer invoiceCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Backend client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	taj := tajapi.NewClient(httpClient, cfg.TajAPIURL, cfg.TajAPIToken, tajapi.NewBreaker(), resilienceCfg)

	// --- Billing ---
	calc := billing.NewCalculator(billing.Options{
		SurchargeRate: decimal.NewNullDecimal(decimal.NewFromFloat(cfg.LateSurchargeRate)),
		GraceDays:     cfg.GracePeriodDays,
		Location:      loc,
	})
	builder := statement.NewBuilder(statement.Config{
		BankAccountNo: cfg.BankAccountNo,
		Calculator:    calc,
	})

	// --- Services ---
	invoiceSvc := service.NewInvoiceService(
		taj,
		taj,
		invoiceCache,
		calc,
		builder,
		metrics,
		logger,
		service.WithBatchConcurrency(cfg.MaxConcurrency),
	)

	// --- Router ---
	router := handler.NewRouter(invoiceSvc, taj, metrics, cfg.JWTSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
