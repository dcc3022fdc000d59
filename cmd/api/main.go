package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attaboy/faketoto/internal/app"
	"github.com/attaboy/faketoto/internal/auth"
	"github.com/attaboy/faketoto/internal/guard"
	"github.com/attaboy/faketoto/internal/handler"
	"github.com/attaboy/faketoto/internal/infra"
	"github.com/attaboy/faketoto/internal/metrics"
	"github.com/attaboy/faketoto/internal/notify"
	"github.com/attaboy/faketoto/internal/provider"
	"github.com/attaboy/faketoto/internal/session"
	"github.com/attaboy/faketoto/internal/sportsbook"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.close()

	catalog := sportsbook.DefaultCatalog()
	if cfg.CatalogPath != "" {
		if catalog, err = sportsbook.LoadCatalog(cfg.CatalogPath); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}
	logger.Info("match catalog loaded", "matches", catalog.Len())

	// Notification fan-out. With Kafka every instance relays the topic to its
	// own hub; without it results go to the hub directly.
	hub := infra.NewWSHub(logger, handler.AllowOrigin(cfg.CORSAllowedOrigins))
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	sink := notify.Multi(notify.NewLogSink(logger), notify.NewHubSink(hub))
	if cfg.KafkaEnabled {
		sink = notify.Multi(notify.NewLogSink(logger), notify.NewKafkaSink(producer, cfg.KafkaNotificationsTopic, logger))

		host, _ := os.Hostname()
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic, "faketoto-api-"+host, true, logger)
		defer consumer.Close()
		go func() {
			if err := consumer.Consume(ctx, notify.Relay(hub, logger)); err != nil {
				logger.Error("notification relay stopped", "error", err)
			}
		}()
	}

	collector := metrics.NewCollector()
	seeder := provider.NewRandomOrgClient(cfg.RandomOrgAPIKey, logger,
		provider.WithBreaker(guard.NewCircuitBreaker(3, time.Minute)))

	sessions := session.NewManager(session.Config{
		Catalog: catalog,
		Seeder:  seeder,
		Logger:  logger,
		Store:   st.store,
		Journal: st.journal,
		Outbox:  st.outbox,
		Rounds:  st.rounds,
		Sink:    sink,
		Metrics: collector,
	})
	go sessions.Run(ctx, cfg.TickInterval)
	defer sessions.Shutdown()

	router := app.NewRouter(app.RouterDeps{
		Sessions:     sessions,
		JWTMgr:       auth.NewJWTManager(cfg.JWTSecret, cfg.JWTSessionExpiry),
		Logger:       logger,
		Hub:          hub,
		Metrics:      collector,
		Limiter:      guard.NewRateLimiter(cfg.BetRateLimit, time.Minute),
		Idempotency:  st.idempotency,
		HealthChecks: st.health,
		CORSOrigins:  cfg.CORSAllowedOrigins,
	})

	// Start server. No write timeout: the notification stream is long-lived and
	// clears its own deadline.
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
