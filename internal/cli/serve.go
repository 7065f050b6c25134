package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/handlers"
	"github.com/SAP-F-2025/lms-service/internal/ratelimit"
	"github.com/SAP-F-2025/lms-service/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	a.connectRedis()

	tokens, err := auth.NewTokenManager(a.cfg.JWT.Secret, a.cfg.JWT.Expiry, auth.WithIssuer(a.cfg.JWT.Issuer))
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}

	publisher, audit, err := a.newEventPublisher()
	if err != nil {
		return err
	}
	if audit != nil {
		go func() {
			if err := audit.Run(ctx); err != nil {
				a.logger.Error("Audit subscriber stopped", "error", err)
			}
		}()
		select {
		case <-audit.Running():
		case <-time.After(5 * time.Second):
			a.logger.Warn("Audit subscriber did not start in time")
		}
	}

	serviceManager := services.NewServiceManager(services.ServiceManagerConfig{
		Repo:      a.repoManager.GetRepository(),
		Tokens:    tokens,
		Cache:     cache.NewCacheManager(a.redisClient),
		Publisher: publisher,
		Logger:    a.slog,
	})
	if err := serviceManager.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := handlers.NewEngine(a.cfg.TrustedProxies)
	if err != nil {
		return err
	}
	handlers.SetupMiddleware(router, a.logger, a.cfg.CORSAllowedOrigins)
	handlers.NewHandlerManager(serviceManager, tokens, a.newLimiter(), handlers.RouterConfig{
		CookieSecure: a.cfg.CookieSecure,
	}, a.logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server",
			"port", a.cfg.Port,
			"environment", a.cfg.Environment,
			"store", a.cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server forced to shutdown", "error", err)
	}
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Failed to shutdown services", "error", err)
	}
	if audit != nil {
		if err := audit.Close(); err != nil {
			a.logger.Error("Failed to close audit subscriber", "error", err)
		}
	}

	a.logger.Info("Server exited")
	return nil
}

// newEventPublisher publishes to Kafka when brokers are configured. Otherwise
// events go over an in-process channel consumed by the audit logger.
func (a *app) newEventPublisher() (events.EventPublisher, *events.AuditSubscriber, error) {
	if len(a.cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(a.cfg.KafkaBrokers, a.slog)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("Publishing events to Kafka", "brokers", a.cfg.KafkaBrokers)
		return events.NewWatermillPublisher(kafkaPublisher, a.slog), nil, nil
	}

	pubSub := events.NewGoChannel(a.slog)
	audit, err := events.NewAuditSubscriber(pubSub, a.slog, nil)
	if err != nil {
		return nil, nil, err
	}
	return events.NewWatermillPublisher(pubSub, a.slog), audit, nil
}

func (a *app) newLimiter() ratelimit.Limiter {
	cfg := ratelimit.Config{
		Limit:   a.cfg.RateLimit.Requests,
		Window:  a.cfg.RateLimit.Window,
		MaxKeys: a.cfg.RateLimit.MaxKeys,
	}
	if a.redisClient != nil {
		return ratelimit.NewRedisLimiter(a.redisClient, "lms:ratelimit:", cfg, a.logger)
	}
	return ratelimit.NewMemoryLimiter(cfg)
}
