package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/repositories/mongodb"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/pkg"
)

// app holds the process-wide resources every command needs
type app struct {
	cfg         *config.Config
	slog        *slog.Logger
	logger      utils.Logger
	repoManager repositories.RepositoryManager
	redisClient *redis.Client
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := utils.NewJSONLogger(os.Stdout, cfg.LogLevel)
	a := &app{
		cfg:    cfg,
		slog:   slogLogger,
		logger: utils.NewSlogLogger(slogLogger),
	}

	repoManager, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := repoManager.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}
	a.repoManager = repoManager

	return a, nil
}

// openStore selects the persistence backend from STORE_BACKEND
func openStore(cfg *config.Config) (repositories.RepositoryManager, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		db, err := pkg.NewMongoDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return mongodb.NewRepositoryManager(db), nil
	default:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db}), nil
	}
}

// connectRedis is best effort: without Redis the cache is disabled and rate
// limiting stays in process
func (a *app) connectRedis() {
	if a.cfg.RedisURL == "" {
		return
	}
	client, err := pkg.NewRedisClient(a.cfg)
	if err != nil {
		a.logger.Warn("Redis unavailable, continuing without cache", "error", err)
		return
	}
	a.redisClient = client
}

func (a *app) close(ctx context.Context) {
	if a.repoManager != nil {
		if err := a.repoManager.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to close repositories", "error", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Failed to close redis", "error", err)
		}
	}
}
