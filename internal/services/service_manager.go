package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ServiceManagerConfig holds the shared dependencies of every service
type ServiceManagerConfig struct {
	Repo      repositories.Repository
	Tokens    *auth.TokenManager
	Cache     *cache.CacheManager
	Publisher events.EventPublisher
	Logger    *slog.Logger
	Validator *validator.Validator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	config ServiceManagerConfig
	logger *slog.Logger

	// Service instances
	authService       AuthService
	courseService     CourseService
	enrollmentService EnrollmentService
	progressService   ProgressService
	commentService    CommentService
	adminService      AdminService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(config ServiceManagerConfig) ServiceManager {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Validator == nil {
		config.Validator = validator.New()
	}
	if config.Cache == nil {
		config.Cache = cache.NewCacheManager(nil)
	}
	return &serviceManager{
		config: config,
		logger: config.Logger,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.config.Repo == nil {
		return errors.New("service manager requires a repository")
	}
	if sm.config.Tokens == nil {
		return errors.New("service manager requires a token manager")
	}

	sm.logger.Info("Initializing service manager")

	c := sm.config
	sm.authService = NewAuthService(c.Repo, c.Tokens, c.Logger, c.Validator)
	sm.courseService = NewCourseService(c.Repo, c.Cache, c.Logger, c.Validator)
	sm.enrollmentService = NewEnrollmentService(c.Repo, c.Cache, c.Publisher, c.Logger, c.Validator)
	sm.progressService = NewProgressService(c.Repo, c.Cache, c.Publisher, c.Logger)
	sm.commentService = NewCommentService(c.Repo, c.Publisher, c.Logger, c.Validator)
	sm.adminService = NewAdminService(c.Repo, c.Cache, c.Logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) Course() CourseService {
	sm.mustBeInitialized()
	return sm.courseService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mustBeInitialized()
	return sm.enrollmentService
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mustBeInitialized()
	return sm.progressService
}

func (sm *serviceManager) Comment() CommentService {
	sm.mustBeInitialized()
	return sm.commentService
}

func (sm *serviceManager) Admin() AdminService {
	sm.mustBeInitialized()
	return sm.adminService
}

func (sm *serviceManager) mustBeInitialized() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// HealthCheck pings the store. A missing or failing cache only degrades performance and is logged.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	if err := sm.config.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if err := sm.config.Cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		sm.logger.WarnContext(ctx, "Cache unhealthy", "error", err)
	}
	return nil
}

// Shutdown closes the event publisher. The repository is owned by the caller.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true

	sm.logger.InfoContext(ctx, "Shutting down service manager")
	if sm.config.Publisher != nil {
		if err := sm.config.Publisher.Close(); err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
	}
	return nil
}
