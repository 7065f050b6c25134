package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/ratelimit"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	courseHandler     *CourseHandler
	enrollmentHandler *EnrollmentHandler
	commentHandler    *CommentHandler
	adminHandler      *AdminHandler
	authMiddleware    *AuthMiddleware

	serviceManager services.ServiceManager
	limiter        ratelimit.Limiter
	logger         utils.Logger
}

// NewEngine returns a bare gin engine that only believes X-Forwarded-For from
// trustedProxies. With none, ClientIP is the connection's peer address, which
// keeps per-IP rate limiting out of the client's hands.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	return router, nil
}

// RouterConfig holds the HTTP-facing settings the handlers need
type RouterConfig struct {
	CookieSecure bool
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	tokens *auth.TokenManager,
	limiter ratelimit.Limiter,
	cfg RouterConfig,
	logger utils.Logger,
) *HandlerManager {
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.Config{})
	}

	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), cfg.CookieSecure, logger),
		courseHandler:     NewCourseHandler(serviceManager.Course(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), serviceManager.Progress(), logger),
		commentHandler:    NewCommentHandler(serviceManager.Comment(), logger),
		adminHandler:      NewAdminHandler(serviceManager.Admin(), logger),
		authMiddleware:    NewAuthMiddleware(tokens, logger),
		serviceManager:    serviceManager,
		limiter:           limiter,
		logger:            logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	requireAuth := hm.authMiddleware.RequireAuth()
	requireAdmin := hm.authMiddleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		// Auth routes - credential endpoints are rate limited per client IP
		authGroup := v1.Group("/auth")
		{
			limited := RateLimitMiddleware(hm.limiter, hm.logger)
			authGroup.POST("/register", limited, hm.authHandler.Register)
			authGroup.POST("/login", limited, hm.authHandler.Login)
			authGroup.POST("/logout", hm.authHandler.Logout)
			authGroup.GET("/me", requireAuth, hm.authHandler.Me)
			authGroup.PUT("/password", requireAuth, hm.authHandler.ChangePassword)
		}

		// Catalog - anonymous browsing allowed
		courses := v1.Group("/courses")
		{
			courses.GET("", hm.authMiddleware.OptionalAuth(), hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.authMiddleware.OptionalAuth(), hm.courseHandler.GetCourse)

			// Course management - Admins only
			courses.POST("", requireAuth, requireAdmin, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", requireAuth, requireAdmin, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", requireAuth, requireAdmin, hm.courseHandler.DeleteCourse)
			courses.POST("/:id/modules", requireAuth, requireAdmin, hm.courseHandler.CreateModule)

			// Enrollment and progress
			courses.POST("/:id/enroll", requireAuth, hm.enrollmentHandler.Enroll)
			courses.DELETE("/:id/enroll", requireAuth, hm.enrollmentHandler.Unenroll)
			courses.GET("/:id/progress", requireAuth, hm.enrollmentHandler.GetCourseProgress)
		}

		modules := v1.Group("/modules", requireAuth, requireAdmin)
		{
			modules.PUT("/:id", hm.courseHandler.UpdateModule)
			modules.DELETE("/:id", hm.courseHandler.DeleteModule)
			modules.POST("/:id/lessons", hm.courseHandler.CreateLesson)
		}

		lessons := v1.Group("/lessons", requireAuth)
		{
			lessons.GET("/:id", hm.courseHandler.GetLesson)
			lessons.PUT("/:id", requireAdmin, hm.courseHandler.UpdateLesson)
			lessons.DELETE("/:id", requireAdmin, hm.courseHandler.DeleteLesson)

			lessons.POST("/:id/complete", hm.enrollmentHandler.CompleteLesson)
			lessons.DELETE("/:id/complete", hm.enrollmentHandler.UncompleteLesson)

			lessons.GET("/:id/comments", hm.commentHandler.ListComments)
			lessons.POST("/:id/comments", hm.commentHandler.CreateComment)
		}

		v1.GET("/enrollments", requireAuth, hm.enrollmentHandler.ListMyEnrollments)

		comments := v1.Group("/comments", requireAuth)
		{
			comments.POST("/:id/reply", requireAdmin, hm.commentHandler.ReplyToComment)
			comments.DELETE("/:id", hm.commentHandler.DeleteComment)
		}

		admin := v1.Group("/admin", requireAuth, requireAdmin)
		{
			admin.GET("/users", hm.adminHandler.ListUsers)
			admin.GET("/stats", hm.adminHandler.GetStats)
			admin.GET("/courses/:id/report", hm.adminHandler.ExportCourseReport)
		}
	}

	router.GET("/health", hm.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "lms-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "lms-service",
	})
}
