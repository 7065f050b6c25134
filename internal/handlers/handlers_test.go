package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/ratelimit"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/testutil"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type testServer struct {
	router     *gin.Engine
	adminToken string
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()
	return newTestServerBehindProxies(t, limit, nil)
}

func newTestServerBehindProxies(t *testing.T, limit int, trustedProxies []string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := utils.NewNopLogger()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	sm := services.NewServiceManager(services.ServiceManagerConfig{
		Repo:      testutil.NewRepository(t),
		Tokens:    tokens,
		Publisher: events.NewMockEventPublisher(logger.Slog()),
		Logger:    logger.Slog(),
	})
	require.NoError(t, sm.Initialize(context.Background()))

	admin, _, err := sm.Auth().EnsureAdmin(context.Background(), "Admin", "admin@example.com", "adminpass1")
	require.NoError(t, err)
	adminToken, _, err := tokens.Issue(admin)
	require.NoError(t, err)

	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{Limit: limit, Window: time.Minute})

	router, err := NewEngine(trustedProxies)
	require.NoError(t, err)
	SetupMiddleware(router, logger, nil)
	NewHandlerManager(sm, tokens, limiter, RouterConfig{}, logger).SetupRoutes(router)

	return &testServer{router: router, adminToken: adminToken}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": name, "email": email, "password": "secret123"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.AuthResponse](t, w).Token
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Ada", "email": "ada@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[services.AuthResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleStudent, resp.User.Role)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Ada", "email": "ADA@example.com", "password": "secret123"}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation errors list fields", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Bob", "email": "not-an-email", "password": "secret123"}, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[ErrorResponse](t, w)
		require.NotEmpty(t, body.ValidationErrors)
		assert.Equal(t, "email", body.ValidationErrors[0].Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login sets cookie", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "ada@example.com", "password": "secret123"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, tokenCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.AddCookie(cookies[0])
		me := httptest.NewRecorder()
		s.router.ServeHTTP(me, req)
		require.Equal(t, http.StatusOK, me.Code)
		assert.Equal(t, "ada@example.com", decode[models.User](t, me).Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "ada@example.com", "password": "nope12345"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me requires a valid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/auth/me", nil, "").Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/auth/me", nil, "garbage").Code)
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/auth/me", nil, resp.Token).Code)
	})

	t.Run("logout expires cookie", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/auth/logout", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("change password", func(t *testing.T) {
		w := s.do(http.MethodPut, "/api/v1/auth/password", gin.H{"current_password": "secret123", "new_password": "better456"}, resp.Token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "ada@example.com", "password": "better456"}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	body := gin.H{"email": "nobody@example.com", "password": "secret123"}

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := s.do(http.MethodPost, "/api/v1/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	// Other routes are not limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/courses", nil, "").Code)
}

func (s *testServer) loginFrom(forwardedFor string) int {
	data, _ := json.Marshal(gin.H{"email": "nobody@example.com", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	s := newTestServer(t, 2)

	var codes []int
	for i := 0; i < 4; i++ {
		codes = append(codes, s.loginFrom(fmt.Sprintf("203.0.113.%d", i+1)))
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

func TestRateLimit_UsesForwardedForFromTrustedProxy(t *testing.T) {
	// httptest requests come from 192.0.2.1
	s := newTestServerBehindProxies(t, 1, []string{"192.0.2.0/24"})

	assert.Equal(t, http.StatusUnauthorized, s.loginFrom("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, s.loginFrom("203.0.113.1"))
	assert.Equal(t, http.StatusUnauthorized, s.loginFrom("203.0.113.2"))
}

func TestNewEngine_RejectsInvalidProxy(t *testing.T) {
	_, err := NewEngine([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestCourseLearningFlow(t *testing.T) {
	s := newTestServer(t, 100)
	student := s.register(t, "Ada", "ada@example.com")
	other := s.register(t, "Grace", "grace@example.com")

	// Students cannot author courses
	w := s.do(http.MethodPost, "/api/v1/courses", gin.H{"title": "Nope"}, student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/courses", gin.H{"title": "Go Basics", "description": "Learn Go"}, s.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[models.Course](t, w)
	assert.Equal(t, "go-basics", course.Slug)

	// Drafts are invisible outside admin views
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/courses/"+course.ID, nil, "").Code)
	w = s.do(http.MethodPut, "/api/v1/courses/"+course.ID, gin.H{"published": true}, s.adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/courses/"+course.ID+"/modules", gin.H{"title": "Start"}, s.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	module := decode[models.Module](t, w)

	w = s.do(http.MethodPost, "/api/v1/modules/"+module.ID+"/lessons", gin.H{
		"title":     "Hello",
		"content":   "fmt.Println",
		"resources": []gin.H{{"title": "Tour", "url": "https://go.dev/tour"}},
	}, s.adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lesson := decode[models.Lesson](t, w)

	w = s.do(http.MethodPut, "/api/v1/courses/"+course.ID, gin.H{"published": true}, s.adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Anonymous catalog
	w = s.do(http.MethodGet, "/api/v1/courses?q=basics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[services.CourseListResponse](t, w)
	assert.Equal(t, int64(1), list.Total)

	w = s.do(http.MethodGet, "/api/v1/courses/go-basics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[models.Course](t, w)
	require.Len(t, detail.Modules, 1)
	assert.Equal(t, lesson.ID, detail.Modules[0].Lessons[0].ID)

	// Lesson content needs enrollment
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/lessons/"+lesson.ID, nil, student).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/lessons/"+lesson.ID+"/complete", nil, student).Code)

	w = s.do(http.MethodPost, "/api/v1/courses/"+course.ID+"/enroll", nil, student)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/v1/courses/"+course.ID+"/enroll", nil, student).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/lessons/"+lesson.ID, nil, student).Code)

	w = s.do(http.MethodPost, "/api/v1/lessons/"+lesson.ID+"/complete", nil, student)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	progress := decode[models.CourseProgress](t, w)
	assert.Equal(t, 100, progress.Percentage)
	assert.True(t, progress.Completed)

	w = s.do(http.MethodGet, "/api/v1/enrollments", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]models.EnrollmentWithProgress](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, 1, mine[0].Summary.CompletedLessons)

	w = s.do(http.MethodDelete, "/api/v1/lessons/"+lesson.ID+"/complete", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[models.CourseProgress](t, w).Percentage)

	w = s.do(http.MethodGet, "/api/v1/courses/"+course.ID+"/progress", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.CourseProgress](t, w).TotalLessons)

	// Comments
	w = s.do(http.MethodPost, "/api/v1/lessons/"+lesson.ID+"/comments", gin.H{"body": "Why Println?"}, student)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[models.Comment](t, w)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/lessons/"+lesson.ID+"/comments", nil, other).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/comments/"+comment.ID+"/reply", gin.H{"reply": "x"}, student).Code)

	w = s.do(http.MethodPost, "/api/v1/comments/"+comment.ID+"/reply", gin.H{"reply": "It adds a newline"}, s.adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/lessons/"+lesson.ID+"/comments", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[services.CommentListResponse](t, w)
	require.Len(t, comments.Comments, 1)
	require.NotNil(t, comments.Comments[0].Reply)
	assert.Equal(t, "It adds a newline", *comments.Comments[0].Reply)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/v1/comments/"+comment.ID, nil, other).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/comments/"+comment.ID, nil, student).Code)

	// Admin views
	w = s.do(http.MethodGet, "/api/v1/admin/stats", nil, s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.PlatformStats](t, w)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalEnrollments)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/stats", nil, student).Code)

	w = s.do(http.MethodGet, "/api/v1/admin/users?role=student&size=1", nil, s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[services.UserListResponse](t, w)
	assert.Equal(t, int64(2), users.Total)
	assert.Len(t, users.Users, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/admin/users?role=teacher", nil, s.adminToken).Code)

	w = s.do(http.MethodGet, "/api/v1/admin/courses/"+course.ID+"/report", nil, s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "go-basics-progress.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())

	w = s.do(http.MethodGet, "/api/v1/admin/courses/"+course.ID+"/report?format=json", nil, s.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]models.ProgressReportRow](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "ada@example.com", rows[0].Email)

	// Unenroll
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/courses/"+course.ID+"/enroll", nil, student).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/v1/courses/"+course.ID+"/enroll", nil, student).Code)

	// Cleanup endpoints
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/lessons/"+lesson.ID, nil, s.adminToken).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/modules/"+module.ID, nil, s.adminToken).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/courses/"+course.ID, nil, s.adminToken).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/v1/courses/"+course.ID, nil, s.adminToken).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lms_http_requests_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, 100)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
