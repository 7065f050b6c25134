package services

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterRequest = validator.RegisterRequest
type LoginRequest = validator.LoginRequest
type ChangePasswordRequest = validator.ChangePasswordRequest
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateModuleRequest = validator.ModuleCreateRequest
type UpdateModuleRequest = validator.ModuleUpdateRequest
type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type CommentRequest = validator.CommentRequest
type ReplyRequest = validator.ReplyRequest

// Viewer is the authenticated caller as seen by the services
type Viewer struct {
	UserID string
	Role   models.UserRole
}

func (v Viewer) IsAdmin() bool {
	return v.Role == models.RoleAdmin
}

type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
}

type CourseListParams struct {
	Query string
	Page  int
	Size  int
	// IncludeUnpublished is honoured for admins only
	IncludeUnpublished bool
}

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

type CommentListResponse struct {
	Comments []*models.Comment `json:"comments"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}

type UserListParams struct {
	Query string
	Role  *models.UserRole
	Page  int
	Size  int
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// ProgressReport is an export-ready file
type ProgressReport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error

	// EnsureAdmin creates an admin account, or promotes and resets an existing one
	EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error)
}

type CourseService interface {
	List(ctx context.Context, viewer Viewer, params CourseListParams) (*CourseListResponse, error)
	// Get accepts a course id or slug
	Get(ctx context.Context, viewer Viewer, idOrSlug string) (*models.Course, error)
	Create(ctx context.Context, req *CreateCourseRequest, adminID string) (*models.Course, error)
	Update(ctx context.Context, id string, req *UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id string) error

	CreateModule(ctx context.Context, courseID string, req *CreateModuleRequest) (*models.Module, error)
	UpdateModule(ctx context.Context, id string, req *UpdateModuleRequest) (*models.Module, error)
	DeleteModule(ctx context.Context, id string) error

	CreateLesson(ctx context.Context, moduleID string, req *CreateLessonRequest) (*models.Lesson, error)
	// GetLesson is limited to admins and students enrolled in the lesson's course
	GetLesson(ctx context.Context, viewer Viewer, id string) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, id string, req *UpdateLessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error
}

type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, userID, courseID string) error
	ListMine(ctx context.Context, userID string) ([]*models.EnrollmentWithProgress, error)
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

type ProgressService interface {
	CompleteLesson(ctx context.Context, userID, lessonID string) (*models.CourseProgress, error)
	UncompleteLesson(ctx context.Context, userID, lessonID string) (*models.CourseProgress, error)
	CourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error)
}

type CommentService interface {
	List(ctx context.Context, viewer Viewer, lessonID string, page, size int) (*CommentListResponse, error)
	Create(ctx context.Context, viewer Viewer, lessonID string, req *CommentRequest) (*models.Comment, error)
	Reply(ctx context.Context, adminID, commentID string, req *ReplyRequest) (*models.Comment, error)
	Delete(ctx context.Context, viewer Viewer, commentID string) error
}

type AdminService interface {
	ListUsers(ctx context.Context, params UserListParams) (*UserListResponse, error)
	Stats(ctx context.Context) (*models.PlatformStats, error)
	ProgressReport(ctx context.Context, courseID string) ([]models.ProgressReportRow, error)
	ExportProgressReport(ctx context.Context, courseID string) (*ProgressReport, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Auth() AuthService
	Course() CourseService
	Enrollment() EnrollmentService
	Progress() ProgressService
	Comment() CommentService
	Admin() AdminService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
