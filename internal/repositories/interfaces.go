package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ===== FILTERS =====

type CourseFilters struct {
	Query         string // Matches title or description
	PublishedOnly bool
	Limit         int
	Offset        int
}

type CommentFilters struct {
	Limit  int
	Offset int
}

// ===== CATALOG =====

// CourseRepository stores courses. Delete removes the whole subtree: modules,
// lessons, enrollments with their progress, and lesson comments.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	// GetWithContent loads modules and lessons ordered by position
	GetWithContent(ctx context.Context, id string) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error

	// List returns courses newest first with LessonCount filled in
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	GetByID(ctx context.Context, id string) (*models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	// Delete removes the module, its lessons and everything attached to them
	Delete(ctx context.Context, id string) error
	ListByCourse(ctx context.Context, courseID string) ([]*models.Module, error)
	// NextPosition is one past the highest position used in the course
	NextPosition(ctx context.Context, courseID string) (int, error)
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id string) (*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	// Delete removes the lesson, its progress entries and its comments
	Delete(ctx context.Context, id string) error
	ListByModule(ctx context.Context, moduleID string) ([]*models.Lesson, error)
	// ListIDsByCourse returns lesson ids in module then lesson order
	ListIDsByCourse(ctx context.Context, courseID string) ([]string, error)
	NextPosition(ctx context.Context, moduleID string) (int, error)
}

// ===== LEARNING ACTIVITY =====

type EnrollmentRepository interface {
	// Create fails with ErrDuplicate when the user is already enrolled
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Get loads the enrollment of user in course with its progress entries
	Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	// ListByUser loads enrollments with course and progress, newest first
	ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error)
	// ListByCourse loads enrollments with progress, oldest first
	ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error)
	// Delete removes the enrollment and its progress
	Delete(ctx context.Context, userID, courseID string) error
	SetCompletedAt(ctx context.Context, enrollmentID string, completedAt *time.Time) error
}

type ProgressRepository interface {
	// MarkComplete records lessonID as done. created is false when it already was.
	MarkComplete(ctx context.Context, enrollmentID, lessonID string, at time.Time) (created bool, err error)
	// MarkIncomplete removes the entry. removed is false when there was none.
	MarkIncomplete(ctx context.Context, enrollmentID, lessonID string) (removed bool, err error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.LessonProgress, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// ListByLesson returns comments newest first
	ListByLesson(ctx context.Context, lessonID string, filters CommentFilters) ([]*models.Comment, int64, error)
	SetReply(ctx context.Context, id, reply, adminID string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ===== DASHBOARD =====

type StatsRepository interface {
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}
