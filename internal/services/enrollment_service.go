package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/metrics"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	events    eventEmitter
	logger    *slog.Logger
	validator *validator.Validator
}

func NewEnrollmentService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) EnrollmentService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &enrollmentService{
		repo:      repo,
		cache:     cacheManager,
		events:    eventEmitter{publisher: publisher, logger: logger},
		logger:    logger,
		validator: validator,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	s.logger.InfoContext(ctx, "Enrolling user", "user_id", userID, "course_id", courseID)

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if errors := s.validator.GetBusinessValidator().ValidateEnrollment(course); len(errors) > 0 {
		return nil, errors
	}

	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}
	enrollment.Course = course

	metrics.EnrollmentsCreated.Inc()
	cache.SafeDelete(ctx, s.cache.Stats, cache.PlatformStatsKey)
	s.events.emit(ctx, events.EnrollmentCreated(enrollment.ID, userID, courseID))

	s.logger.InfoContext(ctx, "User enrolled", "enrollment_id", enrollment.ID)
	return enrollment, nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, userID, courseID string) error {
	s.logger.InfoContext(ctx, "Unenrolling user", "user_id", userID, "course_id", courseID)

	if err := s.repo.Enrollment().Delete(ctx, userID, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotEnrolled
		}
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	cache.SafeDelete(ctx, s.cache.Stats, cache.PlatformStatsKey)
	s.events.emit(ctx, events.EnrollmentRemoved(userID, courseID))
	return nil
}

func (s *enrollmentService) ListMine(ctx context.Context, userID string) ([]*models.EnrollmentWithProgress, error) {
	enrollments, err := s.repo.Enrollment().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	out := make([]*models.EnrollmentWithProgress, 0, len(enrollments))
	for _, e := range enrollments {
		lessonIDs, err := s.repo.Lesson().ListIDsByCourse(ctx, e.CourseID)
		if err != nil {
			return nil, fmt.Errorf("failed to list course lessons: %w", err)
		}
		out = append(out, &models.EnrollmentWithProgress{
			Enrollment: e,
			Summary:    summarize(e, lessonIDs),
		})
	}
	return out, nil
}

func (s *enrollmentService) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	return isEnrolled(ctx, s.repo, userID, courseID)
}

// summarize computes progress and carries the recorded completion time when
// the course is still fully completed
func summarize(e *models.Enrollment, lessonIDs []string) *models.CourseProgress {
	progress := models.ComputeProgress(e.CourseID, lessonIDs, e.Progress)
	if progress.Completed {
		progress.CompletedAt = e.CompletedAt
	}
	return progress
}
