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
)

type progressService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	events eventEmitter
	logger *slog.Logger
	now    func() time.Time
}

func NewProgressService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger) ProgressService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &progressService{
		repo:   repo,
		cache:  cacheManager,
		events: eventEmitter{publisher: publisher, logger: logger},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// progressChange is what a completion toggle did to the enrollment
type progressChange struct {
	progress     *models.CourseProgress
	toggled      bool
	courseDone   bool
	courseUndone bool
	completedAt  time.Time
	courseID     string
}

func (s *progressService) CompleteLesson(ctx context.Context, userID, lessonID string) (*models.CourseProgress, error) {
	s.logger.InfoContext(ctx, "Completing lesson", "user_id", userID, "lesson_id", lessonID)

	change, err := s.toggle(ctx, userID, lessonID, true)
	if err != nil {
		return nil, err
	}

	if change.toggled {
		metrics.LessonsCompleted.Inc()
		s.events.emit(ctx, events.LessonCompleted(userID, change.courseID, lessonID, change.progress.Percentage))
	}
	if change.courseDone {
		metrics.CoursesCompleted.Inc()
		cache.SafeDelete(ctx, s.cache.Stats, cache.PlatformStatsKey)
		s.events.emit(ctx, events.CourseCompleted(userID, change.courseID, change.completedAt))
		s.logger.InfoContext(ctx, "Course completed", "user_id", userID, "course_id", change.courseID)
	}
	return change.progress, nil
}

func (s *progressService) UncompleteLesson(ctx context.Context, userID, lessonID string) (*models.CourseProgress, error) {
	s.logger.InfoContext(ctx, "Uncompleting lesson", "user_id", userID, "lesson_id", lessonID)

	change, err := s.toggle(ctx, userID, lessonID, false)
	if err != nil {
		return nil, err
	}
	if change.courseUndone {
		cache.SafeDelete(ctx, s.cache.Stats, cache.PlatformStatsKey)
	}
	return change.progress, nil
}

func (s *progressService) CourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	enrollment, err := s.repo.Enrollment().Get(ctx, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	lessonIDs, err := s.repo.Lesson().ListIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course lessons: %w", err)
	}
	return summarize(enrollment, lessonIDs), nil
}

// toggle marks lessonID complete or incomplete and keeps the enrollment's
// completed_at in step with the recomputed progress
func (s *progressService) toggle(ctx context.Context, userID, lessonID string, complete bool) (*progressChange, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	enrollment, err := s.repo.Enrollment().Get(ctx, userID, lesson.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	change := &progressChange{courseID: lesson.CourseID}
	at := s.now()

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		if complete {
			change.toggled, err = tx.Progress().MarkComplete(ctx, enrollment.ID, lessonID, at)
		} else {
			change.toggled, err = tx.Progress().MarkIncomplete(ctx, enrollment.ID, lessonID)
		}
		if err != nil {
			return fmt.Errorf("failed to record progress: %w", err)
		}

		entries, err := tx.Progress().ListByEnrollment(ctx, enrollment.ID)
		if err != nil {
			return fmt.Errorf("failed to list progress: %w", err)
		}
		lessonIDs, err := tx.Lesson().ListIDsByCourse(ctx, lesson.CourseID)
		if err != nil {
			return fmt.Errorf("failed to list course lessons: %w", err)
		}
		change.progress = models.ComputeProgress(lesson.CourseID, lessonIDs, entries)

		switch {
		case change.progress.Completed && enrollment.CompletedAt == nil:
			if err := tx.Enrollment().SetCompletedAt(ctx, enrollment.ID, &at); err != nil {
				return fmt.Errorf("failed to mark course complete: %w", err)
			}
			change.courseDone = true
			change.completedAt = at
			change.progress.CompletedAt = &at
		case !change.progress.Completed && enrollment.CompletedAt != nil:
			if err := tx.Enrollment().SetCompletedAt(ctx, enrollment.ID, nil); err != nil {
				return fmt.Errorf("failed to clear course completion: %w", err)
			}
			change.courseUndone = true
		case change.progress.Completed:
			change.progress.CompletedAt = enrollment.CompletedAt
		}
		return nil
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	return change, nil
}
