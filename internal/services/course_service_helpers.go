package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// loadCourse returns the course with its content, resolving slugs to ids.
// Details are cached by id so invalidation only needs the id.
func (s *courseService) loadCourse(ctx context.Context, idOrSlug string) (*models.Course, error) {
	course, err := s.cachedContent(ctx, idOrSlug)
	if repositories.IsNotFoundError(err) {
		bySlug, slugErr := s.repo.Course().GetBySlug(ctx, idOrSlug)
		if slugErr != nil {
			if repositories.IsNotFoundError(slugErr) {
				return nil, ErrCourseNotFound
			}
			return nil, fmt.Errorf("failed to get course by slug: %w", slugErr)
		}
		course, err = s.cachedContent(ctx, bySlug.ID)
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	course.LessonCount = len(course.LessonIDs())
	return course, nil
}

func (s *courseService) cachedContent(ctx context.Context, id string) (*models.Course, error) {
	return cache.CacheOrExecute(ctx, s.cache.Course, cache.CourseDetailKey(id), cache.CourseCacheConfig.TTL, func() (*models.Course, error) {
		return s.repo.Course().GetWithContent(ctx, id)
	})
}

func (s *courseService) getCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) getModule(ctx context.Context, id string) (*models.Module, error) {
	module, err := s.repo.Module().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return module, nil
}

func (s *courseService) getLesson(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

func (s *courseService) ensureSlugFree(ctx context.Context, slug string) error {
	exists, err := s.repo.Course().ExistsBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return ErrSlugTaken
	}
	return nil
}

// resolvePosition uses the requested position or appends after the last sibling
func (s *courseService) resolvePosition(ctx context.Context, requested *int, next func() (int, error)) (int, error) {
	if requested != nil {
		return *requested, nil
	}
	position, err := next()
	if err != nil {
		return 0, fmt.Errorf("failed to compute position: %w", err)
	}
	return position, nil
}

func applyCourseUpdates(course *models.Course, req *UpdateCourseRequest) {
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		course.Slug = *req.Slug
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.ImageURL != nil {
		course.ImageURL = req.ImageURL
	}
	if req.Published != nil {
		course.Published = *req.Published
	}
}

func applyModuleUpdates(module *models.Module, req *UpdateModuleRequest) {
	if req.Title != nil {
		module.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
}

func applyLessonUpdates(lesson *models.Lesson, req *UpdateLessonRequest) {
	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}
	if req.Resources != nil {
		lesson.Resources = validator.ToLessonResources(req.Resources)
	}
	if req.DurationMinutes != nil {
		lesson.DurationMinutes = *req.DurationMinutes
	}
	if req.Position != nil {
		lesson.Position = *req.Position
	}
}

// mutateLessons runs fn and then brings the completion state of the course's
// enrollments in line with the new lesson set, in one transaction
func (s *courseService) mutateLessons(ctx context.Context, courseID string, fn func(tx repositories.Repository) error) error {
	var changed int
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		changed, err = syncCourseCompletion(ctx, tx, courseID, time.Now().UTC())
		return err
	})
	if err != nil {
		return err
	}
	if changed > 0 {
		s.logger.InfoContext(ctx, "Course completion recomputed", "course_id", courseID, "enrollments", changed)
	}
	return nil
}

// syncCourseCompletion sets or clears completed_at on every enrollment in
// courseID so it matches progress over the current lessons. It returns how
// many enrollments changed.
func syncCourseCompletion(ctx context.Context, repo repositories.Repository, courseID string, at time.Time) (int, error) {
	lessonIDs, err := repo.Lesson().ListIDsByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to list course lessons: %w", err)
	}
	enrollments, err := repo.Enrollment().ListByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to list course enrollments: %w", err)
	}

	changed := 0
	for _, e := range enrollments {
		done := models.ComputeProgress(courseID, lessonIDs, e.Progress).Completed
		var completedAt *time.Time
		switch {
		case done && e.CompletedAt == nil:
			completedAt = &at
		case !done && e.CompletedAt != nil:
		default:
			continue
		}
		if err := repo.Enrollment().SetCompletedAt(ctx, e.ID, completedAt); err != nil {
			return changed, fmt.Errorf("failed to update course completion: %w", err)
		}
		changed++
	}
	return changed, nil
}
