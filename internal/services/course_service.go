package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) CourseService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &courseService{
		repo:      repo,
		cache:     cacheManager,
		logger:    logger,
		validator: validator,
	}
}

// ===== COURSES =====

func (s *courseService) List(ctx context.Context, viewer Viewer, params CourseListParams) (*CourseListResponse, error) {
	page, size, offset := normalizePage(params.Page, params.Size)
	filters := repositories.CourseFilters{
		Query:         strings.TrimSpace(params.Query),
		PublishedOnly: !(viewer.IsAdmin() && params.IncludeUnpublished),
		Limit:         size,
		Offset:        offset,
	}

	key := cache.CourseListKey(filters.PublishedOnly, filters.Query, filters.Limit, filters.Offset)
	return cache.CacheOrExecute(ctx, s.cache.Course, key, cache.CourseCacheConfig.TTL, func() (*CourseListResponse, error) {
		courses, total, err := s.repo.Course().List(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to list courses: %w", err)
		}
		return &CourseListResponse{Courses: courses, Total: total, Page: page, Size: size}, nil
	})
}

func (s *courseService) Get(ctx context.Context, viewer Viewer, idOrSlug string) (*models.Course, error) {
	course, err := s.loadCourse(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	// Drafts are invisible to students
	if !course.Published && !viewer.IsAdmin() {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, adminID string) (*models.Course, error) {
	s.logger.InfoContext(ctx, "Creating course", "admin_id", adminID, "title", req.Title)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = validator.Slugify(req.Title)
	}
	if slug == "" {
		return nil, validator.ValidationErrors{{
			Field:   "slug",
			Message: "cannot be derived from the title, provide one explicitly",
			Value:   req.Title,
			Rule:    "course_slug",
		}}
	}
	if err := s.ensureSlugFree(ctx, slug); err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedBy:   adminID,
	}
	if err := s.repo.Course().Create(ctx, course); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, course.ID)
	s.logger.InfoContext(ctx, "Course created", "course_id", course.ID, "slug", course.Slug)
	return course, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *UpdateCourseRequest) (*models.Course, error) {
	s.logger.InfoContext(ctx, "Updating course", "course_id", id)

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	lessonIDs, err := s.repo.Lesson().ListIDsByCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}
	course.LessonCount = len(lessonIDs)

	if errors := s.validator.GetBusinessValidator().ValidateCourseUpdate(req, course); len(errors) > 0 {
		return nil, errors
	}
	if req.Slug != nil && *req.Slug != course.Slug {
		if err := s.ensureSlugFree(ctx, *req.Slug); err != nil {
			return nil, err
		}
	}

	applyCourseUpdates(course, req)
	if err := s.repo.Course().Update(ctx, course); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, id)
	s.logger.InfoContext(ctx, "Course updated", "course_id", id, "published", course.Published)
	return s.loadCourse(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, id string) error {
	s.logger.InfoContext(ctx, "Deleting course", "course_id", id)

	if err := s.repo.Course().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, id)
	s.logger.InfoContext(ctx, "Course deleted", "course_id", id)
	return nil
}

// ===== MODULES =====

func (s *courseService) CreateModule(ctx context.Context, courseID string, req *CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.getCourse(ctx, courseID); err != nil {
		return nil, err
	}

	position, err := s.resolvePosition(ctx, req.Position, func() (int, error) {
		return s.repo.Module().NextPosition(ctx, courseID)
	})
	if err != nil {
		return nil, err
	}

	module := &models.Module{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Position:    position,
	}
	if err := s.repo.Module().Create(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)
	s.logger.InfoContext(ctx, "Module created", "module_id", module.ID, "course_id", courseID)
	return module, nil
}

func (s *courseService) UpdateModule(ctx context.Context, id string, req *UpdateModuleRequest) (*models.Module, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	module, err := s.getModule(ctx, id)
	if err != nil {
		return nil, err
	}

	applyModuleUpdates(module, req)
	if err := s.repo.Module().Update(ctx, module); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, module.CourseID)
	return module, nil
}

func (s *courseService) DeleteModule(ctx context.Context, id string) error {
	module, err := s.getModule(ctx, id)
	if err != nil {
		return err
	}
	err = s.mutateLessons(ctx, module.CourseID, func(tx repositories.Repository) error {
		if err := tx.Module().Delete(ctx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to delete module: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateCourseCache(ctx, s.cache, module.CourseID)
	s.logger.InfoContext(ctx, "Module deleted", "module_id", id, "course_id", module.CourseID)
	return nil
}

// ===== LESSONS =====

func (s *courseService) CreateLesson(ctx context.Context, moduleID string, req *CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	module, err := s.getModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	position, err := s.resolvePosition(ctx, req.Position, func() (int, error) {
		return s.repo.Lesson().NextPosition(ctx, moduleID)
	})
	if err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		ModuleID:        moduleID,
		CourseID:        module.CourseID,
		Title:           strings.TrimSpace(req.Title),
		Content:         req.Content,
		VideoURL:        req.VideoURL,
		Resources:       validator.ToLessonResources(req.Resources),
		DurationMinutes: req.DurationMinutes,
		Position:        position,
	}
	err = s.mutateLessons(ctx, module.CourseID, func(tx repositories.Repository) error {
		if err := tx.Lesson().Create(ctx, lesson); err != nil {
			return fmt.Errorf("failed to create lesson: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cache, module.CourseID)
	s.logger.InfoContext(ctx, "Lesson created", "lesson_id", lesson.ID, "module_id", moduleID)
	return lesson, nil
}

func (s *courseService) GetLesson(ctx context.Context, viewer Viewer, id string) (*models.Lesson, error) {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer.IsAdmin() {
		return lesson, nil
	}

	enrolled, err := isEnrolled(ctx, s.repo, viewer.UserID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, NewPermissionError(viewer.UserID, id, "lesson", "read", "not enrolled in course")
	}
	return lesson, nil
}

func (s *courseService) UpdateLesson(ctx context.Context, id string, req *UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	applyLessonUpdates(lesson, req)
	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	cache.InvalidateCourseCache(ctx, s.cache, lesson.CourseID)
	return lesson, nil
}

func (s *courseService) DeleteLesson(ctx context.Context, id string) error {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return err
	}
	err = s.mutateLessons(ctx, lesson.CourseID, func(tx repositories.Repository) error {
		if err := tx.Lesson().Delete(ctx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrLessonNotFound
			}
			return fmt.Errorf("failed to delete lesson: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateCourseCache(ctx, s.cache, lesson.CourseID)
	s.logger.InfoContext(ctx, "Lesson deleted", "lesson_id", id, "course_id", lesson.CourseID)
	return nil
}
