package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type adminService struct {
	repo   repositories.Repository
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewAdminService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger) AdminService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &adminService{
		repo:   repo,
		cache:  cacheManager,
		logger: logger,
	}
}

func (s *adminService) ListUsers(ctx context.Context, params UserListParams) (*UserListResponse, error) {
	page, size, offset := normalizePage(params.Page, params.Size)
	users, total, err := s.repo.User().List(ctx, repositories.UserFilters{
		Query:  strings.TrimSpace(params.Query),
		Role:   params.Role,
		Limit:  size,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserListResponse{Users: users, Total: total, Page: page, Size: size}, nil
}

func (s *adminService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	return cache.CacheOrExecute(ctx, s.cache.Stats, cache.PlatformStatsKey, cache.StatsCacheConfig.TTL, func() (*models.PlatformStats, error) {
		stats, err := s.repo.Stats().PlatformStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load platform stats: %w", err)
		}
		return stats, nil
	})
}

func (s *adminService) ProgressReport(ctx context.Context, courseID string) ([]models.ProgressReportRow, error) {
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	enrollments, err := s.repo.Enrollment().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	lessonIDs, err := s.repo.Lesson().ListIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course lessons: %w", err)
	}

	userIDs := make([]string, len(enrollments))
	for i, e := range enrollments {
		userIDs[i] = e.UserID
	}
	users, err := s.repo.User().GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	rows := make([]models.ProgressReportRow, 0, len(enrollments))
	for _, e := range enrollments {
		progress := summarize(e, lessonIDs)
		row := models.ProgressReportRow{
			UserID:           e.UserID,
			EnrolledAt:       e.EnrolledAt,
			CompletedLessons: progress.CompletedLessons,
			TotalLessons:     progress.TotalLessons,
			Percentage:       progress.Percentage,
			CompletedAt:      progress.CompletedAt,
		}
		if u, ok := byID[e.UserID]; ok {
			row.UserName = u.Name
			row.Email = u.Email
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *adminService) ExportProgressReport(ctx context.Context, courseID string) (*ProgressReport, error) {
	s.logger.InfoContext(ctx, "Exporting progress report", "course_id", courseID)

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	rows, err := s.ProgressReport(ctx, courseID)
	if err != nil {
		return nil, err
	}

	data, err := buildProgressWorkbook(course, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	return &ProgressReport{
		Filename:    fmt.Sprintf("%s-progress.xlsx", course.Slug),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}
