package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type statsPostgreSQL struct {
	db *gorm.DB
}

func NewStatsPostgreSQL(db *gorm.DB) repositories.StatsRepository {
	return &statsPostgreSQL{db: db}
}

func (r *statsPostgreSQL) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{}

	counts := []struct {
		model interface{}
		where string
		dest  *int64
		name  string
	}{
		{&models.User{}, "", &stats.TotalUsers, "users"},
		{&models.Course{}, "", &stats.TotalCourses, "courses"},
		{&models.Lesson{}, "", &stats.TotalLessons, "lessons"},
		{&models.Enrollment{}, "", &stats.TotalEnrollments, "enrollments"},
		{&models.Enrollment{}, "completed_at IS NOT NULL", &stats.CompletedEnrollments, "completed enrollments"},
		{&models.Comment{}, "", &stats.TotalComments, "comments"},
	}

	for _, c := range counts {
		query := r.db.WithContext(ctx).Model(c.model)
		if c.where != "" {
			query = query.Where(c.where)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	return stats, nil
}
