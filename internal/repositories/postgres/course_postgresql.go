package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type coursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &coursePostgreSQL{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *coursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := r.db.WithContext(ctx).Omit("Modules").Create(course).Error; err != nil {
		return handleDBError(err, "create course")
	}
	return nil
}

func (r *coursePostgreSQL) GetByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get course by id")
	}
	return &course, nil
}

func (r *coursePostgreSQL) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, "slug = ?", slug).Error; err != nil {
		return nil, handleDBError(err, "get course by slug")
	}
	return &course, nil
}

func (r *coursePostgreSQL) GetWithContent(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		First(&course, "id = ?", id).Error
	if err != nil {
		return nil, handleDBError(err, "get course with content")
	}

	for _, m := range course.Modules {
		course.LessonCount += len(m.Lessons)
	}
	return &course, nil
}

func (r *coursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	result := r.db.WithContext(ctx).
		Model(course).
		Select("title", "slug", "description", "image_url", "published", "updated_at").
		Updates(course)
	if result.Error != nil {
		return handleDBError(result.Error, "update course")
	}
	if result.RowsAffected == 0 {
		return notFound("update course")
	}
	return nil
}

func (r *coursePostgreSQL) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return handleDBError(err, "find course")
		}
		if count == 0 {
			return notFound("delete course")
		}

		lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.Comment{}).Error; err != nil {
			return handleDBError(err, "delete course comments")
		}

		enrollmentIDs := tx.Model(&models.Enrollment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("enrollment_id IN (?)", enrollmentIDs).Delete(&models.LessonProgress{}).Error; err != nil {
			return handleDBError(err, "delete course progress")
		}

		steps := []struct {
			model interface{}
			op    string
		}{
			{&models.Enrollment{}, "delete course enrollments"},
			{&models.Lesson{}, "delete course lessons"},
			{&models.Module{}, "delete course modules"},
		}
		for _, s := range steps {
			if err := tx.Where("course_id = ?", id).Delete(s.model).Error; err != nil {
				return handleDBError(err, s.op)
			}
		}

		if err := tx.Delete(&models.Course{}, "id = ?", id).Error; err != nil {
			return handleDBError(err, "delete course")
		}
		return nil
	})
}

// ===== QUERY OPERATIONS =====

func (r *coursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Course{})
	if filters.PublishedOnly {
		query = query.Where("published = ?", true)
	}
	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count courses")
	}

	query = applyPagination(query.Order("created_at DESC, id ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, handleDBError(err, "list courses")
	}

	if err := r.fillLessonCounts(ctx, courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *coursePostgreSQL) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, handleDBError(err, "check course slug")
	}
	return count > 0, nil
}

// ===== HELPER METHODS =====

func (r *coursePostgreSQL) fillLessonCounts(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}

	var rows []struct {
		CourseID string
		Total    int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", ids).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return handleDBError(err, "count course lessons")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	for _, c := range courses {
		c.LessonCount = counts[c.ID]
	}
	return nil
}
