package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type lessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &lessonPostgreSQL{db: db}
}

func (r *lessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	if err := r.db.WithContext(ctx).Create(lesson).Error; err != nil {
		return handleDBError(err, "create lesson")
	}
	return nil
}

func (r *lessonPostgreSQL) GetByID(ctx context.Context, id string) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get lesson by id")
	}
	return &lesson, nil
}

func (r *lessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	result := r.db.WithContext(ctx).
		Model(lesson).
		Select("title", "content", "video_url", "resources", "duration_minutes", "position", "updated_at").
		Updates(lesson)
	if result.Error != nil {
		return handleDBError(result.Error, "update lesson")
	}
	if result.RowsAffected == 0 {
		return notFound("update lesson")
	}
	return nil
}

func (r *lessonPostgreSQL) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return handleDBError(err, "delete lesson comments")
		}
		if err := tx.Where("lesson_id = ?", id).Delete(&models.LessonProgress{}).Error; err != nil {
			return handleDBError(err, "delete lesson progress")
		}

		result := tx.Delete(&models.Lesson{}, "id = ?", id)
		if result.Error != nil {
			return handleDBError(result.Error, "delete lesson")
		}
		if result.RowsAffected == 0 {
			return notFound("delete lesson")
		}
		return nil
	})
}

func (r *lessonPostgreSQL) ListByModule(ctx context.Context, moduleID string) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := r.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC, created_at ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, handleDBError(err, "list lessons")
	}
	return lessons, nil
}

func (r *lessonPostgreSQL) ListIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("lessons").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("lessons.course_id = ?", courseID).
		Order("modules.position ASC, modules.created_at ASC, lessons.position ASC, lessons.created_at ASC").
		Pluck("lessons.id", &ids).Error
	if err != nil {
		return nil, handleDBError(err, "list course lesson ids")
	}
	return ids, nil
}

func (r *lessonPostgreSQL) NextPosition(ctx context.Context, moduleID string) (int, error) {
	return nextPosition(ctx, r.db, &models.Lesson{}, "module_id", moduleID)
}
