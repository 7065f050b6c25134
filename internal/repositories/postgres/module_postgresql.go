package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type modulePostgreSQL struct {
	db *gorm.DB
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &modulePostgreSQL{db: db}
}

func (r *modulePostgreSQL) Create(ctx context.Context, module *models.Module) error {
	if err := r.db.WithContext(ctx).Omit("Lessons").Create(module).Error; err != nil {
		return handleDBError(err, "create module")
	}
	return nil
}

func (r *modulePostgreSQL) GetByID(ctx context.Context, id string) (*models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).First(&module, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get module by id")
	}
	return &module, nil
}

func (r *modulePostgreSQL) Update(ctx context.Context, module *models.Module) error {
	result := r.db.WithContext(ctx).
		Model(module).
		Select("title", "description", "position", "updated_at").
		Updates(module)
	if result.Error != nil {
		return handleDBError(result.Error, "update module")
	}
	if result.RowsAffected == 0 {
		return notFound("update module")
	}
	return nil
}

func (r *modulePostgreSQL) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("module_id = ?", id)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.Comment{}).Error; err != nil {
			return handleDBError(err, "delete module comments")
		}
		lessonIDs = tx.Model(&models.Lesson{}).Select("id").Where("module_id = ?", id)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.LessonProgress{}).Error; err != nil {
			return handleDBError(err, "delete module progress")
		}
		if err := tx.Where("module_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
			return handleDBError(err, "delete module lessons")
		}

		result := tx.Delete(&models.Module{}, "id = ?", id)
		if result.Error != nil {
			return handleDBError(result.Error, "delete module")
		}
		if result.RowsAffected == 0 {
			return notFound("delete module")
		}
		return nil
	})
}

func (r *modulePostgreSQL) ListByCourse(ctx context.Context, courseID string) ([]*models.Module, error) {
	var modules []*models.Module
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC, created_at ASC").
		Find(&modules).Error
	if err != nil {
		return nil, handleDBError(err, "list modules")
	}
	return modules, nil
}

func (r *modulePostgreSQL) NextPosition(ctx context.Context, courseID string) (int, error) {
	return nextPosition(ctx, r.db, &models.Module{}, "course_id", courseID)
}

// nextPosition returns MAX(position)+1 among rows where column = value, or 1
func nextPosition(ctx context.Context, db *gorm.DB, model interface{}, column, value string) (int, error) {
	var maxPos int
	err := db.WithContext(ctx).
		Model(model).
		Select("COALESCE(MAX(position), 0)").
		Where(column+" = ?", value).
		Row().
		Scan(&maxPos)
	if err != nil {
		return 0, handleDBError(err, "next position")
	}
	return maxPos + 1, nil
}
