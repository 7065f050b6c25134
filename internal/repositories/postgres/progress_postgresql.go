package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// progressPostgreSQL stores one lesson_progress row per (enrollment, lesson)
type progressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &progressPostgreSQL{db: db}
}

func (r *progressPostgreSQL) MarkComplete(ctx context.Context, enrollmentID, lessonID string, at time.Time) (bool, error) {
	entry := &models.LessonProgress{
		EnrollmentID: enrollmentID,
		LessonID:     lessonID,
		CompletedAt:  at,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if result.Error != nil {
		return false, handleDBError(result.Error, "mark lesson complete")
	}
	return result.RowsAffected > 0, nil
}

func (r *progressPostgreSQL) MarkIncomplete(ctx context.Context, enrollmentID, lessonID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).
		Delete(&models.LessonProgress{})
	if result.Error != nil {
		return false, handleDBError(result.Error, "mark lesson incomplete")
	}
	return result.RowsAffected > 0, nil
}

func (r *progressPostgreSQL) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.LessonProgress, error) {
	var entries []models.LessonProgress
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("completed_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, handleDBError(err, "list progress")
	}
	return entries, nil
}
