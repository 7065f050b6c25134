package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type enrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &enrollmentPostgreSQL{db: db}
}

func progressOrder(db *gorm.DB) *gorm.DB {
	return db.Order("completed_at ASC")
}

func (r *enrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error; err != nil {
		return handleDBError(err, "create enrollment")
	}
	return nil
}

func (r *enrollmentPostgreSQL) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Progress", progressOrder).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, handleDBError(err, "get enrollment")
	}
	return &enrollment, nil
}

func (r *enrollmentPostgreSQL) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Progress", progressOrder).
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, handleDBError(err, "list user enrollments")
	}
	return enrollments, nil
}

func (r *enrollmentPostgreSQL) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Progress", progressOrder).
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, handleDBError(err, "list course enrollments")
	}
	return enrollments, nil
}

func (r *enrollmentPostgreSQL) Delete(ctx context.Context, userID, courseID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
			return handleDBError(err, "find enrollment")
		}
		if err := tx.Where("enrollment_id = ?", enrollment.ID).Delete(&models.LessonProgress{}).Error; err != nil {
			return handleDBError(err, "delete enrollment progress")
		}
		if err := tx.Delete(&models.Enrollment{}, "id = ?", enrollment.ID).Error; err != nil {
			return handleDBError(err, "delete enrollment")
		}
		return nil
	})
}

func (r *enrollmentPostgreSQL) SetCompletedAt(ctx context.Context, enrollmentID string, completedAt *time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", enrollmentID).
		Update("completed_at", completedAt).Error
	if err != nil {
		return handleDBError(err, "set enrollment completion")
	}
	return nil
}
