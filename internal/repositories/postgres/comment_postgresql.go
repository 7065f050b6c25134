package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type commentPostgreSQL struct {
	db *gorm.DB
}

func NewCommentPostgreSQL(db *gorm.DB) repositories.CommentRepository {
	return &commentPostgreSQL{db: db}
}

func (r *commentPostgreSQL) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return handleDBError(err, "create comment")
	}
	return nil
}

func (r *commentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get comment by id")
	}
	return &comment, nil
}

func (r *commentPostgreSQL) ListByLesson(ctx context.Context, lessonID string, filters repositories.CommentFilters) ([]*models.Comment, int64, error) {
	var comments []*models.Comment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Comment{}).Where("lesson_id = ?", lessonID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count comments")
	}

	query = applyPagination(query.Order("created_at DESC, id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&comments).Error; err != nil {
		return nil, 0, handleDBError(err, "list comments")
	}
	return comments, total, nil
}

func (r *commentPostgreSQL) SetReply(ctx context.Context, id, reply, adminID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reply":      reply,
			"replied_by": adminID,
			"replied_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return handleDBError(result.Error, "reply to comment")
	}
	if result.RowsAffected == 0 {
		return notFound("reply to comment")
	}
	return nil
}

func (r *commentPostgreSQL) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete comment")
	}
	if result.RowsAffected == 0 {
		return notFound("delete comment")
	}
	return nil
}
