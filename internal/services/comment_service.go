package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type commentService struct {
	repo      repositories.Repository
	events    eventEmitter
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCommentService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) CommentService {
	return &commentService{
		repo:      repo,
		events:    eventEmitter{publisher: publisher, logger: logger},
		logger:    logger,
		validator: validator,
	}
}

func (s *commentService) List(ctx context.Context, viewer Viewer, lessonID string, page, size int) (*CommentListResponse, error) {
	if _, err := s.authorizeLesson(ctx, viewer, lessonID, "list_comments"); err != nil {
		return nil, err
	}

	page, size, offset := normalizePage(page, size)
	comments, total, err := s.repo.Comment().ListByLesson(ctx, lessonID, repositories.CommentFilters{
		Limit:  size,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &CommentListResponse{Comments: comments, Total: total, Page: page, Size: size}, nil
}

func (s *commentService) Create(ctx context.Context, viewer Viewer, lessonID string, req *CommentRequest) (*models.Comment, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.authorizeLesson(ctx, viewer, lessonID, "comment"); err != nil {
		return nil, err
	}

	author, err := s.repo.User().GetByID(ctx, viewer.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	comment := &models.Comment{
		LessonID:   lessonID,
		UserID:     author.ID,
		AuthorName: author.Name,
		Body:       strings.TrimSpace(req.Body),
	}
	if err := s.repo.Comment().Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.events.emit(ctx, events.CommentCreated(comment.ID, lessonID, author.ID))
	s.logger.InfoContext(ctx, "Comment created", "comment_id", comment.ID, "lesson_id", lessonID)
	return comment, nil
}

func (s *commentService) Reply(ctx context.Context, adminID, commentID string, req *ReplyRequest) (*models.Comment, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	reply := strings.TrimSpace(req.Reply)
	at := time.Now().UTC()
	if err := s.repo.Comment().SetReply(ctx, commentID, reply, adminID, at); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to reply to comment: %w", err)
	}

	comment.Reply = &reply
	comment.RepliedBy = &adminID
	comment.RepliedAt = &at
	comment.UpdatedAt = at

	s.events.emit(ctx, events.CommentReplied(commentID, comment.LessonID, adminID))
	s.logger.InfoContext(ctx, "Comment replied", "comment_id", commentID, "admin_id", adminID)
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, viewer Viewer, commentID string) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != viewer.UserID && !viewer.IsAdmin() {
		return NewPermissionError(viewer.UserID, commentID, "comment", "delete", "not author or admin")
	}

	if err := s.repo.Comment().Delete(ctx, commentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	s.logger.InfoContext(ctx, "Comment deleted", "comment_id", commentID, "user_id", viewer.UserID)
	return nil
}

// authorizeLesson loads the lesson and checks that viewer may take part in its discussion
func (s *commentService) authorizeLesson(ctx context.Context, viewer Viewer, lessonID, action string) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if viewer.IsAdmin() {
		return lesson, nil
	}

	enrolled, err := isEnrolled(ctx, s.repo, viewer.UserID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, NewPermissionError(viewer.UserID, lessonID, "lesson", action, "not enrolled in course")
	}
	return lesson, nil
}

func (s *commentService) getComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.repo.Comment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return comment, nil
}
