package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type CommentHandler struct {
	BaseHandler
	commentService services.CommentService
}

func NewCommentHandler(commentService services.CommentService, logger utils.Logger) *CommentHandler {
	return &CommentHandler{
		BaseHandler:    NewBaseHandler(logger),
		commentService: commentService,
	}
}

// ListComments lists a lesson's comments, newest first
// @Summary List lesson comments
// @Tags comments
// @Produce json
// @Param id path string true "Lesson ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.CommentListResponse
// @Failure 403 {object} ErrorResponse
// @Router /lessons/{id}/comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	page, size := parsePage(c)

	resp, err := h.commentService.List(c.Request.Context(), h.viewer(c), c.Param("id"), page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateComment posts a comment on a lesson
// @Summary Comment on lesson
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param body body services.CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /lessons/{id}/comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req services.CommentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), h.viewer(c), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ReplyToComment sets the admin reply on a comment, replacing any earlier one
// @Summary Reply to comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param body body services.ReplyRequest true "Reply"
// @Success 200 {object} models.Comment
// @Failure 404 {object} ErrorResponse
// @Router /comments/{id}/reply [post]
func (h *CommentHandler) ReplyToComment(c *gin.Context) {
	adminID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req services.ReplyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Replying to comment", "comment_id", c.Param("id"))

	comment, err := h.commentService.Reply(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment. Only its author or an admin may do this.
// @Summary Delete comment
// @Tags comments
// @Param id path string true "Comment ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.commentService.Delete(c.Request.Context(), h.viewer(c), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
