package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// EnrollmentHandler serves the student side: enrollments and lesson progress
type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
	progressService   services.ProgressService
}

func NewEnrollmentHandler(
	enrollmentService services.EnrollmentService,
	progressService services.ProgressService,
	logger utils.Logger,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
		progressService:   progressService,
	}
}

// ===== ENROLLMENTS =====

// Enroll enrolls the caller in a published course
// @Summary Enroll in course
// @Tags enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} ErrorResponse "Course not published"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already enrolled"
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	courseID := c.Param("id")

	h.LogRequest(c, "Enrolling", "user_id", userID, "course_id", courseID)

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// Unenroll removes the caller's enrollment together with its progress
// @Summary Unenroll from course
// @Tags enrollments
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enroll [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	courseID := c.Param("id")

	h.LogRequest(c, "Unenrolling", "user_id", userID, "course_id", courseID)

	if err := h.enrollmentService.Unenroll(c.Request.Context(), userID, courseID); err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMyEnrollments lists the caller's enrollments with computed progress
// @Summary My enrollments
// @Tags enrollments
// @Produce json
// @Success 200 {array} models.EnrollmentWithProgress
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListMyEnrollments(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// ===== PROGRESS =====

// GetCourseProgress returns the caller's progress in a course
// @Summary Course progress
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.CourseProgress
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/progress [get]
func (h *EnrollmentHandler) GetCourseProgress(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.CourseProgress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CompleteLesson marks a lesson complete. Repeating the call changes nothing.
// @Summary Complete lesson
// @Tags progress
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} models.CourseProgress
// @Failure 403 {object} ErrorResponse "Not enrolled"
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id}/complete [post]
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	h.toggleLesson(c, true)
}

// UncompleteLesson clears a lesson's completion
// @Summary Uncomplete lesson
// @Tags progress
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} models.CourseProgress
// @Router /lessons/{id}/complete [delete]
func (h *EnrollmentHandler) UncompleteLesson(c *gin.Context) {
	h.toggleLesson(c, false)
}

func (h *EnrollmentHandler) toggleLesson(c *gin.Context, complete bool) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	lessonID := c.Param("id")

	h.LogRequest(c, "Updating lesson progress", "user_id", userID, "lesson_id", lessonID, "complete", complete)

	var (
		progress *models.CourseProgress
		err      error
	)
	if complete {
		progress, err = h.progressService.CompleteLesson(c.Request.Context(), userID, lessonID)
	} else {
		progress, err = h.progressService.UncompleteLesson(c.Request.Context(), userID, lessonID)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
