package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// CourseHandler serves the course, module and lesson tree
type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// ListCourses lists the catalog
// @Summary List courses
// @Description Published courses, paginated. Admins may pass all=true to include drafts.
// @Tags courses
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search in title and description"
// @Param all query bool false "Include unpublished courses (admin only)"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	page, size := parsePage(c)
	includeAll, _ := strconv.ParseBool(c.Query("all"))

	resp, err := h.courseService.List(c.Request.Context(), h.viewer(c), services.CourseListParams{
		Query:              c.Query("q"),
		Page:               page,
		Size:               size,
		IncludeUnpublished: includeAll,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCourse returns a course by id or slug with its ordered modules and lessons
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID or slug"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseService.Get(c.Request.Context(), h.viewer(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// CreateCourse creates a draft course
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param body body services.CreateCourseRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	adminID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating course", "title", req.Title)

	course, err := h.courseService.Create(c.Request.Context(), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// UpdateCourse updates a course. Setting published=true requires at least one lesson.
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param body body services.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", id)

	course, err := h.courseService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes a course with everything under it
// @Summary Delete course
// @Tags courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting course", "course_id", id)

	if err := h.courseService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== MODULES =====

func (h *CourseHandler) CreateModule(c *gin.Context) {
	courseID := c.Param("id")

	var req services.CreateModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating module", "course_id", courseID)

	module, err := h.courseService.CreateModule(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

func (h *CourseHandler) UpdateModule(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateModuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	module, err := h.courseService.UpdateModule(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

func (h *CourseHandler) DeleteModule(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting module", "module_id", id)

	if err := h.courseService.DeleteModule(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== LESSONS =====

func (h *CourseHandler) CreateLesson(c *gin.Context) {
	moduleID := c.Param("id")

	var req services.CreateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating lesson", "module_id", moduleID)

	lesson, err := h.courseService.CreateLesson(c.Request.Context(), moduleID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}

// GetLesson returns lesson content to admins and enrolled students
// @Summary Get lesson
// @Tags lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} models.Lesson
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [get]
func (h *CourseHandler) GetLesson(c *gin.Context) {
	lesson, err := h.courseService.GetLesson(c.Request.Context(), h.viewer(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.courseService.UpdateLesson(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting lesson", "lesson_id", id)

	if err := h.courseService.DeleteLesson(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
