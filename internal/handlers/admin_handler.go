package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  NewBaseHandler(logger),
		adminService: adminService,
	}
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags admin
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (student, admin)"
// @Success 200 {object} services.UserListResponse
// @Failure 400 {object} ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	page, size := parsePage(c)
	params := services.UserListParams{
		Query: c.Query("q"),
		Page:  page,
		Size:  size,
	}
	if roleStr := c.Query("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		if !role.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid role filter",
				Details: roleStr,
			})
			return
		}
		params.Role = &role
	}

	resp, err := h.adminService.ListUsers(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStats returns platform totals
// @Summary Platform statistics
// @Tags admin
// @Produce json
// @Success 200 {object} models.PlatformStats
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportCourseReport downloads per-student progress for a course as XLSX.
// format=json returns the rows instead.
// @Summary Course progress report
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Course ID"
// @Param format query string false "xlsx (default) or json"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /admin/courses/{id}/report [get]
func (h *AdminHandler) ExportCourseReport(c *gin.Context) {
	courseID := c.Param("id")
	h.LogRequest(c, "Exporting progress report", "course_id", courseID)

	if c.Query("format") == "json" {
		rows, err := h.adminService.ProgressReport(c.Request.Context(), courseID)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
		return
	}

	report, err := h.adminService.ExportProgressReport(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
