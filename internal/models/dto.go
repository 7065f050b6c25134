package models

import (
	"time"
)

// ===== SUMMARY DTOs =====

type PlatformStats struct {
	TotalUsers           int64 `json:"total_users"`
	TotalCourses         int64 `json:"total_courses"`
	TotalLessons         int64 `json:"total_lessons"`
	TotalEnrollments     int64 `json:"total_enrollments"`
	CompletedEnrollments int64 `json:"completed_enrollments"`
	TotalComments        int64 `json:"total_comments"`
}

// ProgressReportRow is one line of the per-course progress export
type ProgressReportRow struct {
	UserID           string     `json:"user_id"`
	UserName         string     `json:"user_name"`
	Email            string     `json:"email"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	CompletedLessons int        `json:"completed_lessons"`
	TotalLessons     int        `json:"total_lessons"`
	Percentage       int        `json:"percentage"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

type ErrorResponse struct {
	Error            string                    `json:"error,omitempty"`
	Message          string                    `json:"message"`
	Details          interface{}               `json:"details,omitempty"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
