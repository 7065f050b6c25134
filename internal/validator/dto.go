package validator

import "github.com/SAP-F-2025/lms-service/internal/models"

// ===== AUTH =====

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,not_blank,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password_strength,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password_strength,max=72"`
}

// ===== CATALOG =====

type CourseCreateRequest struct {
	Title       string  `json:"title" validate:"required,not_blank,max=200"`
	Slug        string  `json:"slug" validate:"omitempty,course_slug"` // Derived from the title when empty
	Description string  `json:"description" validate:"max=10000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url,max=500"`
}

// CourseUpdateRequest is also how a course gets published
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,not_blank,max=200"`
	Slug        *string `json:"slug" validate:"omitempty,course_slug"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url,max=500"`
	Published   *bool   `json:"published"`
}

type ModuleCreateRequest struct {
	Title       string `json:"title" validate:"required,not_blank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Position    *int   `json:"position" validate:"omitempty,display_order"` // Appended when nil
}

type ModuleUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,not_blank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Position    *int    `json:"position" validate:"omitempty,display_order"`
}

type LessonResourceRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,url,max=500"`
}

type LessonCreateRequest struct {
	Title           string                  `json:"title" validate:"required,not_blank,max=200"`
	Content         string                  `json:"content" validate:"max=100000"`
	VideoURL        *string                 `json:"video_url" validate:"omitempty,url,max=500"`
	Resources       []LessonResourceRequest `json:"resources" validate:"omitempty,max=20,dive"`
	DurationMinutes int                     `json:"duration_minutes" validate:"min=0,max=1440"`
	Position        *int                    `json:"position" validate:"omitempty,display_order"`
}

type LessonUpdateRequest struct {
	Title           *string                 `json:"title" validate:"omitempty,not_blank,max=200"`
	Content         *string                 `json:"content" validate:"omitempty,max=100000"`
	VideoURL        *string                 `json:"video_url" validate:"omitempty,url,max=500"`
	Resources       []LessonResourceRequest `json:"resources" validate:"omitempty,max=20,dive"`
	DurationMinutes *int                    `json:"duration_minutes" validate:"omitempty,min=0,max=1440"`
	Position        *int                    `json:"position" validate:"omitempty,display_order"`
}

// ToLessonResources converts resource requests into stored lesson resources
func ToLessonResources(reqs []LessonResourceRequest) []models.LessonResource {
	out := make([]models.LessonResource, len(reqs))
	for i, r := range reqs {
		out[i] = models.LessonResource{Title: r.Title, URL: r.URL}
	}
	return out
}

// ===== DISCUSSION =====

type CommentRequest struct {
	Body string `json:"body" validate:"required,not_blank,max=2000"`
}

type ReplyRequest struct {
	Reply string `json:"reply" validate:"required,not_blank,max=2000"`
}
