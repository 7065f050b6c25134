package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// Collection names
const (
	usersCollection       = "users"
	coursesCollection     = "courses"
	modulesCollection     = "modules"
	lessonsCollection     = "lessons"
	enrollmentsCollection = "enrollments"
	commentsCollection    = "comments"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type courseDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description"`
	ImageURL    *string            `bson:"imageUrl,omitempty"`
	Published   bool               `bson:"published"`
	CreatedBy   string             `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type moduleDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	CourseID    string             `bson:"courseId"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Position    int                `bson:"position"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type lessonDoc struct {
	ID              primitive.ObjectID      `bson:"_id"`
	ModuleID        string                  `bson:"moduleId"`
	CourseID        string                  `bson:"courseId"`
	Title           string                  `bson:"title"`
	Content         string                  `bson:"content"`
	VideoURL        *string                 `bson:"videoUrl,omitempty"`
	Resources       []models.LessonResource `bson:"resources"`
	DurationMinutes int                     `bson:"durationMinutes"`
	Position        int                     `bson:"position"`
	CreatedAt       time.Time               `bson:"createdAt"`
	UpdatedAt       time.Time               `bson:"updatedAt"`
}

// progressDoc is one element of the enrollment's nested progress array
type progressDoc struct {
	LessonID    string    `bson:"lessonId"`
	CompletedAt time.Time `bson:"completedAt"`
}

type enrollmentDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserID      string             `bson:"userId"`
	CourseID    string             `bson:"courseId"`
	EnrolledAt  time.Time          `bson:"enrolledAt"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty"`
	Progress    []progressDoc      `bson:"progress"`
}

type commentDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	LessonID   string             `bson:"lessonId"`
	UserID     string             `bson:"userId"`
	AuthorName string             `bson:"authorName"`
	Body       string             `bson:"body"`
	Reply      *string            `bson:"reply,omitempty"`
	RepliedBy  *string            `bson:"repliedBy,omitempty"`
	RepliedAt  *time.Time         `bson:"repliedAt,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

// ===== CONVERSIONS =====

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.UserRole(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (d *courseDoc) toModel() *models.Course {
	return &models.Course{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Slug:        d.Slug,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		Published:   d.Published,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d *moduleDoc) toModel() *models.Module {
	return &models.Module{
		ID:          d.ID.Hex(),
		CourseID:    d.CourseID,
		Title:       d.Title,
		Description: d.Description,
		Position:    d.Position,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d *lessonDoc) toModel() *models.Lesson {
	resources := d.Resources
	if resources == nil {
		resources = []models.LessonResource{}
	}
	return &models.Lesson{
		ID:              d.ID.Hex(),
		ModuleID:        d.ModuleID,
		CourseID:        d.CourseID,
		Title:           d.Title,
		Content:         d.Content,
		VideoURL:        d.VideoURL,
		Resources:       resources,
		DurationMinutes: d.DurationMinutes,
		Position:        d.Position,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (d *enrollmentDoc) toModel() *models.Enrollment {
	e := &models.Enrollment{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		CourseID:    d.CourseID,
		EnrolledAt:  d.EnrolledAt,
		CompletedAt: d.CompletedAt,
		Progress:    progressToModels(d.ID.Hex(), d.Progress),
	}
	return e
}

func progressToModels(enrollmentID string, docs []progressDoc) []models.LessonProgress {
	out := make([]models.LessonProgress, len(docs))
	for i, p := range docs {
		out[i] = models.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     p.LessonID,
			CompletedAt:  p.CompletedAt,
		}
	}
	return out
}

func (d *commentDoc) toModel() *models.Comment {
	return &models.Comment{
		ID:         d.ID.Hex(),
		LessonID:   d.LessonID,
		UserID:     d.UserID,
		AuthorName: d.AuthorName,
		Body:       d.Body,
		Reply:      d.Reply,
		RepliedBy:  d.RepliedBy,
		RepliedAt:  d.RepliedAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
