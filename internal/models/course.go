package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Title       string  `json:"title" gorm:"not null;size:200;index"`
	Slug        string  `json:"slug" gorm:"uniqueIndex;not null;size:200"`
	Description string  `json:"description" gorm:"type:text"`
	ImageURL    *string `json:"image_url" gorm:"size:500"`
	Published   bool    `json:"published" gorm:"not null;default:false;index"`

	// Metadata
	CreatedBy string    `json:"created_by" gorm:"not null;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	LessonCount int `json:"lesson_count" gorm:"-"`
}

type Module struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	CourseID    string    `json:"course_id" gorm:"not null;size:36;index:idx_module_course_position"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description string    `json:"description" gorm:"type:text"`
	Position    int       `json:"position" gorm:"not null;default:0;index:idx_module_course_position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}

// LessonResource is an attachment or external link shown next to a lesson
type LessonResource struct {
	Title string `json:"title" bson:"title"`
	URL   string `json:"url" bson:"url"`
}

type Lesson struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	ModuleID string `json:"module_id" gorm:"not null;size:36;index:idx_lesson_module_position"`
	// CourseID is denormalised from the module so progress can be computed per course
	CourseID        string                              `json:"course_id" gorm:"not null;size:36;index"`
	Title           string                              `json:"title" gorm:"not null;size:200"`
	Content         string                              `json:"content,omitempty" gorm:"type:text"`
	VideoURL        *string                             `json:"video_url" gorm:"size:500"`
	Resources       datatypes.JSONSlice[LessonResource] `json:"resources"`
	DurationMinutes int                                 `json:"duration_minutes" gorm:"not null;default:0"`
	Position        int                                 `json:"position" gorm:"not null;default:0;index:idx_lesson_module_position"`
	CreatedAt       time.Time                           `json:"created_at"`
	UpdatedAt       time.Time                           `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (Module) TableName() string {
	return "modules"
}

func (Lesson) TableName() string {
	return "lessons"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// LessonIDs returns the ids of every lesson of the course in module/lesson order.
// Modules must be loaded.
func (c *Course) LessonIDs() []string {
	var ids []string
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
