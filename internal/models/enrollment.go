package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	UserID      string     `json:"user_id" gorm:"not null;size:36;uniqueIndex:idx_enrollment_user_course"`
	CourseID    string     `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_enrollment_user_course;index"`
	EnrolledAt  time.Time  `json:"enrolled_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`

	// Relations
	Course   *Course          `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Progress []LessonProgress `json:"progress" gorm:"foreignKey:EnrollmentID"`
}

// LessonProgress records that the enrolled user finished one lesson
type LessonProgress struct {
	ID           string    `json:"-" gorm:"primaryKey;size:36"`
	EnrollmentID string    `json:"-" gorm:"not null;size:36;uniqueIndex:idx_progress_enrollment_lesson"`
	LessonID     string    `json:"lesson_id" gorm:"not null;size:36;uniqueIndex:idx_progress_enrollment_lesson;index"`
	CompletedAt  time.Time `json:"completed_at" gorm:"not null"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// CourseProgress is the computed completion state of one enrollment
type CourseProgress struct {
	CourseID           string     `json:"course_id"`
	TotalLessons       int        `json:"total_lessons"`
	CompletedLessons   int        `json:"completed_lessons"`
	Percentage         int        `json:"percentage"`
	CompletedLessonIDs []string   `json:"completed_lesson_ids"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// ComputeProgress derives course completion from the lessons currently in the
// course and the progress entries of an enrollment. Entries for lessons that
// are no longer part of the course are ignored.
func ComputeProgress(courseID string, lessonIDs []string, entries []LessonProgress) *CourseProgress {
	inCourse := make(map[string]struct{}, len(lessonIDs))
	for _, id := range lessonIDs {
		inCourse[id] = struct{}{}
	}

	done := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := inCourse[e.LessonID]; ok {
			done[e.LessonID] = struct{}{}
		}
	}

	completedIDs := make([]string, 0, len(done))
	for _, id := range lessonIDs {
		if _, ok := done[id]; ok {
			completedIDs = append(completedIDs, id)
		}
	}

	progress := &CourseProgress{
		CourseID:           courseID,
		TotalLessons:       len(lessonIDs),
		CompletedLessons:   len(completedIDs),
		CompletedLessonIDs: completedIDs,
	}
	if progress.TotalLessons > 0 {
		progress.Percentage = int(math.Round(float64(progress.CompletedLessons) / float64(progress.TotalLessons) * 100))
		progress.Completed = progress.CompletedLessons == progress.TotalLessons
	}
	return progress
}

// EnrollmentWithProgress pairs an enrollment with its computed progress
type EnrollmentWithProgress struct {
	*Enrollment
	Summary *CourseProgress `json:"summary"`
}
