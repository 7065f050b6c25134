package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeProgress(t *testing.T) {
	now := time.Now()
	entry := func(id string) LessonProgress {
		return LessonProgress{LessonID: id, CompletedAt: now}
	}

	tests := []struct {
		name          string
		lessons       []string
		entries       []LessonProgress
		wantCompleted int
		wantPercent   int
		wantDone      bool
		wantIDs       []string
	}{
		{
			name:        "no lessons",
			wantIDs:     []string{},
			wantPercent: 0,
		},
		{
			name:    "nothing completed",
			lessons: []string{"a", "b", "c"},
			wantIDs: []string{},
		},
		{
			name:          "one of three rounds to 33",
			lessons:       []string{"a", "b", "c"},
			entries:       []LessonProgress{entry("b")},
			wantCompleted: 1,
			wantPercent:   33,
			wantIDs:       []string{"b"},
		},
		{
			name:          "two of three rounds to 67",
			lessons:       []string{"a", "b", "c"},
			entries:       []LessonProgress{entry("c"), entry("a")},
			wantCompleted: 2,
			wantPercent:   67,
			wantIDs:       []string{"a", "c"},
		},
		{
			name:          "all completed",
			lessons:       []string{"a", "b"},
			entries:       []LessonProgress{entry("a"), entry("b")},
			wantCompleted: 2,
			wantPercent:   100,
			wantDone:      true,
			wantIDs:       []string{"a", "b"},
		},
		{
			name:          "entries for removed lessons are ignored",
			lessons:       []string{"a", "b"},
			entries:       []LessonProgress{entry("a"), entry("gone")},
			wantCompleted: 1,
			wantPercent:   50,
			wantIDs:       []string{"a"},
		},
		{
			name:          "duplicate entries count once",
			lessons:       []string{"a", "b"},
			entries:       []LessonProgress{entry("a"), entry("a")},
			wantCompleted: 1,
			wantPercent:   50,
			wantIDs:       []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress("course-1", tt.lessons, tt.entries)
			assert.Equal(t, "course-1", got.CourseID)
			assert.Equal(t, len(tt.lessons), got.TotalLessons)
			assert.Equal(t, tt.wantCompleted, got.CompletedLessons)
			assert.Equal(t, tt.wantPercent, got.Percentage)
			assert.Equal(t, tt.wantDone, got.Completed)
			assert.Equal(t, tt.wantIDs, got.CompletedLessonIDs)
		})
	}
}

func TestCourseLessonIDs(t *testing.T) {
	course := &Course{
		Modules: []Module{
			{Lessons: []Lesson{{ID: "l1"}, {ID: "l2"}}},
			{},
			{Lessons: []Lesson{{ID: "l3"}}},
		},
	}
	assert.Equal(t, []string{"l1", "l2", "l3"}, course.LessonIDs())
}

func TestUserRoleIsValid(t *testing.T) {
	assert.True(t, RoleStudent.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, UserRole("teacher").IsValid())
}
