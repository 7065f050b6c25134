// Package events publishes domain events about learning activity.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventEnrollmentCreated EventType = "lms.enrollment.created"
	EventEnrollmentRemoved EventType = "lms.enrollment.removed"
	EventLessonCompleted   EventType = "lms.lesson.completed"
	EventCourseCompleted   EventType = "lms.course.completed"
	EventCommentCreated    EventType = "lms.comment.created"
	EventCommentReplied    EventType = "lms.comment.replied"
)

// AllEventTypes lists every topic the service publishes to
var AllEventTypes = []EventType{
	EventEnrollmentCreated,
	EventEnrollmentRemoved,
	EventLessonCompleted,
	EventCourseCompleted,
	EventCommentCreated,
	EventCommentReplied,
}

const (
	eventSource  = "lms-service"
	eventVersion = "1.0"
)

type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher delivers events to the configured transport
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

func EnrollmentCreated(enrollmentID, userID, courseID string) *Event {
	return NewEvent(EventEnrollmentCreated, map[string]interface{}{
		"enrollment_id": enrollmentID,
		"user_id":       userID,
		"course_id":     courseID,
	})
}

func EnrollmentRemoved(userID, courseID string) *Event {
	return NewEvent(EventEnrollmentRemoved, map[string]interface{}{
		"user_id":   userID,
		"course_id": courseID,
	})
}

func LessonCompleted(userID, courseID, lessonID string, percentage int) *Event {
	return NewEvent(EventLessonCompleted, map[string]interface{}{
		"user_id":    userID,
		"course_id":  courseID,
		"lesson_id":  lessonID,
		"percentage": percentage,
	})
}

func CourseCompleted(userID, courseID string, completedAt time.Time) *Event {
	return NewEvent(EventCourseCompleted, map[string]interface{}{
		"user_id":      userID,
		"course_id":    courseID,
		"completed_at": completedAt.UTC().Format(time.RFC3339),
	})
}

func CommentCreated(commentID, lessonID, userID string) *Event {
	return NewEvent(EventCommentCreated, map[string]interface{}{
		"comment_id": commentID,
		"lesson_id":  lessonID,
		"user_id":    userID,
	})
}

func CommentReplied(commentID, lessonID, adminID string) *Event {
	return NewEvent(EventCommentReplied, map[string]interface{}{
		"comment_id": commentID,
		"lesson_id":  lessonID,
		"replied_by": adminID,
	})
}
