package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	LessonID   string `json:"lesson_id" gorm:"not null;size:36;index:idx_comment_lesson_created"`
	UserID     string `json:"user_id" gorm:"not null;size:36;index"`
	AuthorName string `json:"author_name" gorm:"not null;size:100"`
	Body       string `json:"body" gorm:"type:text;not null"`

	// Admin reply
	Reply     *string    `json:"reply"`
	RepliedBy *string    `json:"replied_by" gorm:"size:36"`
	RepliedAt *time.Time `json:"replied_at"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_comment_lesson_created"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Comment) HasReply() bool {
	return c.Reply != nil && *c.Reply != ""
}
