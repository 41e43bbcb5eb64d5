package models

import "time"

// Notification kinds. Like and comment notifications mirror the
// corresponding interactions; system covers group membership events.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationSystem  = "system"
)

// Notification represents a persisted user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Kind        string    `json:"kind" gorm:"size:20;index"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	PostID      string    `json:"post_id,omitempty" gorm:"index"`    // Mongo ObjectID hex when the event targets a post
	CommentID   string    `json:"comment_id,omitempty"`              // set for comment notifications
	GroupID     string    `json:"group_id,omitempty"`                // set for group membership events
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
