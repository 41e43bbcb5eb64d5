package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxPostContentLength bounds post and comment text.
const MaxPostContentLength = 500

// Post represents a feed post stored in MongoDB.
//
// Likes is a membership set, never a counter: the like count is always
// len(Likes), so concurrent like/unlike cannot drift the count.
// CommentIDs is the append-only ordered comment list.
type Post struct {
	ID         primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID    uint                 `json:"owner_id" bson:"owner_id"`
	Content    string               `json:"content" bson:"content"`
	ImageURL   string               `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Likes      []uint               `json:"likes" bson:"likes"`
	CommentIDs []primitive.ObjectID `json:"comment_ids" bson:"comment_ids"`
	CreatedAt  time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at" bson:"updated_at"`
}

// LikeCount returns the number of distinct users who liked the post
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// LikedBy reports whether userID is in the like set
func (p *Post) LikedBy(userID uint) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content  string `json:"content,omitempty" validate:"omitempty,min=1,max=500"`
	ImageURL string `json:"image_url,omitempty" validate:"omitempty,url"`
}
