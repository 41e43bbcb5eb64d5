package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group visibility values
const (
	GroupPublic  = "public"
	GroupPrivate = "private"
)

// JoinRequest is a pending membership request on a private group,
// keyed by (group, user)
type JoinRequest struct {
	UserID    uint      `json:"user_id" bson:"user_id"`
	Message   string    `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Group represents a community group stored in MongoDB. Members, admins
// and join requests are embedded so membership changes are single-document
// updates.
type Group struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Slug         string             `json:"slug" bson:"slug"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	ImageURL     string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Visibility   string             `json:"visibility" bson:"visibility"`
	OwnerID      uint               `json:"owner_id" bson:"owner_id"`
	AdminIDs     []uint             `json:"admin_ids" bson:"admin_ids"`
	MemberIDs    []uint             `json:"member_ids" bson:"member_ids"`
	JoinRequests []JoinRequest      `json:"join_requests,omitempty" bson:"join_requests,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsMember reports whether userID is in the member set
func (g *Group) IsMember(userID uint) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAdminOrOwner reports whether userID may manage the group
func (g *Group) IsAdminOrOwner(userID uint) bool {
	if g.OwnerID == userID {
		return true
	}
	for _, id := range g.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasPendingRequest reports whether userID already has a join request queued
func (g *Group) HasPendingRequest(userID uint) bool {
	for _, r := range g.JoinRequests {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// CreateGroupRequest defines the request body for creating a group
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url"`
	Visibility  string `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// JoinGroupRequest defines the optional request body when joining a group
type JoinGroupRequest struct {
	Message string `json:"message,omitempty" validate:"omitempty,max=500"`
}
