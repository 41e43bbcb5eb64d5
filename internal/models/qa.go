package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QA is a curated question/answer pair used by the farming Q&A lookup.
// Entries are matched against incoming questions via a Mongo text index.
type QA struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Question  string             `json:"question" bson:"question"`
	Answer    string             `json:"answer" bson:"answer"`
	Score     float64            `json:"score,omitempty" bson:"score,omitempty"` // text search score, populated on query results
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateQARequest defines the request body for adding a Q&A entry
type CreateQARequest struct {
	Question string `json:"question" validate:"required,min=3,max=500"`
	Answer   string `json:"answer" validate:"required,min=1,max=2000"`
}

// QueryQARequest defines the request body for querying the Q&A lookup
type QueryQARequest struct {
	Question string `json:"question" validate:"required,min=3,max=500"`
}
