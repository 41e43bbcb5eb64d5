package repositories

import (
	"context"
	"time"

	"github.com/farmerhub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QARepository defines the interface for the farming Q&A lookup
type QARepository interface {
	CreateQA(ctx context.Context, qa *models.QA) error
	Search(ctx context.Context, question string) ([]models.QA, error)
}

// MongoQARepository implements QARepository for MongoDB using a text index
// over question and answer
type MongoQARepository struct {
	collection *mongo.Collection
}

// NewMongoQARepository creates a new MongoQARepository and ensures the
// text index exists
func NewMongoQARepository(ctx context.Context, db *mongo.Database) (*MongoQARepository, error) {
	r := &MongoQARepository{collection: db.Collection("qa")}

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "question", Value: "text"},
			{Key: "answer", Value: "text"},
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateQA inserts a new Q&A entry
func (r *MongoQARepository) CreateQA(ctx context.Context, qa *models.QA) error {
	qa.ID = primitive.NewObjectID()
	qa.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, qa)
	return err
}

// Search runs a full-text search and returns matches best-first
func (r *MongoQARepository) Search(ctx context.Context, question string) ([]models.QA, error) {
	filter := bson.M{"$text": bson.M{"$search": question}}
	findOptions := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []models.QA
	if err = cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
