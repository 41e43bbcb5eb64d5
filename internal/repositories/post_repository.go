package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmerhub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByOwners(ctx context.Context, ownerIDs []uint, skip, limit int64) ([]models.Post, error)
	CountPostsByOwners(ctx context.Context, ownerIDs []uint) (int64, error)
	UpdatePost(ctx context.Context, id string, content, imageURL string) error
	DeletePost(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID string, userID uint) (*models.Post, error)
	RemoveLike(ctx context.Context, postID string, userID uint) (*models.Post, error)
	AppendComment(ctx context.Context, postID string, commentID primitive.ObjectID) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB with empty like and comment sets
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []uint{}
	}
	if post.CommentIDs == nil {
		post.CommentIDs = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed post id", ErrInvalidID)
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByOwners retrieves posts owned by any of ownerIDs, newest first
func (r *MongoPostRepository) GetPostsByOwners(ctx context.Context, ownerIDs []uint, skip, limit int64) ([]models.Post, error) {
	var posts []models.Post
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": bson.M{"$in": ownerIDs}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPostsByOwners counts posts owned by any of ownerIDs
func (r *MongoPostRepository) CountPostsByOwners(ctx context.Context, ownerIDs []uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"owner_id": bson.M{"$in": ownerIDs}})
}

// UpdatePost updates a post's content (and image, if given) in place
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, content, imageURL string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: malformed post id", ErrInvalidID)
	}

	set := bson.M{
		"content":    content,
		"updated_at": time.Now(),
	}
	if imageURL != "" {
		set["image_url"] = imageURL
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: malformed post id", ErrInvalidID)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddLike inserts userID into the like set. The filter excludes documents
// that already contain the user, so of two concurrent calls exactly one
// matches and the other gets ErrConflict. Returns the updated post.
func (r *MongoPostRepository) AddLike(ctx context.Context, postID string, userID uint) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed post id", ErrInvalidID)
	}

	filter := bson.M{"_id": objID, "likes": bson.M{"$ne": userID}}
	update := bson.M{"$push": bson.M{"likes": userID}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the post is gone or the user already liked it
			if _, getErr := r.GetPostByID(ctx, postID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrConflict
		}
		return nil, err
	}
	return &post, nil
}

// RemoveLike removes userID from the like set; the filter requires the
// user to be present, mirroring AddLike. Returns the updated post.
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID string, userID uint) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed post id", ErrInvalidID)
	}

	filter := bson.M{"_id": objID, "likes": userID}
	update := bson.M{"$pull": bson.M{"likes": userID}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, getErr := r.GetPostByID(ctx, postID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrConflict
		}
		return nil, err
	}
	return &post, nil
}

// AppendComment pushes commentID onto the post's ordered comment list
func (r *MongoPostRepository) AppendComment(ctx context.Context, postID string, commentID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("%w: malformed post id", ErrInvalidID)
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$push": bson.M{"comment_ids": commentID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
