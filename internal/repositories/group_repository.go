package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/farmerhub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GroupRepository defines the interface for community group operations.
// Membership mutations are conditional single-document updates so two
// concurrent joins or approvals cannot both succeed.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupByID(ctx context.Context, id string) (*models.Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListGroups(ctx context.Context, query, visibility string, limit int64) ([]models.Group, error)
	AddMember(ctx context.Context, groupID string, userID uint) error
	RemoveMember(ctx context.Context, groupID string, userID uint) error
	AddJoinRequest(ctx context.Context, groupID string, req models.JoinRequest) error
	ApproveJoinRequest(ctx context.Context, groupID string, userID uint) error
	RemoveJoinRequest(ctx context.Context, groupID string, userID uint) error
	PromoteAdmin(ctx context.Context, groupID string, userID uint) error
}

// MongoGroupRepository implements GroupRepository for MongoDB
type MongoGroupRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupRepository creates a new MongoGroupRepository
func NewMongoGroupRepository(db *mongo.Database) *MongoGroupRepository {
	return &MongoGroupRepository{collection: db.Collection("groups")}
}

func (r *MongoGroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	group.ID = primitive.NewObjectID()
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	if group.AdminIDs == nil {
		group.AdminIDs = []uint{}
	}
	// owner is always a member
	if !group.IsMember(group.OwnerID) {
		group.MemberIDs = append(group.MemberIDs, group.OwnerID)
	}
	_, err := r.collection.InsertOne(ctx, group)
	return err
}

func (r *MongoGroupRepository) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed group id", ErrInvalidID)
	}

	var group models.Group
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *MongoGroupRepository) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *MongoGroupRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug})
	return count > 0, err
}

// ListGroups returns groups filtered by visibility and a name/description
// substring match, newest first
func (r *MongoGroupRepository) ListGroups(ctx context.Context, query, visibility string, limit int64) ([]models.Group, error) {
	filter := bson.M{}
	if visibility == models.GroupPublic || visibility == models.GroupPrivate {
		filter["visibility"] = visibility
	}
	if query != "" {
		regex := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"description": regex},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []models.Group
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AddMember inserts userID into the member set; ErrConflict if already a member
func (r *MongoGroupRepository) AddMember(ctx context.Context, groupID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("%w: malformed group id", ErrInvalidID)
	}

	filter := bson.M{"_id": objID, "member_ids": bson.M{"$ne": userID}}
	update := bson.M{"$push": bson.M{"member_ids": userID}, "$set": bson.M{"updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, getErr := r.GetGroupByID(ctx, groupID); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

// RemoveMember removes userID from the member and admin sets
func (r *MongoGroupRepository) RemoveMember(ctx context.Context, groupID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("%w: malformed group id", ErrInvalidID)
	}

	filter := bson.M{"_id": objID, "member_ids": userID}
	update := bson.M{
		"$pull": bson.M{"member_ids": userID, "admin_ids": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, getErr := r.GetGroupByID(ctx, groupID); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

// AddJoinRequest queues a pending request; ErrConflict when the user is
// already a member or already has one pending
func (r *MongoGroupRepository) AddJoinRequest(ctx context.Context, groupID string, req models.JoinRequest) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("%w: malformed group id", ErrInvalidID)
	}

	req.CreatedAt = time.Now()
	filter := bson.M{
		"_id":                   objID,
		"member_ids":            bson.M{"$ne": req.UserID},
		"join_requests.user_id": bson.M{"$ne": req.UserID},
	}
	update := bson.M{"$push": bson.M{"join_requests": req}, "$set": bson.M{"updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, getErr := r.GetGroupByID(ctx, groupID); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}

// ApproveJoinRequest atomically moves the user from the pending set into
// the member set. The filter requires the pending request, so a concurrent
// approve/deny pair resolves to exactly one winner.
func (r *MongoGroupRepository) ApproveJoinRequest(ctx context.Context, groupID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("%w: malformed group id", ErrInvalidID)
	}

	filter := bson.M{"_id": objID, "join_requests.user_id": userID}
	update := bson.M{
		"$pull":     bson.M{"join_requests": bson.M{"user_id": userID}},
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, getErr := r.GetGroupByID(ctx, groupID); getErr != nil {
			return getErr
		}
		return ErrNotFound
	}
	return nil
}

// RemoveJoinRequest drops a pending request without admitting the user
func (r *MongoGroupRepository) RemoveJoinRequest(ctx context.Context, groupID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("%w: malformed group id", ErrInvalidID)
	}

	filter := bson.M{"_id": objID, "join_requests.user_id": userID}
	update := bson.M{
		"$pull": bson.M{"join_requests": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, getErr := r.GetGroupByID(ctx, groupID); getErr != nil {
			return getErr
		}
		return ErrNotFound
	}
	return nil
}

// PromoteAdmin adds a member to the admin set
func (r *MongoGroupRepository) PromoteAdmin(ctx context.Context, groupID string, userID uint) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("%w: malformed group id", ErrInvalidID)
	}

	filter := bson.M{"_id": objID, "member_ids": userID, "admin_ids": bson.M{"$ne": userID}}
	update := bson.M{"$push": bson.M{"admin_ids": userID}, "$set": bson.M{"updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, getErr := r.GetGroupByID(ctx, groupID); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return nil
}
