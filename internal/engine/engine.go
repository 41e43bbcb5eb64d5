// Package engine implements the social interaction core: the follow
// graph, post/comment/like mutation rules, group membership workflow and
// the notification side-effects they trigger.
//
// The engine owns no state. Every operation takes the acting user id
// explicitly (identity resolution belongs to the transport) and is
// applied as one conditional update against the owning store, so two
// concurrent conflicting mutations resolve to exactly one winner.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/farmerhub/backend/internal/models"
	"github.com/farmerhub/backend/internal/repositories"
	"go.uber.org/zap"
)

// Engine orchestrates the identity directory, the content store and the
// notification sink.
type Engine struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	groups   repositories.GroupRepository
	sink     Sink
	log      *zap.Logger
}

// New creates an Engine.
func New(
	users repositories.UserRepository,
	follows repositories.FollowRepository,
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	groups repositories.GroupRepository,
	sink Sink,
	log *zap.Logger,
) *Engine {
	return &Engine{
		users:    users,
		follows:  follows,
		posts:    posts,
		comments: comments,
		groups:   groups,
		sink:     sink,
		log:      log,
	}
}

// Follow records the actor → target edge. The edge is one row guarded by
// a unique index; both followers and following views read from it.
func (e *Engine) Follow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	if _, err := e.users.GetUserByID(targetID); err != nil {
		return e.mapStoreErr(err, ErrUserNotFound, nil)
	}

	following, err := e.follows.IsFollowing(actorID, targetID)
	if err != nil {
		return internalErr("follow lookup failed", err)
	}
	if following {
		return ErrAlreadyFollowing
	}

	follow := &models.Follow{FollowerID: actorID, FollowingID: targetID}
	if err := e.follows.CreateFollow(follow); err != nil {
		return e.mapStoreErr(err, ErrUserNotFound, ErrAlreadyFollowing)
	}

	e.bumpFollowCounts(actorID, targetID, true)
	return nil
}

// Unfollow removes the actor → target edge.
func (e *Engine) Unfollow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	if _, err := e.users.GetUserByID(targetID); err != nil {
		return e.mapStoreErr(err, ErrUserNotFound, nil)
	}

	if err := e.follows.DeleteFollow(actorID, targetID); err != nil {
		return e.mapStoreErr(err, ErrNotFollowing, ErrNotFollowing)
	}

	e.bumpFollowCounts(actorID, targetID, false)
	return nil
}

// ListFollowers returns userID's followers in edge insertion order.
func (e *Engine) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := e.users.GetUserByID(userID); err != nil {
		return nil, e.mapStoreErr(err, ErrUserNotFound, nil)
	}
	users, err := e.follows.GetFollowers(userID)
	if err != nil {
		return nil, internalErr("followers lookup failed", err)
	}
	return users, nil
}

// ListFollowing returns the users userID follows, in edge insertion order.
func (e *Engine) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := e.users.GetUserByID(userID); err != nil {
		return nil, e.mapStoreErr(err, ErrUserNotFound, nil)
	}
	users, err := e.follows.GetFollowing(userID)
	if err != nil {
		return nil, internalErr("following lookup failed", err)
	}
	return users, nil
}

// CreatePost creates a post owned by ownerID with empty like and comment
// sets.
func (e *Engine) CreatePost(ctx context.Context, ownerID uint, content, imageURL string) (*models.Post, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		OwnerID:  ownerID,
		Content:  content,
		ImageURL: imageURL,
	}
	if err := e.posts.CreatePost(ctx, post); err != nil {
		return nil, internalErr("post create failed", err)
	}
	return post, nil
}

// GetPost returns a single post.
func (e *Engine) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := e.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, e.mapStoreErr(err, ErrPostNotFound, nil)
	}
	return post, nil
}

// EditPost updates a post in place. Owner only. An empty content or
// image URL leaves that field unchanged, so an image-only or text-only
// update is valid; non-empty content is validated like new content.
func (e *Engine) EditPost(ctx context.Context, postID string, ownerID uint, content, imageURL string) (*models.Post, error) {
	post, err := e.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, e.mapStoreErr(err, ErrPostNotFound, nil)
	}
	if post.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	if content == "" {
		content = post.Content
	} else {
		content, err = validateContent(content)
		if err != nil {
			return nil, err
		}
	}
	if imageURL == "" {
		imageURL = post.ImageURL
	}

	if err := e.posts.UpdatePost(ctx, postID, content, imageURL); err != nil {
		return nil, e.mapStoreErr(err, ErrPostNotFound, nil)
	}
	return e.GetPost(ctx, postID)
}

// DeletePost removes a post. Owner only. Notifications and comments
// referencing the post are cleaned up best-effort: their removal never
// fails the delete.
func (e *Engine) DeletePost(ctx context.Context, postID string, ownerID uint) error {
	post, err := e.posts.GetPostByID(ctx, postID)
	if err != nil {
		return e.mapStoreErr(err, ErrPostNotFound, nil)
	}
	if post.OwnerID != ownerID {
		return ErrNotOwner
	}

	if err := e.posts.DeletePost(ctx, postID); err != nil {
		return e.mapStoreErr(err, ErrPostNotFound, nil)
	}

	e.sink.DropPost(ctx, postID)
	if err := e.comments.DeleteByPostID(ctx, postID); err != nil {
		e.log.Warn("comment cleanup failed", zap.String("post_id", postID), zap.Error(err))
	}
	return nil
}

// Like adds userID to the post's like set and returns the resulting like
// count. The membership test and the insert are one conditional update, so
// two concurrent likes from the same user cannot both succeed. No
// notification is emitted when the liker owns the post.
func (e *Engine) Like(ctx context.Context, postID string, userID uint) (int, error) {
	post, err := e.posts.AddLike(ctx, postID, userID)
	if err != nil {
		return 0, e.mapStoreErr(err, ErrPostNotFound, ErrAlreadyLiked)
	}

	if post.OwnerID != userID {
		e.sink.Emit(ctx, Event{
			Recipient: post.OwnerID,
			Actor:     userID,
			Kind:      models.NotificationLike,
			PostID:    postID,
			Message:   "liked your post",
		})
	}
	return post.LikeCount(), nil
}

// Unlike removes userID from the post's like set and returns the
// resulting like count. Any like notification previously emitted for this
// (owner, actor, post) triple is revoked so notification existence keeps
// mirroring like existence.
func (e *Engine) Unlike(ctx context.Context, postID string, userID uint) (int, error) {
	post, err := e.posts.RemoveLike(ctx, postID, userID)
	if err != nil {
		return 0, e.mapStoreErr(err, ErrPostNotFound, ErrNotLiked)
	}

	if post.OwnerID != userID {
		e.sink.Revoke(ctx, Event{
			Recipient: post.OwnerID,
			Actor:     userID,
			Kind:      models.NotificationLike,
			PostID:    postID,
		})
	}
	return post.LikeCount(), nil
}

// Comment appends a comment to the post's ordered comment list and
// notifies the post owner unless they wrote the comment themselves.
func (e *Engine) Comment(ctx context.Context, postID string, authorID uint, text string) (*models.Comment, error) {
	text, err := validateContent(text)
	if err != nil {
		return nil, err
	}

	post, err := e.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, e.mapStoreErr(err, ErrPostNotFound, nil)
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: authorID,
		Text:     text,
	}
	if err := e.comments.CreateComment(ctx, comment); err != nil {
		return nil, internalErr("comment create failed", err)
	}
	if err := e.posts.AppendComment(ctx, postID, comment.ID); err != nil {
		return nil, e.mapStoreErr(err, ErrPostNotFound, nil)
	}

	if post.OwnerID != authorID {
		e.sink.Emit(ctx, Event{
			Recipient: post.OwnerID,
			Actor:     authorID,
			Kind:      models.NotificationComment,
			PostID:    postID,
			CommentID: comment.ID.Hex(),
			Message:   "commented on your post",
		})
	}
	return comment, nil
}

// ListComments returns a post's comments in insertion order.
func (e *Engine) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := e.posts.GetPostByID(ctx, postID); err != nil {
		return nil, e.mapStoreErr(err, ErrPostNotFound, nil)
	}
	comments, err := e.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, internalErr("comment lookup failed", err)
	}
	return comments, nil
}

// bumpFollowCounts keeps the denormalized user counters in step with the
// edge set. Best-effort: the edge row is authoritative.
func (e *Engine) bumpFollowCounts(actorID, targetID uint, followed bool) {
	var err error
	if followed {
		err = errors.Join(
			e.users.IncrementFollowingCount(actorID),
			e.users.IncrementFollowersCount(targetID),
		)
	} else {
		err = errors.Join(
			e.users.DecrementFollowingCount(actorID),
			e.users.DecrementFollowersCount(targetID),
		)
	}
	if err != nil {
		e.log.Warn("follow count update failed",
			zap.Uint("actor", actorID),
			zap.Uint("target", targetID),
			zap.Error(err))
	}
}

// mapStoreErr translates repository sentinels into the engine taxonomy.
func (e *Engine) mapStoreErr(err error, notFound, conflict *Error) error {
	switch {
	case errors.Is(err, repositories.ErrInvalidID):
		return ErrMalformedID
	case errors.Is(err, repositories.ErrNotFound):
		if notFound != nil {
			return notFound
		}
	case errors.Is(err, repositories.ErrConflict):
		if conflict != nil {
			return conflict
		}
	}
	return internalErr("store operation failed", err)
}

// validateContent trims and bounds post/comment text.
func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > models.MaxPostContentLength {
		return "", fmt.Errorf("%w (max %d)", ErrContentTooLong, models.MaxPostContentLength)
	}
	return content, nil
}
