package engine

import (
	"context"
	"math"

	"github.com/farmerhub/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

// Feed pagination bounds. Limit is clamped into [MinFeedLimit,
// MaxFeedLimit] with DefaultFeedLimit when the caller passes zero; page is
// clamped to >= 1.
const (
	MinFeedLimit     = 5
	MaxFeedLimit     = 50
	DefaultFeedLimit = 20
)

// FeedPost is a post enriched with its author and the caller's like state.
type FeedPost struct {
	models.Post
	Author       models.UserCompact `json:"author"`
	LikeCount    int                `json:"like_count"`
	CommentCount int                `json:"comment_count"`
	IsLiked      bool               `json:"is_liked"`
}

// FeedPage is one page of the caller's feed.
type FeedPage struct {
	Posts       []FeedPost `json:"posts"`
	Page        int        `json:"page"`
	Limit       int        `json:"limit"`
	TotalItems  int64      `json:"total_items"`
	TotalPages  int        `json:"total_pages"`
	HasNext     bool       `json:"has_next"`
	HasPrevious bool       `json:"has_previous"`
}

// ClampFeedWindow normalizes caller-supplied pagination values.
func ClampFeedWindow(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit == 0:
		limit = DefaultFeedLimit
	case limit < MinFeedLimit:
		limit = MinFeedLimit
	case limit > MaxFeedLimit:
		limit = MaxFeedLimit
	}
	return page, limit
}

// GetFeed assembles the caller's feed: posts owned by the users they
// follow plus their own, newest first. Read-only: it reflects the follow
// graph as of this call and mutates nothing.
func (e *Engine) GetFeed(ctx context.Context, userID uint, page, limit int) (*FeedPage, error) {
	page, limit = ClampFeedWindow(page, limit)

	followingIDs, err := e.follows.GetFollowingIDs(userID)
	if err != nil {
		return nil, internalErr("follow graph lookup failed", err)
	}
	ownerIDs := append(followingIDs, userID)

	skip := int64((page - 1) * limit)

	var (
		posts []models.Post
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = e.posts.GetPostsByOwners(gctx, ownerIDs, skip, int64(limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = e.posts.CountPostsByOwners(gctx, ownerIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalErr("feed query failed", err)
	}

	// Hydrate authors once per distinct owner
	authors := make(map[uint]models.UserCompact)
	for _, p := range posts {
		if _, ok := authors[p.OwnerID]; ok {
			continue
		}
		owner, err := e.users.GetUserByID(p.OwnerID)
		if err != nil {
			// author deleted out-of-band; keep the post with a bare id
			authors[p.OwnerID] = models.UserCompact{ID: p.OwnerID}
			continue
		}
		authors[p.OwnerID] = owner.ToCompact()
	}

	feedPosts := make([]FeedPost, len(posts))
	for i, p := range posts {
		feedPosts[i] = FeedPost{
			Post:         p,
			Author:       authors[p.OwnerID],
			LikeCount:    p.LikeCount(),
			CommentCount: len(p.CommentIDs),
			IsLiked:      p.LikedBy(userID),
		}
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return &FeedPage{
		Posts:       feedPosts,
		Page:        page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}
