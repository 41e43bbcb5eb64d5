package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/farmerhub/backend/internal/models"
	"github.com/farmerhub/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They honor the same sentinel contract as the
// real stores (repositories.ErrNotFound / ErrConflict) and guard state
// with a mutex so the concurrency tests are meaningful.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[uint]*models.User)}
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetUserByFirebaseUID(uid string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.FirebaseUID == uid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) DeleteUser(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) SearchUsers(query string) ([]models.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) adjust(id uint, followers, following int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.FollowersCount += followers
		u.FollowingCount += following
	}
	return nil
}

func (r *fakeUserRepo) IncrementFollowersCount(id uint) error { return r.adjust(id, 1, 0) }
func (r *fakeUserRepo) DecrementFollowersCount(id uint) error { return r.adjust(id, -1, 0) }
func (r *fakeUserRepo) IncrementFollowingCount(id uint) error { return r.adjust(id, 0, 1) }
func (r *fakeUserRepo) DecrementFollowingCount(id uint) error { return r.adjust(id, 0, -1) }

type edge struct {
	follower, following uint
}

type fakeFollowRepo struct {
	mu    sync.Mutex
	users *fakeUserRepo
	edges []edge // insertion order
}

func newFakeFollowRepo(users *fakeUserRepo) *fakeFollowRepo {
	return &fakeFollowRepo{users: users}
}

func (r *fakeFollowRepo) CreateFollow(follow *models.Follow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.follower == follow.FollowerID && e.following == follow.FollowingID {
			return repositories.ErrConflict
		}
	}
	r.edges = append(r.edges, edge{follow.FollowerID, follow.FollowingID})
	return nil
}

func (r *fakeFollowRepo) DeleteFollow(followerID, followingID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.edges {
		if e.follower == followerID && e.following == followingID {
			r.edges = append(r.edges[:i], r.edges[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeFollowRepo) IsFollowing(followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if e.follower == followerID && e.following == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFollowRepo) GetFollowers(userID uint) ([]models.User, error) {
	r.mu.Lock()
	ids := []uint{}
	for _, e := range r.edges {
		if e.following == userID {
			ids = append(ids, e.follower)
		}
	}
	r.mu.Unlock()
	return r.resolve(ids)
}

func (r *fakeFollowRepo) GetFollowing(userID uint) ([]models.User, error) {
	r.mu.Lock()
	ids := []uint{}
	for _, e := range r.edges {
		if e.follower == userID {
			ids = append(ids, e.following)
		}
	}
	r.mu.Unlock()
	return r.resolve(ids)
}

func (r *fakeFollowRepo) resolve(ids []uint) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, err := r.users.GetUserByID(id); err == nil {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *fakeFollowRepo) GetFollowingIDs(userID uint) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []uint{}
	for _, e := range r.edges {
		if e.follower == userID {
			ids = append(ids, e.following)
		}
	}
	return ids, nil
}

func (r *fakeFollowRepo) GetFollowersCount(userID uint) (int64, error) {
	users, _ := r.GetFollowers(userID)
	return int64(len(users)), nil
}

func (r *fakeFollowRepo) GetFollowingCount(userID uint) (int64, error) {
	users, _ := r.GetFollowing(userID)
	return int64(len(users)), nil
}

type fakePostRepo struct {
	mu    sync.Mutex
	seq   int
	posts map[string]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	// strictly increasing timestamps so feed ordering is deterministic
	r.seq++
	post.CreatedAt = time.Unix(int64(r.seq), 0)
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []uint{}
	}
	if post.CommentIDs == nil {
		post.CommentIDs = []primitive.ObjectID{}
	}
	cp := *post
	r.posts[post.ID.Hex()] = &cp
	return nil
}

// checkHexID mirrors the Mongo repositories' id contract: a string that
// does not parse as ObjectID hex is ErrInvalidID, not ErrNotFound.
func checkHexID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return repositories.ErrInvalidID
	}
	return nil
}

func (r *fakePostRepo) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if err := checkHexID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := clonePost(p)
	return &cp, nil
}

func (r *fakePostRepo) GetPostsByOwners(ctx context.Context, ownerIDs []uint, skip, limit int64) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := make(map[uint]bool)
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var out []models.Post
	for _, p := range r.posts {
		if owners[p.OwnerID] {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return nil, nil
	}
	out = out[skip:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) CountPostsByOwners(ctx context.Context, ownerIDs []uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owners := make(map[uint]bool)
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var n int64
	for _, p := range r.posts {
		if owners[p.OwnerID] {
			n++
		}
	}
	return n, nil
}

func (r *fakePostRepo) UpdatePost(ctx context.Context, id string, content, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Content = content
	if imageURL != "" {
		p.ImageURL = imageURL
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (r *fakePostRepo) DeletePost(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) AddLike(ctx context.Context, postID string, userID uint) (*models.Post, error) {
	if err := checkHexID(postID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for _, id := range p.Likes {
		if id == userID {
			return nil, repositories.ErrConflict
		}
	}
	p.Likes = append(p.Likes, userID)
	cp := clonePost(p)
	return &cp, nil
}

func (r *fakePostRepo) RemoveLike(ctx context.Context, postID string, userID uint) (*models.Post, error) {
	if err := checkHexID(postID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			cp := clonePost(p)
			return &cp, nil
		}
	}
	return nil, repositories.ErrConflict
}

func (r *fakePostRepo) AppendComment(ctx context.Context, postID string, commentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.CommentIDs = append(p.CommentIDs, commentID)
	return nil
}

func clonePost(p *models.Post) models.Post {
	cp := *p
	cp.Likes = append([]uint(nil), p.Likes...)
	cp.CommentIDs = append([]primitive.ObjectID(nil), p.CommentIDs...)
	return cp
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments {
		if c.ID.Hex() == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCommentRepo) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for _, c := range r.comments {
		if c.PostID.Hex() == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) DeleteByPostID(ctx context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.comments[:0]
	for _, c := range r.comments {
		if c.PostID.Hex() != postID {
			kept = append(kept, c)
		}
	}
	r.comments = kept
	return nil
}

type fakeGroupRepo struct {
	mu     sync.Mutex
	groups map[string]*models.Group
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[string]*models.Group)}
}

func (r *fakeGroupRepo) CreateGroup(ctx context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	group.ID = primitive.NewObjectID()
	group.CreatedAt = time.Now()
	if group.AdminIDs == nil {
		group.AdminIDs = []uint{}
	}
	if !group.IsMember(group.OwnerID) {
		group.MemberIDs = append(group.MemberIDs, group.OwnerID)
	}
	cp := cloneGroup(group)
	r.groups[group.ID.Hex()] = &cp
	return nil
}

func (r *fakeGroupRepo) GetGroupByID(ctx context.Context, id string) (*models.Group, error) {
	if err := checkHexID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := cloneGroup(g)
	return &cp, nil
}

func (r *fakeGroupRepo) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		if g.Slug == slug {
			cp := cloneGroup(g)
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeGroupRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetGroupBySlug(ctx, slug)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeGroupRepo) ListGroups(ctx context.Context, query, visibility string, limit int64) ([]models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Group
	for _, g := range r.groups {
		if visibility != "" && g.Visibility != visibility {
			continue
		}
		out = append(out, cloneGroup(g))
	}
	return out, nil
}

func (r *fakeGroupRepo) AddMember(ctx context.Context, groupID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return repositories.ErrNotFound
	}
	if g.IsMember(userID) {
		return repositories.ErrConflict
	}
	g.MemberIDs = append(g.MemberIDs, userID)
	return nil
}

func (r *fakeGroupRepo) RemoveMember(ctx context.Context, groupID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return repositories.ErrNotFound
	}
	if !g.IsMember(userID) {
		return repositories.ErrConflict
	}
	g.MemberIDs = removeUint(g.MemberIDs, userID)
	g.AdminIDs = removeUint(g.AdminIDs, userID)
	return nil
}

func (r *fakeGroupRepo) AddJoinRequest(ctx context.Context, groupID string, req models.JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return repositories.ErrNotFound
	}
	if g.IsMember(req.UserID) || g.HasPendingRequest(req.UserID) {
		return repositories.ErrConflict
	}
	req.CreatedAt = time.Now()
	g.JoinRequests = append(g.JoinRequests, req)
	return nil
}

func (r *fakeGroupRepo) ApproveJoinRequest(ctx context.Context, groupID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, req := range g.JoinRequests {
		if req.UserID == userID {
			g.JoinRequests = append(g.JoinRequests[:i], g.JoinRequests[i+1:]...)
			if !g.IsMember(userID) {
				g.MemberIDs = append(g.MemberIDs, userID)
			}
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeGroupRepo) RemoveJoinRequest(ctx context.Context, groupID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, req := range g.JoinRequests {
		if req.UserID == userID {
			g.JoinRequests = append(g.JoinRequests[:i], g.JoinRequests[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeGroupRepo) PromoteAdmin(ctx context.Context, groupID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return repositories.ErrNotFound
	}
	if !g.IsMember(userID) {
		return repositories.ErrConflict
	}
	for _, id := range g.AdminIDs {
		if id == userID {
			return repositories.ErrConflict
		}
	}
	g.AdminIDs = append(g.AdminIDs, userID)
	return nil
}

func cloneGroup(g *models.Group) models.Group {
	cp := *g
	cp.AdminIDs = append([]uint(nil), g.AdminIDs...)
	cp.MemberIDs = append([]uint(nil), g.MemberIDs...)
	cp.JoinRequests = append([]models.JoinRequest(nil), g.JoinRequests...)
	return cp
}

func removeUint(s []uint, v uint) []uint {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// recordingSink captures events synchronously for assertions.
type recordingSink struct {
	mu      sync.Mutex
	emitted []Event
	revoked []Event
	dropped []string
}

func (s *recordingSink) Emit(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted = append(s.emitted, ev)
}

func (s *recordingSink) Revoke(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = append(s.revoked, ev)
}

func (s *recordingSink) DropPost(ctx context.Context, postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = append(s.dropped, postID)
}

func (s *recordingSink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.emitted...)
}

func (s *recordingSink) revocations() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.revoked...)
}
