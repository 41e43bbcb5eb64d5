package engine

import (
	"context"
	"strings"
	"unicode"

	"github.com/farmerhub/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JoinOutcome tells the caller whether a join landed immediately or was
// queued for approval.
type JoinOutcome string

const (
	// JoinedImmediately means the group was public and the user is now a member.
	JoinedImmediately JoinOutcome = "joined"

	// JoinPending means a join request was queued on a private group.
	JoinPending JoinOutcome = "pending"
)

// CreateGroup creates a community group owned by ownerID. The owner is
// always part of the member set.
func (e *Engine) CreateGroup(ctx context.Context, ownerID uint, req models.CreateGroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyContent
	}

	slug, err := e.uniqueSlug(ctx, name)
	if err != nil {
		return nil, internalErr("slug generation failed", err)
	}

	visibility := models.GroupPublic
	if req.Visibility == models.GroupPrivate {
		visibility = models.GroupPrivate
	}

	group := &models.Group{
		Name:        name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Visibility:  visibility,
		OwnerID:     ownerID,
		MemberIDs:   []uint{ownerID},
	}
	if err := e.groups.CreateGroup(ctx, group); err != nil {
		return nil, internalErr("group create failed", err)
	}
	return group, nil
}

// JoinGroup admits the user immediately on a public group. On a private
// group it queues a join request keyed by (group, user); a duplicate
// request is a conflict, not a silent no-op.
func (e *Engine) JoinGroup(ctx context.Context, groupID string, userID uint, message string) (JoinOutcome, error) {
	group, err := e.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return "", e.mapStoreErr(err, ErrGroupNotFound, nil)
	}
	if group.IsMember(userID) {
		return "", ErrAlreadyMember
	}

	if group.Visibility == models.GroupPublic {
		if err := e.groups.AddMember(ctx, groupID, userID); err != nil {
			return "", e.mapStoreErr(err, ErrGroupNotFound, ErrAlreadyMember)
		}
		e.notifyGroupAdmins(ctx, group, userID, "joined the group")
		return JoinedImmediately, nil
	}

	if group.HasPendingRequest(userID) {
		return "", ErrDuplicateRequest
	}
	req := models.JoinRequest{UserID: userID, Message: message}
	if err := e.groups.AddJoinRequest(ctx, groupID, req); err != nil {
		return "", e.mapStoreErr(err, ErrGroupNotFound, ErrDuplicateRequest)
	}
	e.notifyGroupAdmins(ctx, group, userID, "requested to join the group")
	return JoinPending, nil
}

// ApproveJoin moves a pending request into the member set. Owner or admin
// only. Request removal and member insertion are one atomic update.
func (e *Engine) ApproveJoin(ctx context.Context, groupID string, approverID, userID uint) error {
	group, err := e.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return e.mapStoreErr(err, ErrGroupNotFound, nil)
	}
	if !group.IsAdminOrOwner(approverID) {
		return ErrNotGroupAdmin
	}

	if err := e.groups.ApproveJoinRequest(ctx, groupID, userID); err != nil {
		return e.mapStoreErr(err, ErrRequestNotFound, ErrRequestNotFound)
	}

	e.sink.Emit(ctx, Event{
		Recipient: userID,
		Actor:     approverID,
		Kind:      models.NotificationSystem,
		GroupID:   groupID,
		Message:   "your join request was approved",
	})
	return nil
}

// DenyJoin drops a pending request without admitting the user.
func (e *Engine) DenyJoin(ctx context.Context, groupID string, denierID, userID uint) error {
	group, err := e.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return e.mapStoreErr(err, ErrGroupNotFound, nil)
	}
	if !group.IsAdminOrOwner(denierID) {
		return ErrNotGroupAdmin
	}

	if err := e.groups.RemoveJoinRequest(ctx, groupID, userID); err != nil {
		return e.mapStoreErr(err, ErrRequestNotFound, ErrRequestNotFound)
	}

	e.sink.Emit(ctx, Event{
		Recipient: userID,
		Actor:     denierID,
		Kind:      models.NotificationSystem,
		GroupID:   groupID,
		Message:   "your join request was denied",
	})
	return nil
}

// LeaveGroup removes the user from the member (and admin) sets. The owner
// cannot leave; ownership transfer is an admin action outside this core.
func (e *Engine) LeaveGroup(ctx context.Context, groupID string, userID uint) error {
	group, err := e.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return e.mapStoreErr(err, ErrGroupNotFound, nil)
	}
	if group.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	if !group.IsMember(userID) {
		return ErrNotMember
	}

	if err := e.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return e.mapStoreErr(err, ErrGroupNotFound, ErrNotMember)
	}
	return nil
}

// PromoteMember adds a member to the admin set. Owner or admin only.
func (e *Engine) PromoteMember(ctx context.Context, groupID string, actorID, userID uint) error {
	group, err := e.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return e.mapStoreErr(err, ErrGroupNotFound, nil)
	}
	if !group.IsAdminOrOwner(actorID) {
		return ErrNotGroupAdmin
	}
	if !group.IsMember(userID) {
		return ErrNotMember
	}

	if err := e.groups.PromoteAdmin(ctx, groupID, userID); err != nil {
		return e.mapStoreErr(err, ErrGroupNotFound, conflictErr("already a group admin"))
	}
	return nil
}

// notifyGroupAdmins fans a system event out to the owner and every admin,
// best-effort.
func (e *Engine) notifyGroupAdmins(ctx context.Context, group *models.Group, actorID uint, message string) {
	recipients := append([]uint{group.OwnerID}, group.AdminIDs...)
	seen := make(map[uint]bool, len(recipients))
	for _, recipient := range recipients {
		if recipient == actorID || seen[recipient] {
			continue
		}
		seen[recipient] = true
		e.sink.Emit(ctx, Event{
			Recipient: recipient,
			Actor:     actorID,
			Kind:      models.NotificationSystem,
			GroupID:   group.ID.Hex(),
			Message:   message,
		})
	}
}

// uniqueSlug derives a url-friendly slug from the group name, suffixing a
// short random token on collision.
func (e *Engine) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "group"
	}

	exists, err := e.groups.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}

	suffix := uuid.NewString()[:8]
	slug := base + "-" + suffix
	if exists, err = e.groups.SlugExists(ctx, slug); err != nil {
		return "", err
	} else if exists {
		e.log.Warn("slug suffix collision", zap.String("slug", slug))
		slug = base + "-" + uuid.NewString()[:8]
	}
	return slug, nil
}

// slugify lowercases the name and collapses runs of non-alphanumerics
// into single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 50 {
		slug = strings.TrimSuffix(slug[:50], "-")
	}
	return slug
}
