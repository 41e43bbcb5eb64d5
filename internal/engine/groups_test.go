package engine

import (
	"context"
	"testing"

	"github.com/farmerhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup_OwnerIsMemberAndSlugGenerated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")

	group, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{
		Name: "Organic Rice Growers!",
	})
	require.NoError(t, err)
	assert.Equal(t, "organic-rice-growers", group.Slug)
	assert.Equal(t, models.GroupPublic, group.Visibility)
	assert.True(t, group.IsMember(owner))
}

func TestCreateGroup_SlugCollisionGetsSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")

	first, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "Dairy Co-op"})
	require.NoError(t, err)
	second, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "Dairy Co-op"})
	require.NoError(t, err)

	assert.Equal(t, "dairy-co-op", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, "dairy-co-op-")
}

func TestJoinGroup_PublicJoinsImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")
	joiner := f.addUser(t, "joiner")

	group, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "Open Field"})
	require.NoError(t, err)

	outcome, err := f.engine.JoinGroup(ctx, group.ID.Hex(), joiner, "")
	require.NoError(t, err)
	assert.Equal(t, JoinedImmediately, outcome)

	got, err := f.groups.GetGroupByID(ctx, group.ID.Hex())
	require.NoError(t, err)
	assert.True(t, got.IsMember(joiner))

	// owner was notified
	events := f.sink.events()
	require.Len(t, events, 1)
	assert.Equal(t, owner, events[0].Recipient)
	assert.Equal(t, models.NotificationSystem, events[0].Kind)

	// joining again is a conflict
	_, err = f.engine.JoinGroup(ctx, group.ID.Hex(), joiner, "")
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestJoinGroup_PrivateQueuesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")
	joiner := f.addUser(t, "joiner")

	group, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{
		Name:       "Seed Savers",
		Visibility: models.GroupPrivate,
	})
	require.NoError(t, err)
	id := group.ID.Hex()

	outcome, err := f.engine.JoinGroup(ctx, id, joiner, "please let me in")
	require.NoError(t, err)
	assert.Equal(t, JoinPending, outcome)

	got, err := f.groups.GetGroupByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsMember(joiner))
	assert.True(t, got.HasPendingRequest(joiner))

	// duplicate request is rejected, not silently absorbed
	_, err = f.engine.JoinGroup(ctx, id, joiner, "again")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestApproveJoin_MovesRequestIntoMemberSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")
	joiner := f.addUser(t, "joiner")
	outsider := f.addUser(t, "outsider")

	group, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{
		Name:       "Seed Savers",
		Visibility: models.GroupPrivate,
	})
	require.NoError(t, err)
	id := group.ID.Hex()

	_, err = f.engine.JoinGroup(ctx, id, joiner, "")
	require.NoError(t, err)

	// only owner/admin may approve
	err = f.engine.ApproveJoin(ctx, id, outsider, joiner)
	assert.ErrorIs(t, err, ErrNotGroupAdmin)

	require.NoError(t, f.engine.ApproveJoin(ctx, id, owner, joiner))

	got, err := f.groups.GetGroupByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsMember(joiner))
	assert.False(t, got.HasPendingRequest(joiner))

	// approving again fails: the pending record is gone
	err = f.engine.ApproveJoin(ctx, id, owner, joiner)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	// the joiner got an approval notification
	var approved int
	for _, ev := range f.sink.events() {
		if ev.Recipient == joiner && ev.Kind == models.NotificationSystem {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
}

func TestDenyJoin_DropsRequestWithoutMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")
	joiner := f.addUser(t, "joiner")

	group, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{
		Name:       "Seed Savers",
		Visibility: models.GroupPrivate,
	})
	require.NoError(t, err)
	id := group.ID.Hex()

	_, err = f.engine.JoinGroup(ctx, id, joiner, "")
	require.NoError(t, err)
	require.NoError(t, f.engine.DenyJoin(ctx, id, owner, joiner))

	got, err := f.groups.GetGroupByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsMember(joiner))
	assert.False(t, got.HasPendingRequest(joiner))

	// after a deny the user may request again
	_, err = f.engine.JoinGroup(ctx, id, joiner, "second try")
	require.NoError(t, err)
}

func TestLeaveGroup_OwnerCannotLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")
	member := f.addUser(t, "member")

	group, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "Open Field"})
	require.NoError(t, err)
	id := group.ID.Hex()

	_, err = f.engine.JoinGroup(ctx, id, member, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.LeaveGroup(ctx, id, owner), ErrOwnerCannotLeave)
	require.NoError(t, f.engine.LeaveGroup(ctx, id, member))
	assert.ErrorIs(t, f.engine.LeaveGroup(ctx, id, member), ErrNotMember)
}

func TestPromoteMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addUser(t, "owner")
	member := f.addUser(t, "member")
	outsider := f.addUser(t, "outsider")

	group, err := f.engine.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "Open Field"})
	require.NoError(t, err)
	id := group.ID.Hex()

	_, err = f.engine.JoinGroup(ctx, id, member, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.PromoteMember(ctx, id, member, member), ErrNotGroupAdmin)
	assert.ErrorIs(t, f.engine.PromoteMember(ctx, id, owner, outsider), ErrNotMember)

	require.NoError(t, f.engine.PromoteMember(ctx, id, owner, member))
	got, err := f.groups.GetGroupByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.IsAdminOrOwner(member))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Organic Rice Growers", "organic-rice-growers"},
		{"  Hill --- Farmers  ", "hill-farmers"},
		{"Café & Crops", "café-crops"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "slugify(%q)", tt.in)
	}
}
