package optimistic

import (
	"context"
	"errors"
	"testing"

	"circles/internal/models"
	"circles/internal/querycache"
	"circles/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedCircle(c *Coordinator, circle models.Circle, members ...models.CircleMembership) {
	c.Cache().Set(querycache.CircleKey(circle.Slug), circle)
	c.Cache().Set(querycache.CirclesKey(), []models.Circle{circle, {ID: "other", Slug: "other"}})
	c.Cache().Set(querycache.MembersKey(circle.Slug), members)
}

func TestJoinCircle_Speculative(t *testing.T) {
	c, data := newTestCoordinator(t, session.Static(ada))
	seedCircle(c, models.Circle{ID: "ci1", Slug: "inkers", OwnerID: "owner", MemberCount: 1},
		models.CircleMembership{CircleID: "ci1", UserID: "owner", Role: models.MembershipRoleOwner})

	g := newGate()
	data.On("JoinCircle", mock.Anything, "inkers").Run(g.run).Return(nil).Once()

	done := make(chan error, 1)
	go func() { done <- c.JoinCircle(context.Background(), "inkers") }()
	g.waitEntered(t)

	circle, _ := querycache.GetData[models.Circle](c.Cache(), querycache.CircleKey("inkers"))
	assert.True(t, circle.Joined)
	assert.Equal(t, 2, circle.MemberCount)
	dir, _ := querycache.GetData[[]models.Circle](c.Cache(), querycache.CirclesKey())
	assert.True(t, dir[0].Joined)
	assert.False(t, dir[1].Joined)
	members, _ := querycache.GetData[[]models.CircleMembership](c.Cache(), querycache.MembersKey("inkers"))
	require.Len(t, members, 2)
	assert.Equal(t, models.CircleMembership{
		CircleID:    "ci1",
		UserID:      ada.UserID,
		DisplayName: ada.DisplayName,
		ImageURL:    ada.ImageURL,
		Role:        models.MembershipRoleMember,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}, members[1])

	close(g.release)
	require.NoError(t, <-done)
	assert.False(t, c.Cache().IsFresh(querycache.MembersKey("inkers")))
}

func TestJoinCircle_FailureRestores(t *testing.T) {
	c, data := newTestCoordinator(t, session.Static(ada))
	seedCircle(c, models.Circle{ID: "ci1", Slug: "inkers", MemberCount: 4})
	keys := circleScopes("inkers")
	before := make([]querycache.Entry, len(keys))
	for i, k := range keys {
		before[i] = entryOf(t, c, k)
	}

	data.On("JoinCircle", mock.Anything, "inkers").Return(errors.New("dial tcp: i/o timeout")).Once()
	err := c.JoinCircle(context.Background(), "inkers")
	assert.True(t, IsKind(err, KindTransport))

	for i, k := range keys {
		assert.Equal(t, before[i], entryOf(t, c, k), k)
	}
}

func TestLeaveCircle(t *testing.T) {
	c, data := newTestCoordinator(t, session.Static(ada))
	seedCircle(c, models.Circle{ID: "ci1", Slug: "inkers", OwnerID: "owner", MemberCount: 0, Joined: true},
		models.CircleMembership{CircleID: "ci1", UserID: ada.UserID})

	data.On("LeaveCircle", mock.Anything, "inkers").Return(nil).Once()
	require.NoError(t, c.LeaveCircle(context.Background(), "inkers"))

	circle, _ := querycache.GetData[models.Circle](c.Cache(), querycache.CircleKey("inkers"))
	assert.False(t, circle.Joined)
	assert.Equal(t, 0, circle.MemberCount, "count never goes negative")
	members, _ := querycache.GetData[[]models.CircleMembership](c.Cache(), querycache.MembersKey("inkers"))
	assert.Empty(t, members)
}

func TestLeaveCircle_OwnerRejected(t *testing.T) {
	c, data := newTestCoordinator(t, session.Static(ada))
	seedCircle(c, models.Circle{ID: "ci1", Slug: "inkers", OwnerID: ada.UserID, Joined: true, MemberCount: 1})

	err := c.LeaveCircle(context.Background(), "inkers")
	assert.True(t, IsKind(err, KindValidation))
	data.AssertNotCalled(t, "LeaveCircle", mock.Anything, mock.Anything)
}
