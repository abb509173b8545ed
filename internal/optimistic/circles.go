package optimistic

import (
	"context"

	"circles/internal/models"
	"circles/internal/querycache"
	"circles/internal/session"
)

func circleSlug(c models.Circle) string         { return c.Slug }
func memberID(m models.CircleMembership) string { return m.UserID }

// JoinCircle adds the current user to a circle. The circle detail, the
// directory and the roster all reflect the membership until the data
// service answers.
func (c *Coordinator) JoinCircle(ctx context.Context, slug string) error {
	const op = "join_circle"
	me, err := c.session.Current(ctx)
	if err != nil {
		return c.reject(op, err)
	}
	return c.run(ctx, mutation{
		kind:   op,
		scopes: circleScopes(slug),
		apply: func() {
			c.eachCircle(slug, func(ci models.Circle) models.Circle {
				if !ci.Joined {
					ci.Joined = true
					ci.MemberCount++
				}
				return ci
			})
			querycache.UpdateData(c.cache, querycache.MembersKey(slug), func(old []models.CircleMembership) []models.CircleMembership {
				if containsID(old, me.UserID, memberID) {
					return old
				}
				return appendCopy(old, c.membership(slug, me))
			})
		},
		commit: func(ctx context.Context) error { return c.data.JoinCircle(ctx, slug) },
	})
}

// LeaveCircle removes the current user from a circle. The owner of a cached
// circle is refused without contacting the data service.
func (c *Coordinator) LeaveCircle(ctx context.Context, slug string) error {
	const op = "leave_circle"
	me, err := c.session.Current(ctx)
	if err != nil {
		return c.reject(op, err)
	}
	if ci, ok := querycache.GetData[models.Circle](c.cache, querycache.CircleKey(slug)); ok && ci.OwnerID == me.UserID {
		return c.reject(op, models.NewValidationError("the owner cannot leave their circle"))
	}
	return c.run(ctx, mutation{
		kind:   op,
		scopes: circleScopes(slug),
		apply: func() {
			c.eachCircle(slug, func(ci models.Circle) models.Circle {
				if ci.Joined {
					ci.Joined = false
					if ci.MemberCount > 0 {
						ci.MemberCount--
					}
				}
				return ci
			})
			querycache.UpdateData(c.cache, querycache.MembersKey(slug), func(old []models.CircleMembership) []models.CircleMembership {
				out, _ := removeByID(old, me.UserID, memberID)
				return out
			})
		},
		commit: func(ctx context.Context) error { return c.data.LeaveCircle(ctx, slug) },
	})
}

func circleScopes(slug string) []querycache.Key {
	return []querycache.Key{
		querycache.CirclesKey(),
		querycache.CircleKey(slug),
		querycache.MembersKey(slug),
	}
}

func (c *Coordinator) eachCircle(slug string, fn func(models.Circle) models.Circle) {
	querycache.UpdateData(c.cache, querycache.CircleKey(slug), fn)
	querycache.UpdateData(c.cache, querycache.CirclesKey(), func(old []models.Circle) []models.Circle {
		out, _ := mapByID(old, slug, circleSlug, fn)
		return out
	})
}

func (c *Coordinator) membership(slug string, me session.Session) models.CircleMembership {
	m := models.CircleMembership{
		UserID:      me.UserID,
		DisplayName: me.DisplayName,
		ImageURL:    me.ImageURL,
		Role:        models.MembershipRoleMember,
		CreatedAt:   c.now(),
		UpdatedAt:   c.now(),
	}
	if ci, ok := querycache.GetData[models.Circle](c.cache, querycache.CircleKey(slug)); ok {
		m.CircleID = ci.ID
	}
	return m
}
