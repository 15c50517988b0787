package queries

import (
	"context"

	"stoop/internal/models"
	"stoop/internal/querycache"
)

// FollowState is the per-target state of the optimistic follow layer.
type FollowState string

const (
	// StateUnknown means the relationship has not been fetched yet.
	StateUnknown FollowState = "unknown"
	// StateNotFollowing means the last acknowledged state is not-following.
	StateNotFollowing FollowState = "not-following"
	// StateFollowing means the last acknowledged state is following.
	StateFollowing FollowState = "following"
	// StatePendingFollow means a follow request is in flight.
	StatePendingFollow FollowState = "pending-follow"
	// StatePendingUnfollow means an unfollow request is in flight.
	StatePendingUnfollow FollowState = "pending-unfollow"
)

func followKey(id models.ID) querycache.Key {
	return querycache.Key{KeyFollowStatus, id.String()}
}

// FollowStatus fetches the relationship with the target user, cached with a
// short freshness window so staleness stays bounded without manual
// invalidation.
func (c *Client) FollowStatus(ctx context.Context, id models.ID) (models.FollowStatus, error) {
	status, err := querycache.Fetch(ctx, c.cache, followKey(id), c.cfg.FollowStatusTTL,
		func(ctx context.Context) (models.FollowStatus, error) {
			return c.svcs.Follow.Status(ctx, id)
		})
	if err != nil {
		c.reportError(err)
		return models.FollowStatus{}, err
	}
	return status, nil
}

// FollowStateOf reports the current optimistic state for the target without
// touching the network. Views use it to disable the button while a mutation
// is pending.
func (c *Client) FollowStateOf(ctx context.Context, id models.ID) FollowState {
	c.mu.Lock()
	pending, isPending := c.pending[id]
	c.mu.Unlock()
	if isPending {
		if pending {
			return StatePendingFollow
		}
		return StatePendingUnfollow
	}

	status, state := querycache.Get[models.FollowStatus](ctx, c.cache, followKey(id))
	if state == querycache.Miss {
		return StateUnknown
	}
	if status.IsFollowing {
		return StateFollowing
	}
	return StateNotFollowing
}

// ToggleFollow reads the cached relationship and issues whichever mutation
// flips it. The decision uses the current cached value: there is no
// debounce, but a second toggle for the same target while one is in flight
// is rejected with ErrMutationPending.
func (c *Client) ToggleFollow(ctx context.Context, id models.ID, username string) (models.FollowOutcome, error) {
	status, state := querycache.Get[models.FollowStatus](ctx, c.cache, followKey(id))
	if state == querycache.Miss {
		var err error
		status, err = c.FollowStatus(ctx, id)
		if err != nil {
			return models.FollowFailed, err
		}
	}

	if status.IsFollowing {
		return c.Unfollow(ctx, id, username)
	}
	return c.Follow(ctx, id, username)
}

// Follow issues a follow mutation. A 409 from the server means a concurrent
// follow already won the race; it is absorbed as success and never surfaces
// as an error toast.
func (c *Client) Follow(ctx context.Context, id models.ID, username string) (models.FollowOutcome, error) {
	if !c.begin(id, true) {
		return models.FollowFailed, ErrMutationPending
	}
	defer c.finish(id)

	outcome := models.FollowApplied
	if err := c.svcs.Follow.Follow(ctx, id); err != nil {
		if models.StatusOf(err) != 409 {
			c.reportError(err)
			return models.FollowFailed, err
		}
		outcome = models.FollowAlreadyApplied
	}

	c.patchFollow(ctx, id, username, true)
	return outcome, nil
}

// Unfollow issues an unfollow mutation. A 404 means the edge was already
// gone; it is absorbed as success.
func (c *Client) Unfollow(ctx context.Context, id models.ID, username string) (models.FollowOutcome, error) {
	if !c.begin(id, false) {
		return models.FollowFailed, ErrMutationPending
	}
	defer c.finish(id)

	outcome := models.FollowApplied
	if err := c.svcs.Follow.Unfollow(ctx, id); err != nil {
		if models.StatusOf(err) != 404 {
			c.reportError(err)
			return models.FollowFailed, err
		}
		outcome = models.FollowAlreadyApplied
	}

	c.patchFollow(ctx, id, username, false)
	return outcome, nil
}

// patchFollow applies the acknowledged mutation directly to the status entry
// (the one key this layer owns) and invalidates the list and profile keys
// that the mutation affects, so counts refresh on their next read.
func (c *Client) patchFollow(ctx context.Context, id models.ID, username string, following bool) {
	_ = querycache.Patch(ctx, c.cache, followKey(id), c.cfg.FollowStatusTTL,
		func(s models.FollowStatus) models.FollowStatus {
			s.IsFollowing = following
			s.IsMutual = following && s.FollowsYou
			return s
		})

	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyFollowers, username})
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyFollowing, username})
	c.cache.Invalidate(ctx, querycache.Key{KeyProfile, username})
}

// begin registers an in-flight mutation for the target; it fails when one is
// already pending.
func (c *Client) begin(id models.ID, follow bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[id]; exists {
		return false
	}
	c.pending[id] = follow
	return true
}

func (c *Client) finish(id models.ID) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}
