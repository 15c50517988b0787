package queries

import (
	"context"
	"fmt"

	"stoop/internal/models"
	"stoop/internal/querycache"
)

// Profile fetches a user's profile page data.
func (c *Client) Profile(ctx context.Context, username string) (*models.Profile, error) {
	profile, err := querycache.Fetch(ctx, c.cache, querycache.Key{KeyProfile, username}, c.cfg.PostTTL,
		func(ctx context.Context) (models.Profile, error) {
			p, err := c.svcs.Social.Profile(ctx, username)
			if err != nil {
				return models.Profile{}, err
			}
			return *p, nil
		})
	if err != nil {
		c.reportError(err)
		return nil, err
	}
	return &profile, nil
}

// Followers returns a pager over a user's followers, cached with the
// follower-list freshness window.
func (c *Client) Followers(username string, limit int) *Pager[models.UserPage] {
	return c.userListPager(KeyFollowers, username, limit, c.svcs.Follow.Followers)
}

// Following returns a pager over the accounts a user follows.
func (c *Client) Following(username string, limit int) *Pager[models.UserPage] {
	return c.userListPager(KeyFollowing, username, limit, c.svcs.Follow.Following)
}

func (c *Client) userListPager(namespace, username string, limit int,
	fetch func(ctx context.Context, username string, page, limit int) (models.UserPage, error),
) *Pager[models.UserPage] {
	return newPager(func(ctx context.Context, page int) (models.UserPage, models.Pagination, error) {
		result, err := querycache.Fetch(ctx, c.cache,
			querycache.Key{namespace, username, fmt.Sprintf("%d", page)}, c.cfg.FollowListTTL,
			func(ctx context.Context) (models.UserPage, error) {
				return fetch(ctx, username, page, limit)
			})
		if err != nil {
			c.reportError(err)
		}
		return result, result.Pagination, err
	})
}

// Notifications returns a pager over the notification tray.
func (c *Client) Notifications(limit int) *Pager[models.NotificationPage] {
	return newPager(func(ctx context.Context, page int) (models.NotificationPage, models.Pagination, error) {
		result, err := querycache.Fetch(ctx, c.cache,
			querycache.Key{KeyNotifications, fmt.Sprintf("%d", page)}, c.cfg.FeedTTL,
			func(ctx context.Context) (models.NotificationPage, error) {
				return c.svcs.Notify.List(ctx, page, limit)
			})
		if err != nil {
			c.reportError(err)
		}
		return result, result.Pagination, err
	})
}

// MarkNotificationRead marks one notification read and invalidates the tray.
func (c *Client) MarkNotificationRead(ctx context.Context, id models.ID) error {
	if err := c.svcs.Notify.MarkRead(ctx, id); err != nil {
		c.reportError(err)
		return err
	}
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyNotifications})
	return nil
}
