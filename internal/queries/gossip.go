package queries

import (
	"context"
	"fmt"

	"stoop/internal/models"
	"stoop/internal/querycache"
	"stoop/internal/services"
)

func gossipKey(p services.GossipParams) querycache.Key {
	filter := p.DiscussionType
	if filter == "" {
		filter = "all"
	}
	if p.Tag != "" {
		filter += ":" + p.Tag
	}
	return querycache.Key{KeyGossip, filter, fmt.Sprintf("%d", p.Page)}
}

// GossipPage fetches one page of the gossip board.
func (c *Client) GossipPage(ctx context.Context, p services.GossipParams) (models.GossipPage, error) {
	page, err := querycache.Fetch(ctx, c.cache, gossipKey(p), c.cfg.FeedTTL,
		func(ctx context.Context) (models.GossipPage, error) {
			return c.svcs.Gossip.List(ctx, p)
		})
	if err != nil {
		c.reportError(err)
		return models.GossipPage{}, err
	}
	return page, nil
}

// GossipBoard returns a pager over the gossip board.
func (c *Client) GossipBoard(params services.GossipParams) *Pager[models.GossipPage] {
	return newPager(func(ctx context.Context, page int) (models.GossipPage, models.Pagination, error) {
		p := params
		p.Page = page
		result, err := c.GossipPage(ctx, p)
		return result, result.Pagination, err
	})
}

// CreateGossip submits a gossip post and invalidates the board.
func (c *Client) CreateGossip(ctx context.Context, in services.CreateGossipInput) (*models.GossipPost, error) {
	post, err := c.svcs.Gossip.Create(ctx, in)
	if err != nil {
		c.reportError(err)
		return nil, err
	}
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyGossip})
	return post, nil
}

// Comments returns a pager over a post's comment tree.
func (c *Client) Comments(postID models.ID, limit int) *Pager[models.CommentPage] {
	return newPager(func(ctx context.Context, page int) (models.CommentPage, models.Pagination, error) {
		result, err := querycache.Fetch(ctx, c.cache,
			querycache.Key{KeyComments, postID.String(), fmt.Sprintf("%d", page)}, c.cfg.FeedTTL,
			func(ctx context.Context) (models.CommentPage, error) {
				return c.svcs.Content.Comments(ctx, postID, page, limit)
			})
		if err != nil {
			c.reportError(err)
		}
		return result, result.Pagination, err
	})
}

// CreateComment adds a comment and invalidates the post's comment pages and
// detail entry (the comment counter lives there).
func (c *Client) CreateComment(ctx context.Context, postID models.ID, in services.CreateCommentInput) (*models.Comment, error) {
	comment, err := c.svcs.Content.CreateComment(ctx, postID, in)
	if err != nil {
		c.reportError(err)
		return nil, err
	}
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyComments, postID.String()})
	c.cache.Invalidate(ctx, querycache.Key{KeyPost, postID.String()})
	return comment, nil
}

// DeleteComment removes a comment and applies the same invalidations.
func (c *Client) DeleteComment(ctx context.Context, postID, commentID models.ID) error {
	if err := c.svcs.Content.DeleteComment(ctx, postID, commentID); err != nil {
		c.reportError(err)
		return err
	}
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyComments, postID.String()})
	c.cache.Invalidate(ctx, querycache.Key{KeyPost, postID.String()})
	return nil
}

// HandleRealtimeEvent maps a named socket event to the cache keys it makes
// stale. Events are invalidation triggers only; payloads are never applied
// to cached data.
func (c *Client) HandleRealtimeEvent(ctx context.Context, event string, postID models.ID) {
	switch event {
	case "new-notification":
		c.cache.InvalidatePrefix(ctx, querycache.Key{KeyNotifications})
	case "new-message":
		c.cache.InvalidatePrefix(ctx, querycache.Key{KeyConversations})
	case "post-update":
		if postID != "" {
			c.cache.Invalidate(ctx, querycache.Key{KeyPost, postID.String()})
		}
		c.cache.InvalidatePrefix(ctx, querycache.Key{KeyPosts})
	}
}
