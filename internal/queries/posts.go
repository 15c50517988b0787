package queries

import (
	"context"
	"fmt"

	"stoop/internal/models"
	"stoop/internal/querycache"
	"stoop/internal/services"
)

// fallbackStatuses are the endpoint-unavailability codes that reroute the
// geo-ranked feed to the recent-posts endpoint. A 200 with zero posts is a
// valid empty feed and never falls back.
var fallbackStatuses = map[int]bool{404: true, 500: true, 502: true, 503: true}

func feedKey(p services.FeedParams) querycache.Key {
	filter := p.Filter
	if filter == "" {
		filter = "ranked"
	}
	return querycache.Key{KeyPosts, filter, fmt.Sprintf("%d", p.Page)}
}

// FeedPage fetches one page of the neighborhood feed, preferring the
// geo-ranked endpoint and falling back to recent posts with
// filter=neighborhood when the ranked endpoint is unavailable.
func (c *Client) FeedPage(ctx context.Context, p services.FeedParams) (models.FeedPage, error) {
	page, err := querycache.Fetch(ctx, c.cache, feedKey(p), c.cfg.FeedTTL,
		func(ctx context.Context) (models.FeedPage, error) {
			page, err := c.svcs.Content.RankedFeed(ctx, p)
			if err == nil {
				return page, nil
			}
			if !fallbackStatuses[models.StatusOf(err)] {
				return models.FeedPage{}, err
			}
			fallback := p
			fallback.Filter = "neighborhood"
			return c.svcs.Content.RecentPosts(ctx, fallback)
		})
	if err != nil {
		c.reportError(err)
		return models.FeedPage{}, err
	}
	return page, nil
}

// Pager walks a paginated list, requesting page+1 while the last response
// reported more content. It is the continuation half of the infinite-scroll
// contract.
type Pager[T any] struct {
	fetch   func(ctx context.Context, page int) (T, models.Pagination, error)
	next    int
	hasMore bool
}

func newPager[T any](fetch func(ctx context.Context, page int) (T, models.Pagination, error)) *Pager[T] {
	return &Pager[T]{fetch: fetch, next: 1, hasMore: true}
}

// HasMore reports whether another page is available.
func (p *Pager[T]) HasMore() bool { return p.hasMore }

// Next fetches the next page and advances the cursor.
func (p *Pager[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if !p.hasMore {
		return zero, nil
	}
	v, pagination, err := p.fetch(ctx, p.next)
	if err != nil {
		return zero, err
	}
	p.hasMore = pagination.HasMore
	p.next = pagination.NextPage()
	return v, nil
}

// Feed returns a pager over the neighborhood feed.
func (c *Client) Feed(params services.FeedParams) *Pager[models.FeedPage] {
	return newPager(func(ctx context.Context, page int) (models.FeedPage, models.Pagination, error) {
		p := params
		p.Page = page
		result, err := c.FeedPage(ctx, p)
		return result, result.Pagination, err
	})
}

// Post fetches one post by id.
func (c *Client) Post(ctx context.Context, id models.ID) (*models.Post, error) {
	post, err := querycache.Fetch(ctx, c.cache, querycache.Key{KeyPost, id.String()}, c.cfg.PostTTL,
		func(ctx context.Context) (models.Post, error) {
			p, err := c.svcs.Content.GetPost(ctx, id)
			if err != nil {
				return models.Post{}, err
			}
			return *p, nil
		})
	if err != nil {
		c.reportError(err)
		return nil, err
	}
	return &post, nil
}

// SavedPosts returns a pager over the saved-items list.
func (c *Client) SavedPosts(limit int) *Pager[models.FeedPage] {
	return newPager(func(ctx context.Context, page int) (models.FeedPage, models.Pagination, error) {
		result, err := querycache.Fetch(ctx, c.cache,
			querycache.Key{KeySaved, fmt.Sprintf("%d", page)}, c.cfg.FeedTTL,
			func(ctx context.Context) (models.FeedPage, error) {
				return c.svcs.Content.SavedPosts(ctx, page, limit)
			})
		if err != nil {
			c.reportError(err)
		}
		return result, result.Pagination, err
	})
}

// CreatePost submits a text post, extracting hashtags from the content, and
// invalidates the whole posts namespace so the next feed read refetches.
// The new post is deliberately not spliced into cached pages.
func (c *Client) CreatePost(ctx context.Context, content string) (*models.Post, error) {
	post, err := c.svcs.Content.CreatePost(ctx, services.NewTextPost(content))
	if err != nil {
		c.reportError(err)
		return nil, err
	}
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyPosts})
	return post, nil
}

// CreateMediaPost submits a post with already-uploaded media attachments.
func (c *Client) CreateMediaPost(ctx context.Context, content string, media []models.MediaItem) (*models.Post, error) {
	in := services.NewTextPost(content)
	in.Type = "media"
	in.Media = media
	post, err := c.svcs.Content.CreatePost(ctx, in)
	if err != nil {
		c.reportError(err)
		return nil, err
	}
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyPosts})
	return post, nil
}

// DeletePost removes a post and invalidates it plus every feed page.
func (c *Client) DeletePost(ctx context.Context, id models.ID) error {
	if err := c.svcs.Content.DeletePost(ctx, id); err != nil {
		c.reportError(err)
		return err
	}
	c.cache.Invalidate(ctx, querycache.Key{KeyPost, id.String()})
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeyPosts})
	return nil
}

// ToggleLike likes or unlikes a post based on the last acknowledged state,
// then invalidates the post's detail entry so counters refresh.
func (c *Client) ToggleLike(ctx context.Context, post *models.Post) error {
	var err error
	if post.IsLiked {
		_, err = c.svcs.Content.UnlikePost(ctx, post.ID)
	} else {
		_, err = c.svcs.Content.LikePost(ctx, post.ID)
	}
	if err != nil {
		c.reportError(err)
		return err
	}
	c.cache.Invalidate(ctx, querycache.Key{KeyPost, post.ID.String()})
	return nil
}

// ToggleSave saves or unsaves a post and invalidates the affected keys.
func (c *Client) ToggleSave(ctx context.Context, post *models.Post) error {
	var err error
	if post.IsSaved {
		_, err = c.svcs.Content.UnsavePost(ctx, post.ID)
	} else {
		_, err = c.svcs.Content.SavePost(ctx, post.ID)
	}
	if err != nil {
		c.reportError(err)
		return err
	}
	c.cache.Invalidate(ctx, querycache.Key{KeyPost, post.ID.String()})
	c.cache.InvalidatePrefix(ctx, querycache.Key{KeySaved})
	return nil
}
