package services

import (
	"context"

	"stoop/internal/models"
	"stoop/internal/normalize"
	"stoop/internal/transport"
)

// Search wraps the search resource area.
type Search struct {
	api *transport.Client
}

// Posts searches posts matching q.
func (s *Search) Posts(ctx context.Context, q string, page, limit int) (models.FeedPage, error) {
	query := pageQuery(page, limit)
	query.Set("q", q)
	env, err := s.api.Do(ctx, "GET", "/search/posts", query, nil)
	if err != nil {
		return models.FeedPage{}, err
	}
	return normalize.FeedPage(env.Data)
}

// Users searches users matching q.
func (s *Search) Users(ctx context.Context, q string, page, limit int) (models.UserPage, error) {
	query := pageQuery(page, limit)
	query.Set("q", q)
	env, err := s.api.Do(ctx, "GET", "/search/users", query, nil)
	if err != nil {
		return models.UserPage{}, err
	}
	users, pagination, err := normalize.Page[models.User](env.Data)
	if err != nil {
		return models.UserPage{}, err
	}
	return models.UserPage{Content: users, Pagination: pagination}, nil
}
