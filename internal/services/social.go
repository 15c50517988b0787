package services

import (
	"context"
	"net/url"

	"stoop/internal/models"
	"stoop/internal/normalize"
	"stoop/internal/transport"
)

// Social wraps profiles and people suggestions.
type Social struct {
	api *transport.Client
}

// Profile fetches a user's public profile by username.
func (s *Social) Profile(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	if err := s.api.Get(ctx, "/users/"+url.PathEscape(username), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UserPosts fetches one page of a user's own posts.
func (s *Social) UserPosts(ctx context.Context, username string, page, limit int) (models.FeedPage, error) {
	env, err := s.api.Do(ctx, "GET", "/users/"+url.PathEscape(username)+"/posts", pageQuery(page, limit), nil)
	if err != nil {
		return models.FeedPage{}, err
	}
	return normalize.FeedPage(env.Data)
}

// Suggestions fetches people-you-may-know candidates.
func (s *Social) Suggestions(ctx context.Context, limit int) ([]models.User, error) {
	env, err := s.api.Do(ctx, "GET", "/users/suggestions", pageQuery(1, limit), nil)
	if err != nil {
		return nil, err
	}
	users, _, err := normalize.Page[models.User](env.Data)
	return users, err
}
