package services

import (
	"context"
	"net/url"

	"stoop/internal/models"
	"stoop/internal/normalize"
	"stoop/internal/transport"
)

// Follow wraps the follow-graph resource area.
type Follow struct {
	api *transport.Client
}

// Status fetches the relationship between the current user and the target.
func (f *Follow) Status(ctx context.Context, userID models.ID) (models.FollowStatus, error) {
	var s models.FollowStatus
	err := f.api.Get(ctx, "/follow/"+url.PathEscape(userID.String())+"/status", nil, &s)
	return s, err
}

// Follow issues a follow request for the target user. A 409 (already
// following) propagates as a status error; absorbing it is the optimistic
// layer's policy.
func (f *Follow) Follow(ctx context.Context, userID models.ID) error {
	return f.api.Post(ctx, "/follow/"+url.PathEscape(userID.String()), nil, nil)
}

// Unfollow removes the follow edge. A 404 (not following) propagates.
func (f *Follow) Unfollow(ctx context.Context, userID models.ID) error {
	return f.api.Delete(ctx, "/follow/"+url.PathEscape(userID.String()), nil)
}

// Followers fetches one page of a user's followers.
func (f *Follow) Followers(ctx context.Context, username string, page, limit int) (models.UserPage, error) {
	return f.userPage(ctx, "/users/"+url.PathEscape(username)+"/followers", page, limit)
}

// Following fetches one page of the accounts a user follows.
func (f *Follow) Following(ctx context.Context, username string, page, limit int) (models.UserPage, error) {
	return f.userPage(ctx, "/users/"+url.PathEscape(username)+"/following", page, limit)
}

func (f *Follow) userPage(ctx context.Context, path string, page, limit int) (models.UserPage, error) {
	env, err := f.api.Do(ctx, "GET", path, pageQuery(page, limit), nil)
	if err != nil {
		return models.UserPage{}, err
	}
	users, pagination, err := normalize.Page[models.User](env.Data)
	if err != nil {
		return models.UserPage{}, err
	}
	return models.UserPage{Content: users, Pagination: pagination}, nil
}
