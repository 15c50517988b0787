package services

import (
	"context"
	"net/url"

	"stoop/internal/models"
	"stoop/internal/normalize"
	"stoop/internal/transport"
)

// Notify wraps the notifications resource area.
type Notify struct {
	api *transport.Client
}

// List fetches one page of notifications, newest first.
func (n *Notify) List(ctx context.Context, page, limit int) (models.NotificationPage, error) {
	env, err := n.api.Do(ctx, "GET", "/notifications", pageQuery(page, limit), nil)
	if err != nil {
		return models.NotificationPage{}, err
	}
	items, pagination, err := normalize.Page[models.Notification](env.Data)
	if err != nil {
		return models.NotificationPage{}, err
	}
	return models.NotificationPage{Content: items, Pagination: pagination}, nil
}

// MarkRead marks one notification read.
func (n *Notify) MarkRead(ctx context.Context, id models.ID) error {
	return n.api.Patch(ctx, "/notifications/"+url.PathEscape(id.String())+"/read", nil, nil)
}

// MarkAllRead marks every notification read.
func (n *Notify) MarkAllRead(ctx context.Context) error {
	return n.api.Patch(ctx, "/notifications/read-all", nil, nil)
}
