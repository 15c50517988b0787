package services

import (
	"context"
	"net/url"

	"stoop/internal/models"
	"stoop/internal/normalize"
	"stoop/internal/transport"
)

// Gossip wraps the anonymous discussion board resource area.
type Gossip struct {
	api *transport.Client
}

// GossipParams selects a slice of the gossip board.
type GossipParams struct {
	Page           int
	Limit          int
	DiscussionType string
	Tag            string
}

// List fetches one page of gossip posts.
func (g *Gossip) List(ctx context.Context, p GossipParams) (models.GossipPage, error) {
	q := pageQuery(p.Page, p.Limit)
	if p.DiscussionType != "" {
		q.Set("type", p.DiscussionType)
	}
	if p.Tag != "" {
		q.Set("tag", p.Tag)
	}
	env, err := g.api.Do(ctx, "GET", "/gossip", q, nil)
	if err != nil {
		return models.GossipPage{}, err
	}
	return normalize.GossipPage(env.Data)
}

// Get fetches one gossip post.
func (g *Gossip) Get(ctx context.Context, id models.ID) (*models.GossipPost, error) {
	var p models.GossipPost
	if err := g.api.Get(ctx, "/gossip/"+url.PathEscape(id.String()), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateGossipInput is the create request body. Anonymous posts omit the
// author server-side; the flag only travels up.
type CreateGossipInput struct {
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	Anonymous      bool     `json:"anonymous"`
	DiscussionType string   `json:"discussionType"`
	Tags           []string `json:"tags,omitempty"`
	Location       string   `json:"location,omitempty"`
}

// Create submits a new gossip post.
func (g *Gossip) Create(ctx context.Context, in CreateGossipInput) (*models.GossipPost, error) {
	var p models.GossipPost
	if err := g.api.Post(ctx, "/gossip", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
