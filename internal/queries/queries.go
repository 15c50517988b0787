// Package queries binds the domain services to the shared query cache. It
// owns the cache-key vocabulary, the freshness windows, the invalidation
// rules mutations apply, and the optimistic follow/unfollow layer.
package queries

import (
	"errors"
	"sync"
	"time"

	"stoop/internal/models"
	"stoop/internal/observability"
	"stoop/internal/querycache"
	"stoop/internal/services"
)

// Cache key namespaces. Ownership discipline: a mutation patches only the
// keys it owns and invalidates the keys it might affect.
const (
	KeyPosts         = "posts"         // feed pages, by filter and page
	KeyPost          = "post"          // one post, by id
	KeySaved         = "saved"         // saved-items pages
	KeyGossip        = "gossip"        // gossip pages, by filter and page
	KeyComments      = "comments"      // comment pages, by post id and page
	KeyNotifications = "notifications" // notification pages
	KeyConversations = "conversations" // message threads (realtime-invalidated)
	KeyFollowStatus  = "follow-status" // one FollowStatus, by target user id
	KeyFollowers     = "followers"     // follower pages, by username
	KeyFollowing     = "following"     // following pages, by username
	KeyProfile       = "userProfile"   // one profile, by username
)

// ErrMutationPending is returned when a toggle is issued for a target that
// already has a mutation in flight.
var ErrMutationPending = errors.New("queries: mutation already in flight for this target")

// Config sets the freshness windows. Zero values fall back to the defaults
// the original client shipped with.
type Config struct {
	FollowStatusTTL time.Duration // default 10s
	FollowListTTL   time.Duration // default 30s
	FeedTTL         time.Duration // default 30s
	PostTTL         time.Duration // default 60s
}

func (c *Config) setDefaults() {
	if c.FollowStatusTTL == 0 {
		c.FollowStatusTTL = 10 * time.Second
	}
	if c.FollowListTTL == 0 {
		c.FollowListTTL = 30 * time.Second
	}
	if c.FeedTTL == 0 {
		c.FeedTTL = 30 * time.Second
	}
	if c.PostTTL == 0 {
		c.PostTTL = 60 * time.Second
	}
}

// Notifier receives user-facing failure messages (the toast path). Expected
// races (409 on follow, 404 on unfollow) never reach it.
type Notifier interface {
	Toast(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(string)

// Toast implements Notifier.
func (f NotifierFunc) Toast(message string) { f(message) }

// Client is the data-fetching layer handed to views.
type Client struct {
	svcs     *services.Services
	cache    *querycache.Cache
	cfg      Config
	notifier Notifier
	log      *observability.Logger

	mu      sync.Mutex
	pending map[models.ID]bool // follow mutations in flight, by target id
}

// New wires the query layer over services and a cache.
func New(svcs *services.Services, cache *querycache.Cache, cfg Config, notifier Notifier) *Client {
	cfg.setDefaults()
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &Client{
		svcs:     svcs,
		cache:    cache,
		cfg:      cfg,
		notifier: notifier,
		log:      observability.GlobalLogger,
		pending:  make(map[models.ID]bool),
	}
}

// Cache exposes the underlying cache for realtime invalidation wiring.
func (c *Client) Cache() *querycache.Cache { return c.cache }

// reportError runs the shared error-classification path: every failure that
// should be user-visible becomes exactly one toast.
func (c *Client) reportError(err error) {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		c.notifier.Toast(apiErr.UserMessage())
		return
	}
	c.notifier.Toast("An error occurred. Please try again.")
}
