package queries

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoop/internal/models"
	"stoop/internal/querycache"
	"stoop/internal/services"
)

func feedBody(posts ...string) string {
	joined := ""
	for i, p := range posts {
		if i > 0 {
			joined += ","
		}
		joined += p
	}
	// total matches the post count so hasMore derives to false
	return envelope(`{"content":[` + joined + `],"pagination":{"page":1,"limit":20,"total":` +
		strconv.Itoa(len(posts)) + `,"totalPages":1}}`)
}

const stubPost = `{"id":"p1","content":"stoop sale saturday","type":"text","author":{"id":"u1","username":"flo"},"likesCount":2,"isLiked":false}`

func TestFeedFallsBackWhenRankedUnavailable(t *testing.T) {
	ctx := context.Background()
	var recentCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/feed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"ranking unavailable"}`))
	})
	mux.HandleFunc("GET /posts/recent", func(w http.ResponseWriter, r *http.Request) {
		recentCalls.Add(1)
		assert.Equal(t, "neighborhood", r.URL.Query().Get("filter"))
		w.Write([]byte(feedBody(stubPost)))
	})
	c, toasts := newTestClient(t, mux)

	page, err := c.FeedPage(ctx, services.FeedParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, models.ID("p1"), page.Content[0].ID)
	assert.Equal(t, int32(1), recentCalls.Load())
	assert.Zero(t, toasts.count(), "the fallback is silent")
}

func TestEmptyFeedIsNotAnOutage(t *testing.T) {
	ctx := context.Background()
	var recentCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody()))
	})
	mux.HandleFunc("GET /posts/recent", func(w http.ResponseWriter, r *http.Request) {
		recentCalls.Add(1)
		w.Write([]byte(feedBody(stubPost)))
	})
	c, _ := newTestClient(t, mux)

	page, err := c.FeedPage(ctx, services.FeedParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Content, "zero posts is a valid feed")
	assert.Zero(t, recentCalls.Load(), "a 200 with no posts must not reroute")
}

func TestFeedValidationErrorDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	var recentCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/feed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"message":"bad coordinates"}`))
	})
	mux.HandleFunc("GET /posts/recent", func(w http.ResponseWriter, r *http.Request) {
		recentCalls.Add(1)
	})
	c, toasts := newTestClient(t, mux)

	_, err := c.FeedPage(ctx, services.FeedParams{Page: 1, Limit: 20})
	require.Error(t, err)
	assert.Zero(t, recentCalls.Load())
	assert.Equal(t, 1, toasts.count())
}

func TestCreatePostExtractsTagsAndStalesFeed(t *testing.T) {
	ctx := context.Background()
	var feedCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/feed", func(w http.ResponseWriter, r *http.Request) {
		feedCalls.Add(1)
		w.Write([]byte(feedBody(stubPost)))
	})
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		var in services.CreatePostInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "text", in.Type)
		assert.Equal(t, []string{"safety"}, in.Tags)
		w.Write([]byte(envelope(stubPost)))
	})
	c, _ := newTestClient(t, mux)

	_, err := c.FeedPage(ctx, services.FeedParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	_, err = c.FeedPage(ctx, services.FeedParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int32(1), feedCalls.Load(), "second read is a fresh hit")

	post, err := c.CreatePost(ctx, "Watch the stoop please #safety")
	require.NoError(t, err)
	require.NotNil(t, post)

	// The new post is never spliced into cached pages; the namespace goes
	// stale and the next read refetches.
	_, err = c.FeedPage(ctx, services.FeedParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int32(2), feedCalls.Load())
}

func TestFeedPagerWalksUntilExhausted(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/feed", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		w.Write([]byte(envelope(`{"content":[` + stubPost + `],"pagination":{"page":` +
			page + `,"limit":1,"total":2,"totalPages":2}}`)))
	})
	c, _ := newTestClient(t, mux)

	pager := c.Feed(services.FeedParams{Limit: 1})
	require.True(t, pager.HasMore())

	first, err := pager.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Content, 1)
	require.True(t, pager.HasMore())

	_, err = pager.Next(ctx)
	require.NoError(t, err)
	assert.False(t, pager.HasMore(), "page 2 of 2 ends the walk")

	past, err := pager.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, past.Content, "walking past the end is a no-op")
}

func TestToggleLikeInvalidatesThePost(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/p1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(stubPost)))
	})
	mux.HandleFunc("POST /posts/p1/like", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(`{"likesCount":3,"isLiked":true}`)))
	})
	c, _ := newTestClient(t, mux)

	post, err := c.Post(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, c.ToggleLike(ctx, post))

	_, state := querycache.Get[models.Post](ctx, c.cache, querycache.Key{KeyPost, "p1"})
	assert.Equal(t, querycache.Miss, state, "counters come from the server, not a local splice")
}

func TestRealtimeEventsMapToInvalidations(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, http.NewServeMux())

	seed := func(key querycache.Key) {
		require.NoError(t, querycache.Set(ctx, c.cache, key, "seeded", c.cfg.PostTTL))
	}
	missing := func(key querycache.Key) bool {
		_, state := querycache.Get[string](ctx, c.cache, key)
		return state == querycache.Miss
	}

	seed(querycache.Key{KeyNotifications, "1"})
	c.HandleRealtimeEvent(ctx, "new-notification", "")
	assert.True(t, missing(querycache.Key{KeyNotifications, "1"}))

	seed(querycache.Key{KeyConversations, "u9"})
	c.HandleRealtimeEvent(ctx, "new-message", "")
	assert.True(t, missing(querycache.Key{KeyConversations, "u9"}))

	seed(querycache.Key{KeyPost, "p7"})
	seed(querycache.Key{KeyPosts, "ranked", "1"})
	c.HandleRealtimeEvent(ctx, "post-update", "p7")
	assert.True(t, missing(querycache.Key{KeyPost, "p7"}))
	assert.True(t, missing(querycache.Key{KeyPosts, "ranked", "1"}))

	// Unknown events are dropped, not invalidated broadly.
	seed(querycache.Key{KeyGossip, "all", "1"})
	c.HandleRealtimeEvent(ctx, "typing", "")
	assert.False(t, missing(querycache.Key{KeyGossip, "all", "1"}))
}
