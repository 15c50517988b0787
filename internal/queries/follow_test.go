package queries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoop/internal/localstore"
	"stoop/internal/models"
	"stoop/internal/querycache"
	"stoop/internal/services"
	"stoop/internal/transport"
)

// toastRecorder is a stub Notifier capturing user-visible error messages.
type toastRecorder struct {
	mu     sync.Mutex
	toasts []string
}

func (r *toastRecorder) Toast(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, msg)
}

func (r *toastRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toasts)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *toastRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := localstore.Open(":memory:")
	require.NoError(t, err)
	api := transport.New(srv.URL, store)
	toasts := &toastRecorder{}
	return New(services.New(api, store), querycache.New(querycache.NewMemoryStore()), Config{}, toasts), toasts
}

func envelope(body string) string {
	return `{"success":true,"data":` + body + `}`
}

func TestFollowRace409AbsorbedAsSuccess(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /follow/u1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(`{"isFollowing":false,"followsYou":true,"isMutual":false}`)))
	})
	mux.HandleFunc("POST /follow/u1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"already following"}`))
	})
	c, toasts := newTestClient(t, mux)

	_, err := c.FollowStatus(ctx, "u1")
	require.NoError(t, err)

	outcome, err := c.ToggleFollow(ctx, "u1", "flo")
	require.NoError(t, err, "the 409 race must not surface as an error")
	assert.Equal(t, models.FollowAlreadyApplied, outcome)
	assert.Zero(t, toasts.count(), "no user-visible toast for the absorbed race")

	status, state := querycache.Get[models.FollowStatus](ctx, c.cache, followKey("u1"))
	assert.Equal(t, querycache.FreshHit, state, "patch counts as a fresh acknowledgment")
	assert.True(t, status.IsFollowing)
	assert.True(t, status.IsMutual, "mutual follows followsYou on a successful follow")
}

func TestUnfollowRace404AbsorbedAsSuccess(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /follow/u2/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(`{"isFollowing":true,"followsYou":false,"isMutual":false}`)))
	})
	mux.HandleFunc("DELETE /follow/u2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"not following"}`))
	})
	c, toasts := newTestClient(t, mux)

	_, err := c.FollowStatus(ctx, "u2")
	require.NoError(t, err)

	outcome, err := c.ToggleFollow(ctx, "u2", "sam")
	require.NoError(t, err)
	assert.Equal(t, models.FollowAlreadyApplied, outcome)
	assert.Zero(t, toasts.count())

	status, _ := querycache.Get[models.FollowStatus](ctx, c.cache, followKey("u2"))
	assert.False(t, status.IsFollowing)
	assert.False(t, status.IsMutual)
}

func TestFollowHardErrorLeavesStateAndToasts(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /follow/u3/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(`{"isFollowing":false,"followsYou":false,"isMutual":false}`)))
	})
	mux.HandleFunc("POST /follow/u3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":""}`))
	})
	c, toasts := newTestClient(t, mux)

	_, err := c.FollowStatus(ctx, "u3")
	require.NoError(t, err)

	outcome, err := c.ToggleFollow(ctx, "u3", "ada")
	require.Error(t, err)
	assert.Equal(t, models.FollowFailed, outcome)
	assert.Equal(t, 1, toasts.count(), "hard failures surface through the shared toast path")

	status, _ := querycache.Get[models.FollowStatus](ctx, c.cache, followKey("u3"))
	assert.False(t, status.IsFollowing, "state must not change on a hard failure")
}

func TestFollowSuccessInvalidatesListsAndProfile(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /follow/u4/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(`{"isFollowing":false,"followsYou":false,"isMutual":false}`)))
	})
	mux.HandleFunc("POST /follow/u4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(`{}`)))
	})
	c, _ := newTestClient(t, mux)

	// Seed the keys the mutation must make stale.
	require.NoError(t, querycache.Set(ctx, c.cache, querycache.Key{KeyFollowers, "kai", "1"}, "seeded", time.Minute))
	require.NoError(t, querycache.Set(ctx, c.cache, querycache.Key{KeyProfile, "kai"}, "seeded", time.Minute))

	_, err := c.FollowStatus(ctx, "u4")
	require.NoError(t, err)
	outcome, err := c.ToggleFollow(ctx, "u4", "kai")
	require.NoError(t, err)
	assert.Equal(t, models.FollowApplied, outcome)

	_, state := querycache.Get[string](ctx, c.cache, querycache.Key{KeyFollowers, "kai", "1"})
	assert.Equal(t, querycache.Miss, state, "follower pages refetch on next read")
	_, state = querycache.Get[string](ctx, c.cache, querycache.Key{KeyProfile, "kai"})
	assert.Equal(t, querycache.Miss, state, "profile counts refetch on next read")
}

func TestSecondToggleWhilePendingIsRejected(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /follow/u5/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope(`{"isFollowing":false,"followsYou":false,"isMutual":false}`)))
	})
	mux.HandleFunc("POST /follow/u5", func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(envelope(`{}`)))
	})
	c, _ := newTestClient(t, mux)

	_, err := c.FollowStatus(ctx, "u5")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Follow(ctx, "u5", "lee")
	}()

	// Wait for the first mutation to register as pending.
	require.Eventually(t, func() bool {
		return c.FollowStateOf(ctx, "u5") == StatePendingFollow
	}, time.Second, 5*time.Millisecond)

	_, err = c.Follow(ctx, "u5", "lee")
	assert.ErrorIs(t, err, ErrMutationPending)

	close(release)
	<-done
	assert.Equal(t, StateFollowing, c.FollowStateOf(ctx, "u5"))
}

func TestFollowStateOf(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, http.NewServeMux())

	assert.Equal(t, StateUnknown, c.FollowStateOf(ctx, "u6"))

	require.NoError(t, querycache.Set(ctx, c.cache, followKey("u6"),
		models.FollowStatus{IsFollowing: true}, time.Minute))
	assert.Equal(t, StateFollowing, c.FollowStateOf(ctx, "u6"))
}
