package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoop/internal/localstore"
	"stoop/internal/media"
	"stoop/internal/transport"
)

func testServices(t *testing.T, handler http.Handler) (*Services, *localstore.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store, err := localstore.Open(":memory:")
	require.NoError(t, err)
	api := transport.New(srv.URL, store)
	return New(api, store), store
}

func TestLoginPersistsSession(t *testing.T) {
	svcs, store := testServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "flo", creds.Identifier)
		w.Write([]byte(`{"success":true,"data":{"token":"tok-1","user":{"id":"u1","username":"flo"}}}`))
	}))

	u, err := svcs.Auth.Login(context.Background(), Credentials{Identifier: "flo", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "flo", u.Username)
	assert.Equal(t, "tok-1", store.Token())

	cached, err := store.CachedUser()
	require.NoError(t, err)
	assert.Equal(t, "flo", cached.Username)
}

func TestLogoutPurgesEvenWhenBackendFails(t *testing.T) {
	svcs, store := testServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	require.NoError(t, store.SetToken("tok"))

	require.NoError(t, svcs.Auth.Logout(context.Background()))
	assert.Empty(t, store.Token())
}

func TestNewTextPostExtractsTags(t *testing.T) {
	in := NewTextPost("Hello #safety")
	assert.Equal(t, "text", in.Type)
	assert.Equal(t, []string{"safety"}, in.Tags)
	assert.Equal(t, "Hello #safety", in.Content)

	in = NewTextPost("watch out #Safety and #traffic, more #safety")
	assert.Equal(t, []string{"safety", "traffic"}, in.Tags, "tags dedupe case-insensitively")

	in = NewTextPost("no tags here")
	assert.Empty(t, in.Tags)
}

func TestFollowStatusRequest(t *testing.T) {
	svcs, _ := testServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/follow/u9/status", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"isFollowing":true,"followsYou":false,"isMutual":false}}`))
	}))

	s, err := svcs.Follow.Status(context.Background(), "u9")
	require.NoError(t, err)
	assert.True(t, s.IsFollowing)
	assert.False(t, s.IsMutual)
}

func TestFollowersNormalizesNestedShape(t *testing.T) {
	svcs, _ := testServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/flo/followers", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"success":true,"data":{"data":{"content":[{"id":"u2","username":"sam"}],"pagination":{"page":2,"limit":20,"total":45}}}}`))
	}))

	page, err := svcs.Follow.Followers(context.Background(), "flo", 2, 20)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "sam", page.Content[0].Username)
	assert.True(t, page.Pagination.HasMore)
}

func TestGossipListPassesFilters(t *testing.T) {
	svcs, _ := testServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alert", r.URL.Query().Get("type"))
		assert.Equal(t, "parking", r.URL.Query().Get("tag"))
		w.Write([]byte(`{"success":true,"data":{"content":[],"pagination":{"page":1,"limit":20,"total":0}}}`))
	}))

	page, err := svcs.Gossip.List(context.Background(), GossipParams{
		Page: 1, Limit: 20, DiscussionType: "alert", Tag: "parking",
	})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}

func TestUploadMediaRejectsNonImagesLocally(t *testing.T) {
	hits := 0
	svcs, _ := testServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	_, err := svcs.Content.UploadMedia(context.Background(), "notes.txt",
		strings.NewReader("definitely not an image"), nil)
	require.ErrorIs(t, err, media.ErrUnsupported)
	assert.Zero(t, hits, "bad uploads must never reach the backend")
}

func TestUploadMediaSendsSniffedImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	svcs, _ := testServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/media", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))
		f, header, err := r.FormFile("media")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "tiny.png", header.Filename)
		w.Write([]byte(`{"success":true,"data":{"id":"m1","url":"/uploads/m1.png","type":"image"}}`))
	}))

	item, err := svcs.Content.UploadMedia(context.Background(), "tiny.png", &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/m1.png", item.URL)
}
