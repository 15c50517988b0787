package transport

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stoop/internal/models"
)

// credsStub is a stub for CredentialStore.
type credsStub struct {
	token  string
	purged bool
}

func (s *credsStub) Token() string { return s.token }
func (s *credsStub) PurgeAuth() error {
	s.purged = true
	s.token = ""
	return nil
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"success":true,"data":{"ok":true}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &credsStub{token: "tok123"})
	var out map[string]bool
	require.NoError(t, c.Get(context.Background(), "/ping", nil, &out))

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.True(t, out["ok"])
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &credsStub{})
	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/ping", nil, &out))
	assert.Empty(t, gotAuth)
}

func TestUnauthorizedPurgesAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"token expired"}`))
	}))
	defer srv.Close()

	creds := &credsStub{token: "stale"}
	redirected := false
	c := New(srv.URL, creds, WithUnauthorizedHook(func() { redirected = true }))

	err := c.Get(context.Background(), "/anything/at/all", nil, nil)

	require.Error(t, err)
	assert.Equal(t, 401, models.StatusOf(err))
	assert.True(t, creds.purged, "token and cached user must be purged on any 401")
	assert.True(t, redirected, "client must navigate to login on any 401")
}

func TestForbiddenDoesNotPurge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"message":"not yours"}`))
	}))
	defer srv.Close()

	creds := &credsStub{token: "fine"}
	c := New(srv.URL, creds)

	err := c.Delete(context.Background(), "/posts/9", nil)

	require.Error(t, err)
	assert.Equal(t, 403, models.StatusOf(err))
	assert.False(t, creds.purged, "403 means permission, not session invalidity")
}

func TestStatusErrorCarriesBodyMessageAndFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"message":"validation failed","errors":{"content":"required"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &credsStub{})
	err := c.Post(context.Background(), "/posts", map[string]string{}, nil)

	var apiErr *models.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, models.CodeValidation, apiErr.Code)
	assert.Equal(t, "required", apiErr.Fields["content"])
}

func TestNetworkErrorClassification(t *testing.T) {
	c := New("http://127.0.0.1:1", &credsStub{})
	err := c.Get(context.Background(), "/ping", nil, nil)

	var apiErr *models.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, models.CodeNetwork, apiErr.Code)
	assert.Zero(t, apiErr.Status)
}

func TestUploadReportsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, _, err := r.FormFile("media")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "caption here", r.FormValue("caption"))
		w.Write([]byte(`{"success":true,"data":{"url":"/m/1.png"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &credsStub{token: "tok"})

	var lastSent, total int64
	var out struct {
		URL string `json:"url"`
	}
	err := c.Upload(context.Background(), "/media",
		UploadFile{Field: "media", Filename: "1.png", Reader: bytes.NewReader(bytes.Repeat([]byte{0xAB}, 4096))},
		map[string]string{"caption": "caption here"},
		func(sent, t int64) { lastSent, total = sent, t },
		&out,
	)

	require.NoError(t, err)
	assert.Equal(t, "/m/1.png", out.URL)
	assert.Equal(t, total, lastSent, "progress must end at the full body size")
	assert.Greater(t, total, int64(4096), "total includes multipart framing")
}

func TestMetricRoute(t *testing.T) {
	assert.Equal(t, "/posts/:id/like", metricRoute("/posts/42/like"))
	assert.Equal(t, "/users/flo/followers", metricRoute("/users/flo/followers"))
}
