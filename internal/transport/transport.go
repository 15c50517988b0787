// Package transport is the single point of outbound HTTP traffic. It
// attaches bearer tokens, applies the client-wide timeout, maps 401
// responses to a forced auth purge, and converts failures into the shared
// error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"stoop/internal/models"
	"stoop/internal/observability"
)

// DefaultTimeout is applied to every request unless overridden.
const DefaultTimeout = 30 * time.Second

// CredentialStore supplies the bearer token and purges it (together with the
// cached user) when the session is rejected.
type CredentialStore interface {
	Token() string
	PurgeAuth() error
}

// Client wraps outgoing requests against the backend REST API.
type Client struct {
	base  string
	http  *http.Client
	creds CredentialStore
	log   *observability.RequestLogger

	// onUnauthorized runs after an auth purge; the embedding application
	// uses it to navigate to the login screen. A 401 from any endpoint
	// triggers it: the session itself is considered invalid. Permission
	// problems must come back as 403, which never purges.
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient substitutes the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithUnauthorizedHook registers the forced-logout callback.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New returns a Client rooted at baseURL (including the /api/v1 path).
func New(baseURL string, creds CredentialStore, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  &http.Client{Timeout: DefaultTimeout},
		creds: creds,
		log:   observability.NewRequestLogger("transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request and unwraps the envelope into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	env, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return unwrap(env, out)
}

// Post issues a POST request with a JSON body and unwraps the envelope into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body and unwraps the envelope into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH request with a JSON body and unwraps the envelope into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE request and unwraps the envelope into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	env, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	return unwrap(env, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(raw)
	}
	env, err := c.do(ctx, method, path, nil, buf, "application/json")
	if err != nil {
		return err
	}
	return unwrap(env, out)
}

// Do issues a request and returns the raw envelope. Callers that need the
// success/message fields use this directly; everything else uses the typed
// verbs.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*models.Envelope, error) {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, body, contentType)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*models.Envelope, error) {
	route := metricRoute(path)
	requestID := uuid.NewString()
	ctx = observability.WithRequestID(ctx, requestID)

	span, ctx := observability.NewSpan(ctx, "http."+method)
	defer span.End()
	span.AddAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.String("request.id", requestID),
	)
	defer observability.TrackRequest(method, route)()

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		netErr := models.NewNetworkError(err)
		span.SetError(netErr)
		c.log.LogError(ctx, netErr, method, route)
		observability.RequestsTotal.WithLabelValues(method, route, "0").Inc()
		return nil, netErr
	}
	defer resp.Body.Close()

	observability.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(resp.StatusCode)).Inc()
	span.AddAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		netErr := models.NewNetworkError(err)
		span.SetError(netErr)
		return nil, netErr
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.purgeAuth(ctx)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(resp.StatusCode, raw)
		span.SetError(apiErr)
		c.log.LogError(ctx, apiErr, method, route)
		return nil, apiErr
	}

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		shapeErr := &models.APIError{
			Status:  resp.StatusCode,
			Code:    models.CodeShape,
			Message: "unrecognized response shape",
			Err:     err,
		}
		span.SetError(shapeErr)
		return nil, shapeErr
	}

	c.log.LogRequest(ctx, method, route, resp.StatusCode, nil)
	return &env, nil
}

// purgeAuth clears the stored token and cached user, then runs the
// forced-logout hook. This is the blanket 401 policy: there is no
// per-request opt-out.
func (c *Client) purgeAuth(ctx context.Context) {
	if err := c.creds.PurgeAuth(); err != nil {
		c.log.LogError(ctx, err, "PURGE", "auth")
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// statusError builds an APIError from a non-2xx response, preferring the
// message and field errors carried in the body's envelope.
func statusError(status int, raw []byte) *models.APIError {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		return models.NewStatusError(status, env.Message, env.Errors)
	}
	return models.NewStatusError(status, "", nil)
}

func unwrap(env *models.Envelope, out any) error {
	if out == nil {
		if !env.Success {
			return &models.APIError{Code: models.CodeEnvelope, Message: env.Message, Fields: env.Errors}
		}
		return nil
	}
	return env.Unwrap(out)
}

// metricRoute collapses numeric path segments so metric labels stay
// low-cardinality.
func metricRoute(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if s == "" {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}
