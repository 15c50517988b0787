// Package geo abstracts device location for the ranked feed. Position fixes
// are expensive to acquire, so the locator caches the last fix and serves it
// while it is younger than the configured max age.
package geo

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ErrUnavailable is returned when no provider is configured or the provider
// reports that location cannot be determined. Callers fall back to the
// unranked feed.
var ErrUnavailable = errors.New("geo: location unavailable")

// Provider acquires a position fix. Implementations wrap whatever the host
// platform offers (GPS daemon, IP lookup, a fixed test value).
type Provider interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Coordinates, error)

// Locate implements Provider.
func (f ProviderFunc) Locate(ctx context.Context) (Coordinates, error) { return f(ctx) }

// Static returns a provider that always reports the given position.
func Static(c Coordinates) Provider {
	return ProviderFunc(func(context.Context) (Coordinates, error) { return c, nil })
}

const (
	defaultTimeout = 10 * time.Second
	defaultMaxAge  = 5 * time.Minute
)

type fix struct {
	coords Coordinates
	at     time.Time
}

// Locator serves cached position fixes, querying the provider only when the
// cached fix is older than MaxAge.
type Locator struct {
	provider Provider
	timeout  time.Duration
	maxAge   time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last *fix
}

// LocatorOption tunes a Locator.
type LocatorOption func(*Locator)

// WithTimeout caps how long one acquisition may take.
func WithTimeout(d time.Duration) LocatorOption {
	return func(l *Locator) { l.timeout = d }
}

// WithMaxAge sets how long a fix stays servable without re-acquiring.
func WithMaxAge(d time.Duration) LocatorOption {
	return func(l *Locator) { l.maxAge = d }
}

// NewLocator builds a locator over the given provider. A nil provider is
// allowed; Current then always returns ErrUnavailable.
func NewLocator(p Provider, opts ...LocatorOption) *Locator {
	l := &Locator{
		provider: p,
		timeout:  defaultTimeout,
		maxAge:   defaultMaxAge,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Current returns the device position, serving the cached fix while it is
// fresh. Acquisition failures do not evict a previously cached fix.
func (l *Locator) Current(ctx context.Context) (Coordinates, error) {
	if l.provider == nil {
		return Coordinates{}, ErrUnavailable
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.last != nil && l.now().Sub(l.last.at) < l.maxAge {
		return l.last.coords, nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	coords, err := l.provider.Locate(ctx)
	if err != nil {
		return Coordinates{}, errors.Join(ErrUnavailable, err)
	}
	l.last = &fix{coords: coords, at: l.now()}
	return coords, nil
}

// Invalidate drops the cached fix so the next Current call re-acquires.
func (l *Locator) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = nil
}
