package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentServesCachedFixWithinMaxAge(t *testing.T) {
	ctx := context.Background()
	calls := 0
	l := NewLocator(ProviderFunc(func(context.Context) (Coordinates, error) {
		calls++
		return Coordinates{Lat: 40.68, Lng: -73.94}, nil
	}), WithMaxAge(5*time.Minute))

	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	first, err := l.Current(ctx)
	require.NoError(t, err)

	now = now.Add(4 * time.Minute)
	second, err := l.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "a four-minute-old fix is still servable")

	now = now.Add(2 * time.Minute)
	_, err = l.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "past max age the provider is asked again")
}

func TestCurrentTimesOutSlowProviders(t *testing.T) {
	l := NewLocator(ProviderFunc(func(ctx context.Context) (Coordinates, error) {
		<-ctx.Done()
		return Coordinates{}, ctx.Err()
	}), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := l.Current(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFailureKeepsEarlierFix(t *testing.T) {
	ctx := context.Background()
	fail := false
	l := NewLocator(ProviderFunc(func(context.Context) (Coordinates, error) {
		if fail {
			return Coordinates{}, errors.New("gps off")
		}
		return Coordinates{Lat: 1, Lng: 2}, nil
	}), WithMaxAge(time.Minute))

	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, err := l.Current(ctx)
	require.NoError(t, err)

	fail = true
	now = now.Add(2 * time.Minute)
	_, err = l.Current(ctx)
	require.ErrorIs(t, err, ErrUnavailable)

	// The stale fix is still there; recovery re-serves from the provider.
	fail = false
	got, err := l.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 1, Lng: 2}, got)
}

func TestNilProviderIsUnavailable(t *testing.T) {
	l := NewLocator(nil)
	_, err := l.Current(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestInvalidateForcesReacquire(t *testing.T) {
	ctx := context.Background()
	calls := 0
	l := NewLocator(ProviderFunc(func(context.Context) (Coordinates, error) {
		calls++
		return Coordinates{Lat: 40.68, Lng: -73.94}, nil
	}))

	_, err := l.Current(ctx)
	require.NoError(t, err)
	l.Invalidate()
	_, err = l.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
