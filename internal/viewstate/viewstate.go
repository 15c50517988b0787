// Package viewstate resolves a fetch into the four states a view renders:
// loading, errored, empty, ready. The precedence is fixed: an error always
// wins over content, and emptiness is checked before readiness, so a failed
// refresh never renders as an empty list.
package viewstate

import (
	"context"
	"errors"

	"stoop/internal/models"
)

// Phase is the render state of a view.
type Phase int

const (
	Loading Phase = iota
	Errored
	Empty
	Ready
)

// String returns the phase name for logs and test output.
func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Errored:
		return "errored"
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// View is one resolved render state. The zero value is Loading.
type View[T any] struct {
	phase Phase
	value T
	err   error
	fetch func(context.Context) (T, error)
	empty func(T) bool
}

// Phase reports the render state.
func (v View[T]) Phase() Phase { return v.phase }

// Value returns the fetched content. Meaningful only when Ready.
func (v View[T]) Value() T { return v.value }

// Err returns the failure. Meaningful only when Errored.
func (v View[T]) Err() error { return v.err }

// Message returns the user-facing error text for an errored view.
func (v View[T]) Message() string {
	if v.err == nil {
		return ""
	}
	var apiErr *models.APIError
	if errors.As(v.err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "An error occurred. Please try again."
}

// Pending returns a loading view that resolves with the given fetch.
func Pending[T any](fetch func(context.Context) (T, error), isEmpty func(T) bool) View[T] {
	return View[T]{phase: Loading, fetch: fetch, empty: isEmpty}
}

// Resolve runs the fetch and classifies the outcome.
func Resolve[T any](ctx context.Context, fetch func(context.Context) (T, error), isEmpty func(T) bool) View[T] {
	return Pending(fetch, isEmpty).Load(ctx)
}

// Load resolves a pending or errored view. Ready and empty views are
// returned unchanged; refreshing them is the caller's job, via a new view.
func (v View[T]) Load(ctx context.Context) View[T] {
	if v.phase != Loading && v.phase != Errored {
		return v
	}
	if v.fetch == nil {
		return v
	}

	value, err := v.fetch(ctx)
	if err != nil {
		return View[T]{phase: Errored, err: err, fetch: v.fetch, empty: v.empty}
	}
	if v.empty != nil && v.empty(value) {
		return View[T]{phase: Empty, fetch: v.fetch, empty: v.empty}
	}
	return View[T]{phase: Ready, value: value, fetch: v.fetch, empty: v.empty}
}

// Retry re-runs the fetch for an errored view. Any other phase is returned
// unchanged, so render loops can call it unconditionally.
func (v View[T]) Retry(ctx context.Context) View[T] {
	if v.phase != Errored {
		return v
	}
	return v.Load(ctx)
}
