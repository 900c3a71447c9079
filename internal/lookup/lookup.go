// Package lookup provides a debounced typeahead search. Keystrokes reset a
// settle timer, so only the final query of a burst reaches the fetcher, and
// responses arriving out of order for superseded queries are discarded.
package lookup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is the settle window applied when none is configured.
const DefaultDebounce = 300 * time.Millisecond

// DefaultLimit caps how many results a query surfaces.
const DefaultLimit = 5

// Fetcher loads candidates for a settled query.
type Fetcher[T any] func(ctx context.Context, query string) ([]T, error)

// Lookup debounces queries against a Fetcher and keeps only the freshest
// result set. A fetch that fails leaves the previous results in place.
type Lookup[T any] struct {
	fetch    Fetcher[T]
	debounce time.Duration
	limit    int
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	token   uint64
	results []T
	closed  bool

	updates chan []T
}

// Option configures a Lookup.
type Option[T any] func(*Lookup[T])

// WithDebounce overrides the settle window.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(l *Lookup[T]) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// WithLimit overrides the result cap.
func WithLimit[T any](n int) Option[T] {
	return func(l *Lookup[T]) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithLogger sets the logger used for failed fetches.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(l *Lookup[T]) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a Lookup around fetch.
func New[T any](fetch Fetcher[T], opts ...Option[T]) *Lookup[T] {
	l := &Lookup[T]{
		fetch:    fetch,
		debounce: DefaultDebounce,
		limit:    DefaultLimit,
		logger:   slog.Default(),
		updates:  make(chan []T, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Query records a keystroke. The fetch fires only after the query has been
// stable for the debounce window; an earlier pending fetch is cancelled by
// the reset.
func (l *Lookup[T]) Query(ctx context.Context, query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	l.token++
	token := l.token

	if l.timer != nil {
		l.timer.Stop()
	}
	if query == "" {
		l.results = nil
		l.publishLocked(nil)
		return
	}
	l.timer = time.AfterFunc(l.debounce, func() {
		l.run(ctx, token, query)
	})
}

// Results returns the freshest result set.
func (l *Lookup[T]) Results() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.results...)
}

// Updates delivers result sets as they land. The channel holds only the
// latest set; slow consumers never block a fetch.
func (l *Lookup[T]) Updates() <-chan []T {
	return l.updates
}

// Close stops any pending fetch and drops future queries.
func (l *Lookup[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
	}
	close(l.updates)
}

func (l *Lookup[T]) run(ctx context.Context, token uint64, query string) {
	results, err := l.fetch(ctx, query)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || token != l.token {
		// A newer query superseded this fetch; its results are stale.
		return
	}
	if err != nil {
		l.logger.Warn("lookup fetch failed", "query", query, "error", err)
		return
	}
	if len(results) > l.limit {
		results = results[:l.limit]
	}
	l.results = results
	l.publishLocked(results)
}

func (l *Lookup[T]) publishLocked(results []T) {
	select {
	case <-l.updates:
	default:
	}
	l.updates <- results
}
