// Package cache holds the single-value request cache each data-backed panel
// keeps in front of its remote provider.
package cache

import "time"

// Clock returns the current time. Panels share time.Now in production and a
// fake in tests.
type Clock func() time.Time

// Entry caches the last provider result for a minimum request interval.
// A stored failure sentinel counts as a value: it is reused until the
// interval elapses, like any other result.
//
// Entry is owned by exactly one panel and is not safe for concurrent use.
type Entry[T any] struct {
	interval time.Duration
	now      Clock

	value     T
	fetchedAt time.Time
	valid     bool
}

// New returns an empty Entry. An interval <= 0 means every Request refetches.
// A nil clock uses time.Now.
func New[T any](interval time.Duration, now Clock) *Entry[T] {
	if now == nil {
		now = time.Now
	}
	return &Entry[T]{interval: interval, now: now}
}

// Request returns the cached value while it is fresh; otherwise it calls
// fetch, stores whatever it returns and stamps the fetch time.
func (e *Entry[T]) Request(fetch func() T) T {
	now := e.now()
	if e.Fresh(now) {
		return e.value
	}
	e.value = fetch()
	e.fetchedAt = now
	e.valid = true
	return e.value
}

// Fresh reports whether a stored value may still be served at now.
func (e *Entry[T]) Fresh(now time.Time) bool {
	if !e.valid || e.interval <= 0 {
		return false
	}
	return now.Sub(e.fetchedAt) < e.interval
}

// FetchedAt returns the time of the last fetch, or the zero time.
func (e *Entry[T]) FetchedAt() time.Time {
	return e.fetchedAt
}

// Invalidate forces the next Request to call the provider.
func (e *Entry[T]) Invalidate() {
	e.valid = false
}
