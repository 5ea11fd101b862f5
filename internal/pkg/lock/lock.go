// Package lock keeps at most one bot action per Telegram user in flight.
// Game state does not depend on it: the engine's transactions already make concurrent
// actions safe. It only stops a double-tapped button from doing the work twice in a row.
package lock

import (
	"errors"
	"sync"
)

// ErrBusy is returned when the user already has an action running.
var ErrBusy = errors.New("another action is still running")

// InFlight tracks which users have an action running.
type InFlight struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

// NewInFlight creates an empty InFlight.
func NewInFlight() *InFlight {
	return &InFlight{active: make(map[int64]struct{})}
}

// TryAcquire marks the user busy without blocking. The returned release func is safe to
// call more than once.
func (f *InFlight) TryAcquire(userID int64) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.active[userID]; busy {
		return func() {}, false
	}
	f.active[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.active, userID)
			f.mu.Unlock()
		})
	}, true
}

// Do runs fn while the user is marked busy, or returns ErrBusy.
func (f *InFlight) Do(userID int64, fn func() error) error {
	release, ok := f.TryAcquire(userID)
	if !ok {
		return ErrBusy
	}
	defer release()
	return fn()
}

// Busy reports whether the user has an action running.
// This is a point-in-time check and may change immediately after.
func (f *InFlight) Busy(userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.active[userID]
	return busy
}

// Len returns the number of users with an action running.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}
