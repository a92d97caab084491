// Package asyncresult implements the single-producer/single-consumer result
// cell used wherever a call crosses a provider, registry, or IPC boundary
// asynchronously: a Result starts empty, is completed exactly once with
// either a value or an error, and accepts at most one notifier.
package asyncresult

import (
	"errors"
	"sync"
)

// ErrCancelled fills a Result's error slot for a cancelled call — the
// generic remote-communication failure kind a caller sees when a cell is
// abandoned because its connection dropped before the provider answered.
// Callers that only care "did this get cancelled" can compare with
// errors.Is(err, asyncresult.ErrCancelled); internal/ipc/driver's
// RemoteError and its connection-loss errors do not wrap it.
var ErrCancelled = errors.New("asyncresult: call cancelled")

type state uint8

const (
	empty state = iota
	hasValue
	hasError
)

// Result is a cell that is completed exactly once, either with a value of
// type T or with an error (a *status.Error for a provider-level outcome, or
// a transport-level error for a connection failure — Result itself is
// agnostic to which). A single notifier may be installed with Notify: it
// runs on whichever goroutine completes the Result, or immediately, inline,
// if the Result is already completed at the time Notify is called.
//
// Not a buffered channel on purpose: a channel-based implementation would
// need an extra goroutine to run the notifier on completion, and could not
// guarantee the "runs synchronously during Notify if already completed"
// half of the contract without one anyway.
type Result[T any] struct {
	mu       sync.Mutex
	st       state
	value    T
	err      error
	notifier func(*Result[T])
}

// New returns an empty Result.
func New[T any]() *Result[T] {
	return &Result[T]{}
}

// Completed returns a Result already holding value.
func Completed[T any](value T) *Result[T] {
	r := New[T]()
	r.Complete(value)
	return r
}

// Failed returns a Result already holding err.
func Failed[T any](err error) *Result[T] {
	r := New[T]()
	r.Fail(err)
	return r
}

// Complete fills the cell with value. Panics if the cell was already
// completed — a Result is single-producer by contract, and a second
// completion attempt is a caller bug, not a runtime condition to tolerate
// silently.
func (r *Result[T]) Complete(value T) {
	r.mu.Lock()
	if r.st != empty {
		r.mu.Unlock()
		panic("asyncresult: Result completed more than once")
	}
	r.st = hasValue
	r.value = value
	notifier := r.notifier
	r.mu.Unlock()
	if notifier != nil {
		notifier(r)
	}
}

// Fail fills the cell with err.
func (r *Result[T]) Fail(err error) {
	r.mu.Lock()
	if r.st != empty {
		r.mu.Unlock()
		panic("asyncresult: Result completed more than once")
	}
	r.st = hasError
	r.err = err
	notifier := r.notifier
	r.mu.Unlock()
	if notifier != nil {
		notifier(r)
	}
}

// Cancel fails the cell with ErrCancelled, the contract's generic
// remote-communication exception kind.
func (r *Result[T]) Cancel() {
	r.Fail(ErrCancelled)
}

// IsDone reports whether the cell has been completed, successfully or not.
func (r *Result[T]) IsDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st != empty
}

// Get returns the completed value and error. Valid only once IsDone is
// true; callers typically call Get from within a Notify callback, or after
// blocking on some other completion signal (e.g. the IPC driver's call
// loop), never by polling IsDone.
func (r *Result[T]) Get() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}

// Await blocks the calling goroutine until r completes, then returns its
// value and error. For use by code that has no event loop of its own to
// drive completion (e.g. a remote-provider adapter called from a registry
// dispatch goroutine) — never call Await from the goroutine that itself
// drives r's completion (an IPC driver's own Run loop), which would
// deadlock waiting on itself.
func Await[T any](r *Result[T]) (T, error) {
	done := make(chan struct{})
	r.Notify(func(*Result[T]) { close(done) })
	<-done
	return r.Get()
}

// Notify installs f as the cell's notifier. At most one notifier may be
// installed; installing a second panics, mirroring Complete/Fail's
// single-producer contract. If the cell is already completed, f runs
// synchronously, inline, before Notify returns.
func (r *Result[T]) Notify(f func(*Result[T])) {
	r.mu.Lock()
	if r.notifier != nil {
		r.mu.Unlock()
		panic("asyncresult: Result already has a notifier")
	}
	if r.st != empty {
		r.mu.Unlock()
		f(r)
		return
	}
	r.notifier = f
	r.mu.Unlock()
}
