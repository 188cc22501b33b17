package rescore

import (
	"context"
	"sync"
)

// Listener receives the terminal error of a Future, or nil on success. All
// of one Future's listeners fire together, in registration order, on a
// single goroutine (see dispatch on Future). With an unbounded dispatch,
// slow listeners only delay their own Future's siblings; without a
// dispatch they run inline on the completing goroutine.
type Listener func(err error)

// Future is the completion cell shared by a Command and its submitter. A
// Future completes at most once; every registered Listener fires exactly
// once, in registration order. Registration after completion fires
// immediately, synchronously, on the calling goroutine.
type Future struct {
	done chan struct{}

	mu        sync.Mutex
	fired     bool
	err       error
	cancelled bool
	listeners []Listener

	// dispatch, when set by Endpoint.tryEnqueue from a non-nil
	// ClientResources, runs the listener fan-out through
	// ClientResources.Dispatch instead of inline on the completing
	// goroutine (the run loop, for ordinary replies). Nil means fire
	// inline, which is what every Future that never passes through
	// tryEnqueue (tests, restore steps) gets.
	dispatch func(func())
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete resolves the future. Subsequent calls are no-ops, matching the
// "reply still arrives and is discarded" cancellation semantics.
func (f *Future) complete(err error) {
	f.mu.Lock()
	if f.fired {
		f.mu.Unlock()
		return
	}
	f.fired = true
	f.err = err
	ls := f.listeners
	f.listeners = nil
	dispatch := f.dispatch
	close(f.done)
	f.mu.Unlock()

	fire := func() {
		for _, l := range ls {
			l(err)
		}
	}
	if dispatch != nil && len(ls) > 0 {
		dispatch(fire)
	} else {
		fire()
	}
}

func (f *Future) completeCancelled(err error) {
	f.mu.Lock()
	if f.fired {
		f.mu.Unlock()
		return
	}
	f.cancelled = true
	f.mu.Unlock()
	f.complete(err)
}

// Listen registers l to fire on completion. A Future already complete fires
// l immediately, on the calling goroutine.
func (f *Future) Listen(l Listener) {
	f.mu.Lock()
	if f.fired {
		err := f.err
		f.mu.Unlock()
		l(err)
		return
	}
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
}

// IsDone reports whether the future has completed, successfully or not.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the command backing this future was
// cancelled. Only meaningful once IsDone is true.
func (f *Future) IsCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// Err returns the terminal error, or nil both before completion and on
// success. Use Await or IsDone to distinguish "not yet done" from "done,
// no error".
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Await blocks until the future completes or ctx is done, whichever comes
// first. A context deadline firing does not affect the command itself: it
// may still complete later, observable through IsDone.
func (f *Future) Await(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
