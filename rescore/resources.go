package rescore

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ClientResources bundles the process-wide collaborators that would
// otherwise live behind package-level globals: a logger, a command-ID
// generator, and a bounded dispatch pool for listener callbacks shared
// across every Endpoint and Listener built from it. Constructing one
// explicitly (instead of reaching for a global) keeps tests hermetic and
// lets a process run several independently-configured Redis clients.
type ClientResources struct {
	Logger *zap.Logger

	// dispatchSem bounds the number of concurrent listener-callback
	// goroutines spawned via Dispatch. Nil (a dispatchLimit of zero)
	// means unbounded.
	dispatchSem *semaphore.Weighted
}

// NewClientResources builds a ClientResources. A nil logger defaults to
// zap.NewNop(), so callers opting out of observability don't pay for it.
// dispatchLimit bounds concurrent listener dispatch; zero means unbounded.
func NewClientResources(logger *zap.Logger, dispatchLimit int64) *ClientResources {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ClientResources{Logger: logger}
	if dispatchLimit > 0 {
		r.dispatchSem = semaphore.NewWeighted(dispatchLimit)
	}
	return r
}

// NewCommandID returns a fresh correlation ID for a Command, used in log
// lines to trace a single request across encode, write, and reply.
func (r *ClientResources) NewCommandID() string {
	return uuid.NewString()
}

// Dispatch runs fn on its own goroutine, gated by the resources' dispatch
// semaphore when one is configured. Every Future built through an Endpoint
// wired to these resources fires its listeners through Dispatch instead of
// inline on the run loop goroutine. Without a dispatch limit a slow
// caller-supplied listener never stalls command processing; with one,
// Dispatch blocks its caller (the run loop) while every slot is busy, which
// bounds total goroutine growth process-wide.
func (r *ClientResources) Dispatch(ctx context.Context, fn func()) {
	if r.dispatchSem == nil {
		go fn()
		return
	}
	if err := r.dispatchSem.Acquire(ctx, 1); err != nil {
		return
	}
	go func() {
		defer r.dispatchSem.Release(1)
		fn()
	}()
}
