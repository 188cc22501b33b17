package rescore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompleteOnce(t *testing.T) {
	f := newFuture()
	f.complete(nil)
	f.complete(errors.New("ignored"))
	assert.True(t, f.IsDone())
	assert.NoError(t, f.Err())
}

func TestFutureAwaitBlocksUntilComplete(t *testing.T) {
	f := newFuture()
	done := make(chan error, 1)
	go func() {
		done <- f.Await(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Await returned before complete")
	case <-time.After(20 * time.Millisecond):
	}

	wantErr := errors.New("boom")
	f.complete(wantErr)
	require.Equal(t, wantErr, <-done)
}

func TestFutureAwaitContextDeadline(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.IsDone())
}

func TestFutureListenFiresInRegistrationOrder(t *testing.T) {
	f := newFuture()
	var order []int
	f.Listen(func(error) { order = append(order, 1) })
	f.Listen(func(error) { order = append(order, 2) })
	f.complete(nil)
	assert.Equal(t, []int{1, 2}, order)
}

func TestFutureCompleteCancelledSetsIsCancelled(t *testing.T) {
	f := newFuture()
	f.completeCancelled(errors.New("closed"))
	assert.True(t, f.IsDone())
	assert.True(t, f.IsCancelled())
}

func TestFutureCompleteUsesDispatchWhenSet(t *testing.T) {
	f := newFuture()
	var dispatched bool
	done := make(chan struct{})
	f.dispatch = func(fn func()) {
		dispatched = true
		fn()
		close(done)
	}
	f.Listen(func(error) {})
	f.complete(nil)
	<-done
	assert.True(t, dispatched)
}

func TestFutureListenAfterCompleteFiresImmediately(t *testing.T) {
	f := newFuture()
	f.complete(errors.New("x"))
	fired := false
	f.Listen(func(err error) {
		fired = true
		assert.Error(t, err)
	})
	assert.True(t, fired)
}
