package rescore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientResourcesNewCommandIDUnique(t *testing.T) {
	r := NewClientResources(nil, 0)
	a := r.NewCommandID()
	b := r.NewCommandID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestClientResourcesDispatchUnbounded(t *testing.T) {
	r := NewClientResources(nil, 0)
	var n int32
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		r.Dispatch(context.Background(), func() {
			atomic.AddInt32(&n, 1)
			wg.Done()
		})
	}
	wg.Wait()
	assert.EqualValues(t, 5, n)
}

func TestClientResourcesDispatchBounded(t *testing.T) {
	r := NewClientResources(nil, 1)
	var running int32
	var maxObserved int32
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		r.Dispatch(context.Background(), func() {
			cur := atomic.AddInt32(&running, 1)
			if cur > atomic.LoadInt32(&maxObserved) {
				atomic.StoreInt32(&maxObserved, cur)
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			wg.Done()
		})
	}
	wg.Wait()
	assert.LessOrEqual(t, maxObserved, int32(1))
}
