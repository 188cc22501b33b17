package restransport

import (
	"context"
	"net"
	"sync"
)

// Fake is an in-process Transport backed by net.Pipe, for deterministic
// reconnect and pub/sub tests that never touch a real socket. Each
// successful Dial hands the "server" half of the pipe to Accept, so a test
// can script replies and observe what the client wrote.
type Fake struct {
	mu       sync.Mutex
	dialErrs []error
	accept   chan net.Conn
	bufSize  int
}

// NewFake builds a Fake transport with no queued dial failures.
func NewFake() *Fake {
	return &Fake{accept: make(chan net.Conn, 16)}
}

// FailNextDial makes the next N Dial calls (one per call to FailNextDial)
// return err instead of connecting.
func (f *Fake) FailNextDial(err error) {
	f.mu.Lock()
	f.dialErrs = append(f.dialErrs, err)
	f.mu.Unlock()
}

// Dial implements Transport.
func (f *Fake) Dial(ctx context.Context, addr string) (Channel, error) {
	f.mu.Lock()
	if len(f.dialErrs) > 0 {
		err := f.dialErrs[0]
		f.dialErrs = f.dialErrs[1:]
		f.mu.Unlock()
		return nil, err
	}
	bufSize := f.bufSize
	f.mu.Unlock()

	client, server := net.Pipe()
	if bufSize == 0 {
		bufSize = 4096
	}
	f.accept <- server
	return newNetChannel(client, bufSize), nil
}

// Accept blocks until the next successful Dial's server-side conn is
// available, for the test driver to script replies on.
func (f *Fake) Accept() net.Conn {
	return <-f.accept
}
