package restransport

import (
	"context"
	"net"
)

// queueSizeUnix is the default read buffer for a Unix domain socket: larger
// than conservativeMSS, since a local socket has no path MTU to size
// against and comfortably tolerates deeper pipelines of buffered replies.
const queueSizeUnix = 8192

// UnixSocket dials "redis-socket:///path" connections.
type UnixSocket struct {
	BufferSize int
}

// Dial implements Transport. addr is a filesystem path, not a host:port.
func (u UnixSocket) Dial(ctx context.Context, addr string) (Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", addr)
	if err != nil {
		return nil, err
	}
	bufSize := u.BufferSize
	if bufSize == 0 {
		bufSize = queueSizeUnix
	}
	return newNetChannel(conn, bufSize), nil
}
