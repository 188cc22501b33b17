package restransport

import (
	"context"
	"net"
)

// conservativeMSS is the IPv6 minimum MTU of 1280 bytes, minus a 40 byte IP
// header, minus a 32 byte TCP header (with timestamps).
const conservativeMSS = 1208

// TCP dials plain "tcp" connections.
type TCP struct {
	// BufferSize sizes the bufio.Reader wrapping each connection.
	// Zero defaults to conservativeMSS.
	BufferSize int
}

// Dial implements Transport.
func (t TCP) Dial(ctx context.Context, addr string) (Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
		tcp.SetLinger(0)
	}
	bufSize := t.BufferSize
	if bufSize == 0 {
		bufSize = conservativeMSS
	}
	return newNetChannel(conn, bufSize), nil
}
