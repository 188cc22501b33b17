// Package restransport provides the pluggable transport boundary consumed
// by rescore: something that can dial an address and hand back a byte
// Channel. TCP, TLS, and Unix domain sockets each implement Transport;
// tests substitute a Pipe-backed fake.
package restransport

import (
	"bufio"
	"context"
	"net"
	"time"
)

// Channel is a single connected transport instance. A Channel is owned by
// exactly one rescore command handler for its lifetime; it is never shared
// across reconnects.
type Channel interface {
	// Write sends p on the wire. Safe to call only from the owning
	// handler's goroutine.
	Write(p []byte) (int, error)
	// Reader returns the buffered reader used to decode replies.
	Reader() *bufio.Reader
	// Close tears down the underlying connection.
	Close() error
	// RemoteAddr identifies the peer, for logging.
	RemoteAddr() string
	// SetReadDeadline and SetWriteDeadline bound the next I/O call, the
	// way CommandTimeout is applied per request.
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Transport dials an address and returns a Channel.
type Transport interface {
	Dial(ctx context.Context, addr string) (Channel, error)
}

// netChannel adapts a net.Conn to Channel.
type netChannel struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newNetChannel(conn net.Conn, bufSize int) *netChannel {
	return &netChannel{conn: conn, reader: bufio.NewReaderSize(conn, bufSize)}
}

func (c *netChannel) Write(p []byte) (int, error) { return c.conn.Write(p) }
func (c *netChannel) Reader() *bufio.Reader        { return c.reader }
func (c *netChannel) Close() error                 { return c.conn.Close() }
func (c *netChannel) RemoteAddr() string           { return c.conn.RemoteAddr().String() }

func (c *netChannel) SetReadDeadline(t time.Time) error  { return c.conn.SetReadDeadline(t) }
func (c *netChannel) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
