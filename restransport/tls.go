package restransport

import (
	"context"
	"crypto/tls"
)

// TLS dials "rediss://" connections: plain TCP connect followed by a TLS
// handshake.
type TLS struct {
	Config     *tls.Config
	BufferSize int
}

// Dial implements Transport.
func (t TLS) Dial(ctx context.Context, addr string) (Channel, error) {
	dialer := tls.Dialer{Config: t.Config}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	bufSize := t.BufferSize
	if bufSize == 0 {
		bufSize = conservativeMSS
	}
	return newNetChannel(conn, bufSize), nil
}
