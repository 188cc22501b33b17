package restransport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeDialRoundTrip(t *testing.T) {
	f := NewFake()
	ch, err := f.Dial(context.Background(), "ignored")
	require.NoError(t, err)
	defer ch.Close()

	server := f.Accept()
	defer server.Close()

	go ch.Write([]byte("ping"))

	buf := make([]byte, 4)
	server.SetReadDeadline(time.Now().Add(time.Second))
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
}

func TestFakeFailNextDial(t *testing.T) {
	f := NewFake()
	wantErr := errors.New("boom")
	f.FailNextDial(wantErr)

	_, err := f.Dial(context.Background(), "ignored")
	assert.ErrorIs(t, err, wantErr)

	ch, err := f.Dial(context.Background(), "ignored")
	require.NoError(t, err)
	ch.Close()
}
