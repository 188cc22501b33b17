package redis

import (
	"bufio"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pascaldekloe/redis/v2/rescore"
	"github.com/pascaldekloe/redis/v2/respio"
	"github.com/pascaldekloe/redis/v2/restransport"
)

func TestClientSetGet(t *testing.T) {
	fake := restransport.NewFake()
	config := rescore.DefaultEndpointConfig()
	config.ReconnectBaseDelay = time.Millisecond

	client := NewClient("fake", fake, config, nil)
	defer client.Close()

	server := fake.Accept()
	r := bufio.NewReader(server)

	done := make(chan error, 1)
	go func() {
		done <- client.Set(context.Background(), "k", []byte("v"))
	}()

	v, err := respio.ReadReply(r)
	require.NoError(t, err)
	require.Equal(t, "k", string(v.Array[1].Bulk))
	require.Equal(t, "v", string(v.Array[2].Bulk))

	_, err = server.Write([]byte("+OK\r\n"))
	require.NoError(t, err)
	require.NoError(t, <-done)

	go func() {
		val, ok, err := client.Get(context.Background(), "k")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "v", string(val))
		done <- nil
	}()

	v, err = respio.ReadReply(r)
	require.NoError(t, err)
	require.Equal(t, "GET", string(v.Array[0].Bulk))

	_, err = server.Write([]byte("$1\r\nv\r\n"))
	require.NoError(t, err)
	require.NoError(t, <-done)
}
