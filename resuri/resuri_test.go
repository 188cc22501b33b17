package resuri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTCP(t *testing.T) {
	ep, err := Parse("redis://:secret@db.internal:6380/3")
	require.NoError(t, err)
	assert.Equal(t, KindTCP, ep.Kind)
	assert.Equal(t, "db.internal:6380", ep.Addr)
	assert.Equal(t, "secret", ep.Password)
	assert.EqualValues(t, 3, ep.DB)
	assert.IsType(t, KindTCP, ep.Kind)
}

func TestParseTCPDefaultPort(t *testing.T) {
	ep, err := Parse("redis://localhost")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", ep.Addr)
	assert.Zero(t, ep.DB)
}

func TestParseTLS(t *testing.T) {
	ep, err := Parse("rediss://secure.example:6380")
	require.NoError(t, err)
	assert.Equal(t, KindTLS, ep.Kind)
	assert.Equal(t, "secure.example:6380", ep.Addr)
	assert.NotNil(t, ep.Transport)
}

func TestParseUnixSocket(t *testing.T) {
	ep, err := Parse("redis-socket:///var/run/redis.sock?password=pw")
	require.NoError(t, err)
	assert.Equal(t, KindUnixSocket, ep.Kind)
	assert.Equal(t, "/var/run/redis.sock", ep.Addr)
	assert.Equal(t, "pw", ep.Password)
}

func TestParseSentinel(t *testing.T) {
	ep, err := Parse("redis-sentinel://mymaster@sentinel1:26379,sentinel2:26379/1")
	require.NoError(t, err)
	assert.Equal(t, KindSentinel, ep.Kind)
	assert.Equal(t, "mymaster", ep.MasterName)
	assert.Equal(t, []string{"sentinel1:26379", "sentinel2:26379"}, ep.Addrs)
	assert.EqualValues(t, 1, ep.DB)
}

func TestParseSentinelMissingMaster(t *testing.T) {
	_, err := Parse("redis-sentinel://sentinel1:26379")
	assert.Error(t, err)
}

func TestParseUnsupportedScheme(t *testing.T) {
	_, err := Parse("http://example.com")
	assert.Error(t, err)
}
