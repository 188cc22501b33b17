package rescore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pascaldekloe/redis/v2/respio"
)

func TestCommandMarkCompletedOnce(t *testing.T) {
	cmd := NewCommand("GET", NewBulkOutput("GET", "k"))
	assert.True(t, cmd.markCompleted())
	assert.False(t, cmd.markCompleted())
	assert.False(t, cmd.IsCancelled())
}

func TestCommandMarkCancelledBlocksCompletion(t *testing.T) {
	cmd := NewCommand("GET", NewBulkOutput("GET", "k"))
	assert.True(t, cmd.markCancelled())
	assert.False(t, cmd.markCompleted())
	assert.True(t, cmd.IsCancelled())
}

func TestCommandResetForRetry(t *testing.T) {
	out := NewIntegerOutput("INCR", "k")
	out.Int = 5
	cmd := NewCommand("INCR", out)
	cmd.encoded = true
	cmd.flushed = true

	cmd.resetForRetry()

	assert.False(t, cmd.encoded)
	assert.False(t, cmd.flushed)
	assert.Zero(t, out.Int)
}

func TestOKOutputFeedServerError(t *testing.T) {
	out := NewOKOutput("SET", "k", []byte("v"))
	done, err := out.Feed(respio.Value{Type: respio.Error, Str: "ERR bad"})
	assert.True(t, done)
	assert.Error(t, err)
	var se ServerError
	assert.ErrorAs(t, err, &se)
}

func TestBulkOutputFeedNull(t *testing.T) {
	out := NewBulkOutput("GET", "missing")
	_, err := out.Feed(respio.Value{Type: respio.Bulk, BulkNull: true})
	assert.NoError(t, err)
	assert.True(t, out.Null)
	assert.Nil(t, out.Bytes)
}

func TestSubscribeAckOutputFeed(t *testing.T) {
	out := NewSubscribeAckOutput("SUBSCRIBE", "news")
	done, err := out.Feed(respio.Value{
		Type: respio.Array,
		Array: []respio.Value{
			{Type: respio.Bulk, Bulk: []byte("subscribe")},
			{Type: respio.Bulk, Bulk: []byte("news")},
			{Type: respio.Integer, Int: 1},
		},
	})
	assert.True(t, done)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, out.Count)
}
