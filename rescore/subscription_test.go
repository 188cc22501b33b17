package rescore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionSetSnapshotAndCounts(t *testing.T) {
	s := newSubscriptionSet()
	s.addChannel("news", make(chan PubSubMessage, 1))
	s.addPattern("news.*", make(chan PubSubMessage, 1))

	channels, patterns := s.snapshot()
	assert.ElementsMatch(t, []string{"news"}, channels)
	assert.ElementsMatch(t, []string{"news.*"}, patterns)

	cc, pc := s.counts()
	assert.Equal(t, 1, cc)
	assert.Equal(t, 1, pc)

	s.removeChannel("news")
	cc, pc = s.counts()
	assert.Equal(t, 0, cc)
	assert.Equal(t, 1, pc)

	s.removePattern("news.*")
	_, pc = s.counts()
	assert.Equal(t, 0, pc)
}

func TestSubscriptionSetDispatchRoutesByPatternOverChannel(t *testing.T) {
	s := newSubscriptionSet()
	chSink := make(chan PubSubMessage, 1)
	patSink := make(chan PubSubMessage, 1)
	s.addChannel("news", chSink)
	s.addPattern("news.*", patSink)

	s.dispatch(PubSubMessage{Channel: "news", Payload: []byte("a")})
	select {
	case msg := <-chSink:
		assert.Equal(t, "a", string(msg.Payload))
	default:
		t.Fatal("expected delivery to channel sink")
	}

	s.dispatch(PubSubMessage{Pattern: "news.*", Channel: "news.sports", Payload: []byte("b")})
	select {
	case msg := <-patSink:
		assert.Equal(t, "news.sports", msg.Channel)
	default:
		t.Fatal("expected delivery to pattern sink")
	}
}

func TestSubscriptionSetDispatchUnmatchedIsDropped(t *testing.T) {
	s := newSubscriptionSet()
	// No subscribers at all; must not panic or block.
	s.dispatch(PubSubMessage{Channel: "nobody-listening", Payload: []byte("x")})
}
