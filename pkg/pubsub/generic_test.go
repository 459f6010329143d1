package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	ps := NewPubSub[int]()
	a := ps.Subscribe("a")
	b := ps.Subscribe("b")

	ps.Publish("a", 7)

	require.Len(t, a, 1)
	assert.Equal(t, 7, <-a)
	assert.Len(t, b, 0)
}

func TestPublishKeepsLatestForSlowSubscriber(t *testing.T) {
	ps := NewPubSub[string]()
	ch := ps.Subscribe("health")

	ps.Publish("health", "live")
	ps.Publish("health", "disconnected")

	assert.Equal(t, "disconnected", <-ch)
	assert.Len(t, ch, 0)
}

func TestUnsubscribeAndClose(t *testing.T) {
	ps := NewPubSub[int]()
	ch := ps.Subscribe("x")
	ps.Unsubscribe("x", ch)
	_, open := <-ch
	assert.False(t, open)

	other := ps.Subscribe("x")
	ps.Close()
	_, open = <-other
	assert.False(t, open)

	ps.Publish("x", 1)
	late := ps.Subscribe("x")
	_, open = <-late
	assert.False(t, open)
}
