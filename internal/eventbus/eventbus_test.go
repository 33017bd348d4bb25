package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePublishDeliversEvent(t *testing.T) {
	bus := New(4)
	sub := bus.Subscribe()
	defer sub.Close()

	bus.Publish(Event{Kind: "status", Data: "running"})

	select {
	case evt := <-sub.Events():
		assert.Equal(t, "status", evt.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishDropsOldestWhenQueueFull(t *testing.T) {
	bus := New(2)
	sub := bus.Subscribe()
	defer sub.Close()

	bus.Publish(Event{Kind: "a"})
	bus.Publish(Event{Kind: "b"})
	bus.Publish(Event{Kind: "c"}) // queue full: "a" dropped, "c" appended

	first := <-sub.Events()
	second := <-sub.Events()
	assert.Equal(t, "b", first.Kind)
	assert.Equal(t, "c", second.Kind)
	assert.True(t, sub.Lagged())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(2)
	sub := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	sub.Close()
	assert.Equal(t, 0, bus.SubscriberCount())

	_, ok := <-sub.Events()
	assert.False(t, ok)
}
