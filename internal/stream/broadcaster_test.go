package stream

import (
	"testing"

	"robotask/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	first := b.Subscribe(4)
	second := b.Subscribe(4)

	event := &model.Event{ID: 1, Task: 1}
	b.Publish(event)

	assert.Equal(t, event, <-first.C)
	assert.Equal(t, event, <-second.C)
}

func TestBroadcasterDropsForSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe(1)

	b.Publish(&model.Event{ID: 1})
	b.Publish(&model.Event{ID: 2}) // dropped, buffer full

	got := <-slow.C
	assert.Equal(t, int64(1), got.ID)
	assert.Empty(t, slow.C)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe(1)
	require.Equal(t, 1, b.Count())

	b.Unsubscribe(sub)
	assert.Zero(t, b.Count())

	_, open := <-sub.C
	assert.False(t, open)

	// Double unsubscribe must not panic.
	assert.NotPanics(t, func() { b.Unsubscribe(sub) })

	// Publishing with no subscribers is a no-op.
	assert.NotPanics(t, func() { b.Publish(&model.Event{ID: 3}) })
}
