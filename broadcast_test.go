package serialwatch

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(i int) Event {
	return Connected{Device: DeviceInfo{PortName: fmt.Sprintf("/dev/ttyUSB%d", i)}}
}

func TestBroadcasterDeliversInOrder(t *testing.T) {
	var b broadcaster
	sub := b.subscribe()
	defer sub.Unsubscribe()

	for i := 0; i < 100; i++ {
		b.publish(testEvent(i))
	}
	for i := 0; i < 100; i++ {
		ev := nextEvent(t, sub)
		require.Equal(t, testEvent(i), ev)
	}
}

func TestBroadcasterSlowSubscriberDoesNotBlock(t *testing.T) {
	var b broadcaster
	slow := b.subscribe()
	fast := b.subscribe()
	defer slow.Unsubscribe()
	defer fast.Unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			b.publish(testEvent(i))
		}
	}()

	// Nobody reads slow while publishing runs to completion
	for i := 0; i < 1000; i++ {
		nextEvent(t, fast)
	}
	select {
	case <-done:
	case <-time.After(eventTimeout):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// slow still receives everything, in order
	for i := 0; i < 1000; i++ {
		require.Equal(t, testEvent(i), nextEvent(t, slow))
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	var b broadcaster
	sub := b.subscribe()
	other := b.subscribe()
	defer other.Unsubscribe()
	require.Equal(t, 2, b.count())

	b.publish(testEvent(1))
	sub.Unsubscribe()
	b.publish(testEvent(2))

	assert.Equal(t, 1, b.count())
	for ev := range sub.Events() {
		assert.NotEqual(t, testEvent(2), ev, "event published after Unsubscribe was delivered")
	}

	assert.Equal(t, testEvent(1), nextEvent(t, other))
	assert.Equal(t, testEvent(2), nextEvent(t, other))

	// Unsubscribing twice is harmless
	sub.Unsubscribe()
}

func TestBroadcasterClose(t *testing.T) {
	var b broadcaster
	sub := b.subscribe()
	b.close()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, b.count())

	late := b.subscribe()
	_, ok = <-late.Events()
	assert.False(t, ok)

	// Publishing after close reaches nobody
	b.publish(testEvent(0))
}

func TestErrorEventUnwraps(t *testing.T) {
	ev := Error{Err: fmt.Errorf("%w: /dev/ttyS0: denied", ErrPortPropertiesExtractionFailed)}
	assert.True(t, errors.Is(ev, ErrPortPropertiesExtractionFailed))
	assert.Contains(t, ev.Error(), "/dev/ttyS0")
}
