package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(8, zap.NewNop())

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(EventSensorUpdate, map[string]any{"device_id": "dev-001"})

	select {
	case event := <-ch:
		assert.Equal(t, EventSensorUpdate, event.Name)
		payload, ok := event.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "dev-001", payload["device_id"])
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(8, zap.NewNop())

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(EventAlertRaised, "payload")

	assert.Equal(t, EventAlertRaised, (<-ch1).Name)
	assert.Equal(t, EventAlertRaised, (<-ch2).Name)
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus(2, zap.NewNop())

	ch, cancel := bus.Subscribe()
	defer cancel()

	// 缓冲只有2：多余的事件被丢弃，Publish 不阻塞
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(EventSensorUpdate, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	assert.Len(t, ch, 2)
}

func TestBus_CancelRemovesSubscriber(t *testing.T) {
	bus := NewBus(8, zap.NewNop())

	ch, cancel := bus.Subscribe()
	cancel()

	assert.Equal(t, 0, bus.SubscriberCount())

	// Channel is closed after cancel
	_, ok := <-ch
	assert.False(t, ok)

	// Double cancel is safe
	cancel()
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(8, zap.NewNop())
	// 没有订阅者时发布不会panic
	bus.Publish(EventAgentActivity, nil)
	assert.Equal(t, 0, bus.SubscriberCount())
}
