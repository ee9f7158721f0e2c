package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	b := New(nil)

	var order []string
	b.Subscribe("event:added", func(payload any) {
		order = append(order, "first")
	})
	b.Subscribe("event:added", func(payload any) {
		order = append(order, "second")
	})
	b.Subscribe("event:added", func(payload any) {
		order = append(order, "third")
	})

	b.Publish("event:added", "payload")

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_SamePayloadToAllHandlers(t *testing.T) {
	b := New(nil)

	payload := map[string]int{"severity": 7}
	var received []any

	b.Subscribe("topic", func(p any) { received = append(received, p) })
	b.Subscribe("topic", func(p any) { received = append(received, p) })

	b.Publish("topic", payload)

	assert.Len(t, received, 2)
	for _, p := range received {
		assert.Equal(t, payload, p)
	}
}

func TestBus_PublishNoSubscribersIsNoop(t *testing.T) {
	b := New(nil)

	// Must not panic or error
	b.Publish("nobody:listening", 42)
	assert.Equal(t, 0, b.SubscriberCount("nobody:listening"))
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New(nil)

	calls := 0
	unsub := b.Subscribe("topic", func(any) { calls++ })

	b.Publish("topic", nil)
	unsub()
	b.Publish("topic", nil)
	unsub() // second unsubscribe is a no-op

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.SubscriberCount("topic"))
}

func TestBus_NestedPublishRecursesSynchronously(t *testing.T) {
	b := New(nil)

	var order []string
	b.Subscribe("outer", func(any) {
		order = append(order, "outer-start")
		b.Publish("inner", nil)
		order = append(order, "outer-end")
	})
	b.Subscribe("inner", func(any) {
		order = append(order, "inner")
	})

	b.Publish("outer", nil)

	assert.Equal(t, []string{"outer-start", "inner", "outer-end"}, order)
}

func TestBus_SubscribeDuringPublishTakesEffectNextPublish(t *testing.T) {
	b := New(nil)

	lateCalls := 0
	b.Subscribe("topic", func(any) {
		b.Subscribe("topic", func(any) { lateCalls++ })
	})

	b.Publish("topic", nil)
	assert.Equal(t, 0, lateCalls, "handler added mid-fanout must not see the current publish")

	b.Publish("topic", nil)
	assert.Equal(t, 1, lateCalls)
}

func TestBus_Reset(t *testing.T) {
	b := New(nil)

	calls := 0
	b.Subscribe("a", func(any) { calls++ })
	b.Subscribe("b", func(any) { calls++ })

	b.Reset()

	b.Publish("a", nil)
	b.Publish("b", nil)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, b.SubscriberCount("a"))
}
