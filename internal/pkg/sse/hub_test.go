package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTopicSubscribers(t *testing.T) {
	hub := NewHub()

	a, cleanupA := hub.Subscribe("company-a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("company-b")
	defer cleanupB()

	hub.Publish("company-a", Event{Event: "punch", Data: "x"})

	select {
	case ev := <-a:
		assert.Equal(t, "company-a", ev.Topic)
		assert.Equal(t, "punch", ev.Event)
	default:
		t.Fatal("expected an event for company-a")
	}

	select {
	case ev := <-b:
		t.Fatalf("unexpected event for company-b: %+v", ev)
	default:
	}
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("c")
	defer cleanup()

	for i := 0; i < 50; i++ {
		hub.Publish("c", Event{Event: "punch"})
	}
	assert.Len(t, ch, cap(ch))
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	_, cleanup1 := hub.Subscribe("c")
	_, cleanup2 := hub.Subscribe("c")
	require.Equal(t, 2, hub.SubscriberCount("c"))

	cleanup1()
	assert.Equal(t, 1, hub.SubscriberCount("c"))
	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())
}

func TestHub_NilPublishIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish("c", Event{Event: "punch"}) })
}
