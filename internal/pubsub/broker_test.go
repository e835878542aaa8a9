package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_PublishReachesAllSubscribers(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1 := broker.Subscribe(ctx)
	sub2 := broker.Subscribe(ctx)
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Publish(CreatedEvent, "hello")

	for _, sub := range []<-chan Event[string]{sub1, sub2} {
		select {
		case ev := <-sub:
			require.Equal(t, CreatedEvent, ev.Type)
			require.Equal(t, "hello", ev.Payload)
			require.WithinDuration(t, time.Now(), ev.Timestamp, time.Second)
		case <-time.After(time.Second):
			t.Fatal("expected event, got none")
		}
	}
}

func TestBroker_SubscribeAfterClose(t *testing.T) {
	broker := NewBroker[int]()
	broker.Close()

	sub := broker.Subscribe(context.Background())
	_, open := <-sub
	require.False(t, open, "subscription after Close should be a closed channel")
}

func TestBroker_PublishAfterCloseIsNoop(t *testing.T) {
	broker := NewBroker[int]()
	broker.Close()
	broker.Publish(CreatedEvent, 1) // must not panic
}

func TestBroker_CancelledContextRemovesSubscriber(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := broker.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return broker.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-sub
	require.False(t, open, "channel should be closed after context cancellation")
}

func TestBroker_FullSubscriberDropsEvents(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := broker.Subscribe(ctx)
	broker.Publish(CreatedEvent, 1)
	broker.Publish(CreatedEvent, 2) // dropped, buffer is full

	ev := <-sub
	require.Equal(t, 1, ev.Payload)

	select {
	case ev := <-sub:
		t.Fatalf("expected no more events, got %v", ev.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}
