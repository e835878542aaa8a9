package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vofmun/registrar/internal/pubsub"
	"github.com/vofmun/registrar/internal/registration"
)

type recordingNotifier struct {
	mu       sync.Mutex
	sends    []Kind
	attempts int
	err      error
}

func (r *recordingNotifier) Send(_ context.Context, kind Kind, _ Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.err != nil {
		return r.err
	}
	r.sends = append(r.sends, kind)
	return nil
}

func (r *recordingNotifier) kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Kind(nil), r.sends...)
}

func runDispatcher(t *testing.T, notifier Notifier) *pubsub.Broker[registration.Created] {
	t.Helper()
	broker := pubsub.NewBroker[registration.Created]()
	t.Cleanup(broker.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewDispatcher(notifier).Run(ctx, broker)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait for the subscription before publishing.
	require.Eventually(t, func() bool {
		return broker.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)
	return broker
}

func TestDispatcherSelectsKindFromPaymentStatus(t *testing.T) {
	notifier := &recordingNotifier{}
	broker := runDispatcher(t, notifier)

	broker.Publish(pubsub.CreatedEvent, registration.Created{
		UserID: "r1", Email: "a@b.co", RawPaymentStatus: "yes",
	})
	broker.Publish(pubsub.CreatedEvent, registration.Created{
		UserID: "r2", Email: "b@b.co", RawPaymentStatus: "no",
	})
	broker.Publish(pubsub.CreatedEvent, registration.Created{
		UserID: "r3", Email: "c@b.co", RawPaymentStatus: "pending",
	})

	require.Eventually(t, func() bool {
		return len(notifier.kinds()) == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []Kind{KindConfirmed, KindReminder}, notifier.kinds())
}

func TestDispatcherIgnoresOtherEventTypes(t *testing.T) {
	notifier := &recordingNotifier{}
	broker := runDispatcher(t, notifier)

	broker.Publish(pubsub.ReloadEvent, registration.Created{UserID: "r1", RawPaymentStatus: "yes"})
	broker.Publish(pubsub.CreatedEvent, registration.Created{UserID: "r2", RawPaymentStatus: "yes"})

	require.Eventually(t, func() bool {
		return len(notifier.kinds()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcherSurvivesSendFailures(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	broker := runDispatcher(t, notifier)

	broker.Publish(pubsub.CreatedEvent, registration.Created{UserID: "r1", RawPaymentStatus: "yes"})
	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.attempts == 1
	}, time.Second, 5*time.Millisecond)

	// The failed send is only logged; the dispatcher keeps consuming.
	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()
	broker.Publish(pubsub.CreatedEvent, registration.Created{UserID: "r2", RawPaymentStatus: "no"})

	require.Eventually(t, func() bool {
		return len(notifier.kinds()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []Kind{KindReminder}, notifier.kinds())
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		raw    string
		want   Kind
		wantOK bool
	}{
		{"yes", KindConfirmed, true},
		{"no", KindReminder, true},
		{"pending", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		kind, ok := kindFor(tc.raw)
		require.Equal(t, tc.wantOK, ok, "raw=%q", tc.raw)
		require.Equal(t, tc.want, kind, "raw=%q", tc.raw)
	}
}

func TestNopNotifier(t *testing.T) {
	require.NoError(t, NopNotifier{}.Send(context.Background(), KindConfirmed, Recipient{}))
}
