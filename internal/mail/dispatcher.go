package mail

import (
	"context"

	"github.com/vofmun/registrar/internal/log"
	"github.com/vofmun/registrar/internal/pubsub"
	"github.com/vofmun/registrar/internal/registration"
)

// Dispatcher consumes registration events off the broker and sends the
// matching notification. It runs off the request path; send failures are
// logged and dropped.
type Dispatcher struct {
	notifier Notifier
}

// NewDispatcher builds a dispatcher over notifier.
func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier}
}

// Run blocks consuming events until ctx is cancelled or the broker
// closes. Call it in its own goroutine.
func (d *Dispatcher) Run(ctx context.Context, events *pubsub.Broker[registration.Created]) {
	ch := events.Subscribe(ctx)
	for event := range ch {
		if event.Type != pubsub.CreatedEvent {
			continue
		}
		d.dispatch(ctx, event.Payload)
	}
}

// dispatch selects the notification kind from the client's raw payment
// answer: "yes" confirms, "no" reminds, anything else sends nothing.
func (d *Dispatcher) dispatch(ctx context.Context, created registration.Created) {
	kind, ok := kindFor(created.RawPaymentStatus)
	if !ok {
		log.Debug(log.CatMail, "no notification for payment status",
			"userId", created.UserID, "paymentStatus", created.RawPaymentStatus)
		return
	}

	to := Recipient{
		Email:     created.Email,
		FirstName: created.FirstName,
		LastName:  created.LastName,
	}
	if err := d.notifier.Send(ctx, kind, to); err != nil {
		log.ErrorErr(log.CatMail, "failed to send notification", err,
			"userId", created.UserID, "kind", kind)
		return
	}
	log.Info(log.CatMail, "notification sent", "userId", created.UserID, "kind", kind)
}

func kindFor(rawPaymentStatus string) (Kind, bool) {
	switch rawPaymentStatus {
	case "yes":
		return KindConfirmed, true
	case "no":
		return KindReminder, true
	}
	return "", false
}
