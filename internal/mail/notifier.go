// Package mail sends registration notification emails. Delivery is best
// effort: a failed send is logged and never fails the registration.
package mail

import "context"

// Kind selects the notification template.
type Kind string

const (
	// KindConfirmed acknowledges a submission with payment declared done.
	KindConfirmed Kind = "confirmed"
	// KindReminder acknowledges a submission and reminds about payment.
	KindReminder Kind = "reminder"
)

// Recipient identifies who a notification goes to.
type Recipient struct {
	Email     string
	FirstName string
	LastName  string
}

// Notifier delivers one notification email.
type Notifier interface {
	Send(ctx context.Context, kind Kind, to Recipient) error
}

// NopNotifier discards every notification. Used when mail is disabled.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, Kind, Recipient) error { return nil }
