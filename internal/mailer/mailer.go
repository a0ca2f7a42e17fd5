// Package mailer delivers outbound email. Delivery is always best-effort:
// state transitions commit first and a failed send is recorded, never
// propagated as a transition failure.
package mailer

import (
	"context"
	"log"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends a message. Implementations must bound their own timeouts so a
// slow provider cannot block the caller indefinitely.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Disabled is the no-op mailer used when no provider API key is configured.
// Sends are logged and dropped.
type Disabled struct{}

func (Disabled) Send(_ context.Context, m Message) error {
	log.Printf("mailer disabled, dropping email to=%s subject=%q", m.To, m.Subject)
	return nil
}
