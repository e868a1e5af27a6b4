package mailer

import (
	"context"
	"net/mail"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
