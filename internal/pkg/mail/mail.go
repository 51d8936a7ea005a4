package mail

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("mail: message has no recipients")
	// ErrNoSender is returned when neither the message nor the driver config names a sender.
	ErrNoSender = errors.New("mail: no sender address")
)

// Message is one outgoing email. OTP mail is plain text; HTMLBody is optional.
type Message struct {
	// From overrides the driver's configured sender.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Recipients returns every envelope recipient, Bcc included.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// sender picks the message's From over the driver default.
func (m Message) sender(fallback string) (string, error) {
	switch {
	case m.From != "":
		return m.From, nil
	case fallback != "":
		return fallback, nil
	default:
		return "", ErrNoSender
	}
}

// Mail sends email through one provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
