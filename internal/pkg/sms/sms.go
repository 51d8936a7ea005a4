package sms

import (
	"context"
	"errors"
	"io"
	"regexp"
)

var (
	// ErrNoRecipient is returned when Message.To is empty.
	ErrNoRecipient = errors.New("sms: no recipient provided")
	// ErrInvalidRecipient is returned when Message.To is not in E.164 form.
	ErrInvalidRecipient = errors.New("sms: recipient must be in E.164 format")
	// ErrEmptyBody is returned when Message.Body is empty.
	ErrEmptyBody = errors.New("sms: empty body")
)

var e164 = regexp.MustCompile(`^\+\d{2,15}$`)

// Message is a single outbound text message.
type Message struct {
	// To is the recipient phone number in E.164 format.
	To string
	// Body is the plain text content.
	Body string
}

// Validate checks the message before it is handed to a provider.
func (m Message) Validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	if !e164.MatchString(m.To) {
		return ErrInvalidRecipient
	}
	if m.Body == "" {
		return ErrEmptyBody
	}
	return nil
}

// SMS abstracts an SMS provider.
type SMS interface {
	io.Closer
	// Send dispatches msg. Implementations honor ctx cancellation.
	Send(ctx context.Context, msg Message) error
}
