package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrTwilioConfig is returned when required Twilio settings are missing.
var ErrTwilioConfig = errors.New("sms: twilio account sid, auth token and from number are required")

// TwilioConfig configures the Twilio implementation.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	// From is the sending number or messaging service sender.
	From string
	// Timeout bounds one API call. Zero keeps the client default.
	Timeout time.Duration
}

type twilioSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Twilio sends messages through the Twilio Programmable Messaging API.
type Twilio struct {
	api  twilioSender
	from string
}

// NewTwilio constructs a Twilio sender.
func NewTwilio(cfg TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrTwilioConfig
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Twilio{api: client.Api, from: cfg.From}, nil
}

// Send creates a message resource. The SDK call is not context aware, so it
// runs in its own goroutine and Send returns early when ctx is done.
func (t *Twilio) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(t.from)
	params.SetBody(msg.Body)

	done := make(chan error, 1)
	go func() {
		_, err := t.api.CreateMessage(params)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err == nil {
			return nil
		}
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf("twilio send: %d %s", restErr.Code, restErr.Message)
		}
		return fmt.Errorf("twilio send: %w", err)
	}
}

// Close implements io.Closer.
func (t *Twilio) Close() error {
	return nil
}
