package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	// ErrSendGridAPIKeyRequired is returned when the API key is missing.
	ErrSendGridAPIKeyRequired = errors.New("sendgrid api key is required")
	// ErrSendGridRejected is returned for non-2xx API responses.
	ErrSendGridRejected = errors.New("sendgrid rejected the message")
)

// SendGridConfig configures the SendGrid implementation.
type SendGridConfig struct {
	// APIKey authenticates against the SendGrid v3 API.
	APIKey string
	// From is the default sender address.
	From string
	// FromName is the display name of the default sender.
	FromName string
	// Sandbox validates requests without delivering them.
	Sandbox bool
}

// SendGrid is a Mail implementation backed by the SendGrid HTTP API.
type SendGrid struct {
	client   *sendgrid.Client
	from     string
	fromName string
	sandbox  bool
}

// NewSendGrid constructs a SendGrid mail sender.
func NewSendGrid(cfg SendGridConfig) (*SendGrid, error) {
	if cfg.APIKey == "" {
		return nil, ErrSendGridAPIKeyRequired
	}

	return &SendGrid{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     cfg.From,
		fromName: cfg.FromName,
		sandbox:  cfg.Sandbox,
	}, nil
}

// Send delivers msg through the SendGrid API.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients()) == 0 {
		return ErrNoRecipients
	}

	from, err := msg.sender(s.from)
	if err != nil {
		return err
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(s.fromName, from))
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	for _, addr := range msg.To {
		p.AddTos(sgmail.NewEmail("", addr))
	}
	for _, addr := range msg.Cc {
		p.AddCCs(sgmail.NewEmail("", addr))
	}
	for _, addr := range msg.Bcc {
		p.AddBCCs(sgmail.NewEmail("", addr))
	}
	m.AddPersonalizations(p)

	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	if s.sandbox {
		ms := sgmail.NewMailSettings()
		ms.SetSandboxMode(sgmail.NewSetting(true))
		m.SetMailSettings(ms)
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrSendGridRejected, resp.StatusCode)
	}

	return nil
}

// Close implements io.Closer for interface compatibility.
func (s *SendGrid) Close() error {
	return nil
}
