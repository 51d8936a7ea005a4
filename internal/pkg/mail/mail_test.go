package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		driver  string
		opts    FactoryOptions
		wantErr error
	}{
		{
			name:   "smtp",
			driver: DriverSMTP,
			opts:   FactoryOptions{SMTP: SMTPConfig{Host: "localhost", Port: 1025}},
		},
		{
			name:   "empty defaults to smtp",
			driver: "",
			opts:   FactoryOptions{SMTP: SMTPConfig{Host: "localhost", Port: 1025}},
		},
		{
			name:    "smtp missing host",
			driver:  DriverSMTP,
			wantErr: ErrSMTPHostPortRequired,
		},
		{
			name:   "sendgrid",
			driver: DriverSendGrid,
			opts:   FactoryOptions{SendGrid: SendGridConfig{APIKey: "SG.test"}},
		},
		{
			name:    "sendgrid missing key",
			driver:  DriverSendGrid,
			wantErr: ErrSendGridAPIKeyRequired,
		},
		{
			name:    "unknown",
			driver:  "pigeon",
			wantErr: ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			m, err := NewFromDriver(tt.driver, tt.opts)

			// Assert
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m)
			assert.NoError(t, m.Close())
		})
	}
}

func TestSMTP_Send_Validation(t *testing.T) {
	t.Parallel()

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	err = s.Send(context.Background(), Message{To: []string{"a@b.co"}})
	assert.ErrorIs(t, err, ErrNoSender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Send(ctx, Message{To: []string{"a@b.co"}, From: "no-reply@edubite.id"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendGrid_Send_Validation(t *testing.T) {
	t.Parallel()

	s, err := NewSendGrid(SendGridConfig{APIKey: "SG.test"})
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	err = s.Send(context.Background(), Message{To: []string{"a@b.co"}})
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestCompose(t *testing.T) {
	t.Parallel()

	// Arrange
	msg := Message{
		To:       []string{"student@edubite.id"},
		Cc:       []string{"parent@edubite.id"},
		Bcc:      []string{"audit@edubite.id"},
		Subject:  "Your verification code",
		TextBody: "code 123456",
		HTMLBody: "<b>123456</b>",
	}

	// Act
	raw := string(compose("no-reply@edubite.id", msg))

	// Assert
	assert.Contains(t, raw, "From: no-reply@edubite.id\r\n")
	assert.Contains(t, raw, "To: student@edubite.id\r\n")
	assert.Contains(t, raw, "Cc: parent@edubite.id\r\n")
	assert.NotContains(t, raw, "audit@edubite.id")
	assert.Contains(t, raw, "Subject: Your verification code\r\n")
	assert.Contains(t, raw, "multipart/alternative; boundary=edubite-boundary-")
	assert.Contains(t, raw, "code 123456")
	assert.Contains(t, raw, "<b>123456</b>")
}

func TestBuildBody(t *testing.T) {
	t.Parallel()

	body, ct := buildBody(Message{TextBody: "plain"})
	assert.Equal(t, "plain", body)
	assert.Equal(t, "text/plain; charset=UTF-8", ct)

	body, ct = buildBody(Message{HTMLBody: "<p>x</p>"})
	assert.Equal(t, "<p>x</p>", body)
	assert.Equal(t, "text/html; charset=UTF-8", ct)

	_, ct = buildBody(Message{TextBody: "a", HTMLBody: "b"})
	assert.True(t, strings.HasPrefix(ct, "multipart/alternative"))
}
