package mail

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverSMTP selects the SMTP backend.
	DriverSMTP = "smtp"
	// DriverSendGrid selects the SendGrid backend.
	DriverSendGrid = "sendgrid"
)

// ErrUnknownDriver indicates an unsupported mail driver.
var ErrUnknownDriver = errors.New("mail: unknown driver")

// FactoryOptions groups config for supported mail backends.
type FactoryOptions struct {
	SMTP     SMTPConfig
	SendGrid SendGridConfig
}

// NewFromDriver constructs a Mail implementation by driver name.
func NewFromDriver(driver string, opts FactoryOptions) (Mail, error) {
	switch strings.TrimSpace(driver) {
	case DriverSMTP, "":
		return NewSMTP(opts.SMTP)
	case DriverSendGrid:
		return NewSendGrid(opts.SendGrid)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
