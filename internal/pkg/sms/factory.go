package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverTwilio selects the Twilio backend.
	DriverTwilio = "twilio"
	// DriverSNS selects the AWS SNS backend.
	DriverSNS = "sns"
	// DriverLog selects the log-only backend.
	DriverLog = "log"
)

// ErrUnknownDriver indicates an unsupported SMS driver.
var ErrUnknownDriver = errors.New("sms: unknown driver")

// FactoryOptions groups config for supported SMS backends.
type FactoryOptions struct {
	Twilio TwilioConfig
	SNS    SNSConfig
	// RatePerSecond and Burst throttle the selected backend when RatePerSecond > 0.
	RatePerSecond float64
	Burst         int
}

// NewFromDriver constructs an SMS implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (SMS, error) {
	var (
		s   SMS
		err error
	)

	switch strings.TrimSpace(driver) {
	case DriverLog, "":
		s = NewLog()
	case DriverTwilio:
		s, err = NewTwilio(opts.Twilio)
	case DriverSNS:
		s, err = NewSNS(ctx, opts.SNS)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}

	return NewThrottled(s, opts.RatePerSecond, opts.Burst), nil
}
