package messaging

import (
	"context"
	"time"
)

// Noop discards every message. It backs the "none" driver.
type Noop struct{}

// NewNoop constructs a discarding publisher.
func NewNoop() *Noop {
	return &Noop{}
}

// Publish validates the destination and drops the message.
func (Noop) Publish(ctx context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	return PublishResult{Destination: destination, Timestamp: time.Now()}, nil
}

// Close implements io.Closer.
func (Noop) Close() error {
	return nil
}
