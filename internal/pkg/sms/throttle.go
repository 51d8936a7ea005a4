package sms

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled limits the send rate of an underlying SMS provider. Callers block
// until a token is available or ctx is done.
type Throttled struct {
	next    SMS
	limiter *rate.Limiter
}

// NewThrottled wraps next so that at most perSecond messages leave per second,
// with the given burst. A non-positive perSecond returns next unchanged.
func NewThrottled(next SMS, perSecond float64, burst int) SMS {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Send waits for a token and forwards msg.
func (t *Throttled) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.Send(ctx, msg)
}

// Close closes the wrapped provider.
func (t *Throttled) Close() error {
	return t.next.Close()
}
