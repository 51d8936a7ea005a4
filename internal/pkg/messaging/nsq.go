package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

// ErrNSQAddrRequired is returned when the nsqd address is missing.
var ErrNSQAddrRequired = errors.New("messaging: nsq nsqd address is required")

// NSQConfig configures the NSQ publisher.
type NSQConfig struct {
	// Addr is the nsqd TCP address.
	Addr string
	// Config overrides the default producer config.
	Config *nsq.Config
}

// NSQ publishes to NSQ topics. NSQ has no message headers, so headers are
// dropped and only the body is sent.
type NSQ struct {
	producer *nsq.Producer
}

// NewNSQ constructs an NSQ producer. The connection is opened lazily by nsqd
// on the first publish.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.Addr == "" {
		return nil, ErrNSQAddrRequired
	}

	pcfg := cfg.Config
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.Addr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p}, nil
}

// Publish sends msg to the topic. The producer call itself is synchronous and
// ignores ctx, so ctx is only checked on entry and while waiting.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	done := make(chan *nsq.ProducerTransaction, 1)
	if err := n.producer.PublishAsync(destination, msg.Body, done); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	select {
	case <-ctx.Done():
		return PublishResult{}, ctx.Err()
	case tx := <-done:
		if tx.Error != nil {
			return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", tx.Error)
		}
	}

	return PublishResult{Destination: destination, Timestamp: time.Now()}, nil
}

// Close stops the producer.
func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}
